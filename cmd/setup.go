package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/chartlist/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a starter config file from the embedded template.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	r.logger.Info("creating config file from template", "path", configPath)
	if err := shared.CreateConfigFile(configPath); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	r.writePlain("✓ Config file created at %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Create an app at https://developer.spotify.com/dashboard\n")
	r.writePlain("2. Add %s as a redirect URI\n", r.config.Credentials.Spotify.RedirectURI)
	r.writePlain("3. Set credentials.spotify.client_id and client_secret in %s\n", configPath)
	r.writePlain("4. Run 'chartlist spotify auth' to log in\n")
	r.writePlain("5. Run 'chartlist run --date YYYY-MM-DD' to build a playlist\n")

	return nil
}
