package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/desertthunder/chartlist/internal/models"
	"github.com/desertthunder/chartlist/internal/server"
	"github.com/desertthunder/chartlist/internal/services"
	"github.com/desertthunder/chartlist/internal/shared"
	"github.com/desertthunder/chartlist/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// SpotifyReauth performs the full OAuth2 flow to get new tokens and installs them on the service.
func (r *Runner) SpotifyReauth(ctx context.Context, srv *services.SpotifyService) error {
	token, err := r.doOAuth(ctx, srv, "reauthorization")
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	if err := srv.OAuthenticate(ctx, token); err != nil {
		return fmt.Errorf("failed to authenticate with new tokens: %w", err)
	}

	r.writePlainln("✓ Reauthorization successful")
	if r.configPath != "" {
		r.writePlain("✓ New tokens saved to %s\n", r.configPath)
	}
	return nil
}

// SpotifyAuth performs OAuth2 authentication flow for Spotify.
//
// Starts a local HTTP server, opens browser for user authorization, and exchanges auth code for tokens.
func (r *Runner) SpotifyAuth(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		if !r.config.Credentials.Spotify.HasClient() {
			return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s", shared.ErrMissingCredentials, r.configPath)
		}
		if err := r.initSpotify(ctx); err != nil {
			return err
		}
	}

	token, err := r.doOAuth(ctx, r.spotify, "authorization")
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	if err := r.spotify.OAuthenticate(ctx, token); err != nil {
		return fmt.Errorf("failed to authenticate with new tokens: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	if r.configPath != "" {
		r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	}
	r.writePlain("You can now use: chartlist run --date YYYY-MM-DD\n")

	return nil
}

// SpotifyMatch runs the matcher for a single title and artist.
func (r *Runner) SpotifyMatch(ctx context.Context, cmd *cli.Command) error {
	entry := models.ChartEntry{Title: cmd.String("title"), Artist: cmd.String("artist")}
	year := cmd.Int("year")
	useJSON := cmd.Bool("json")

	if entry.Title == "" || entry.Artist == "" {
		return fmt.Errorf("%w: --title and --artist are required", shared.ErrMissingArgument)
	}

	catalog, err := r.openCatalog(ctx)
	if err != nil {
		return err
	}

	r.logger.Infof("matching %q on %v", entry.String(), catalog.Name())

	result := tasks.NewMatcher(catalog, r.logger).Match(ctx, entry, year)
	if result.Err != nil {
		return result.Err
	}

	if useJSON {
		return r.writeJSON(result, true)
	}

	r.writePlain("Query: %s\n", tasks.Query(entry, year))
	if !result.Found() {
		r.writePlain("✗ %s not found on %s\n", entry, catalog.Name())
		return nil
	}

	track := result.Track
	r.writePlain("✓ %s\n", entry)
	r.writePlain("   Track: %s - %s\n", track.Title, track.Artist)
	if track.Album != "" {
		r.writePlain("   Album: %s\n", track.Album)
	}
	if track.ReleaseDate != "" {
		r.writePlain("   Released: %s\n", track.ReleaseDate)
	}
	r.writePlain("   URI: %s\n", track.URI)
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService, prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	handler := server.NewOAuthHandler(oauthSrv.GetOAuthConfig(), state)
	addr := net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))

	callback := server.NewCallbackServer(addr, handler, authURL, r.logger)
	if err := callback.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	r.logger.Infof("started OAuth server for %s at %v", prefix, callback.Addr())

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := r.browser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%v timeout)...\n", authTimeout)
	return callback.Wait(ctx, authTimeout)
}

// handleSpotifyAuthError triggers reauthorization when err means the stored token is missing or expired.
//
// The first return value reports whether reauthorization was attempted.
func (r *Runner) handleSpotifyAuthError(ctx context.Context, err error) (bool, error) {
	if err == nil {
		return false, nil
	}

	if !errors.Is(err, shared.ErrTokenExpired) && !errors.Is(err, shared.ErrNotAuthenticated) {
		return false, err
	}

	if r.spotify == nil {
		return true, fmt.Errorf("%w: spotify service not initialized", shared.ErrServiceUnavailable)
	}

	if errors.Is(err, shared.ErrTokenExpired) {
		r.writePlainln("⚠ Authentication token expired. Starting reauthorization...")
	} else {
		r.writePlainln("⚠ Not logged into Spotify. Starting authorization...")
	}

	if reauthErr := r.SpotifyReauth(ctx, r.spotify); reauthErr != nil {
		return true, fmt.Errorf("reauthorization failed: %w", reauthErr)
	}

	r.writePlainln("✓ Successfully reauthenticated. Retrying operation...")
	return true, nil
}
