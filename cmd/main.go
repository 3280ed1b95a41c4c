package main

import (
	"context"
	"os"

	"github.com/desertthunder/chartlist/internal/shared"
	"github.com/urfave/cli/v3"
)

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "chartlist",
		Usage:   "Turn a Billboard Hot 100 chart into a Spotify playlist",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.Bootstrap,
		After:    r.Close,
		Commands: r.register(),
	}
}

func main() {
	runner := NewRunner(RunnerOpts{})

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		if shared.IsSoft(err) {
			runner.logger.Warn(err.Error())
			os.Exit(0)
		}
		runner.logger.Fatalf("application error: %v", err)
	}
}
