// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func dateFlag(usage string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "date",
		Aliases: []string{"d"},
		Usage:   usage,
	}
}

// runCommand runs the full chart to playlist pipeline
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Build a Spotify playlist from the Billboard Hot 100 for a date",
		Flags: []cli.Flag{
			dateFlag("Chart date (YYYY-MM-DD); prompts when omitted"),
			&cli.BoolFlag{
				Name:  "public",
				Usage: "Create a public playlist",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Match tracks without creating a playlist",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Path of the unmatched songs report (default from config)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the run summary as JSON",
			},
		},
		Action: r.Run,
	}
}

// chartCommand handles chart operations that need no Spotify account
func chartCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "chart",
		Usage: "Billboard chart operations",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Resolve and print the chart for a date",
				Flags: []cli.Flag{
					dateFlag("Chart date (YYYY-MM-DD); prompts when omitted"),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (text, csv, markdown, json)",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the chart to a file instead of stdout",
					},
				},
				Action: r.ChartShow,
			},
			{
				Name:  "dates",
				Usage: "Show the normalized date and the dates a fallback search would probe",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "date",
						Aliases:  []string{"d"},
						Usage:    "Chart date (YYYY-MM-DD)",
						Required: true,
					},
				},
				Action: r.ChartDates,
			},
		},
	}
}

// spotifyCommand handles Spotify operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify operations",
		Commands: []*cli.Command{
			{
				Name:   "auth",
				Usage:  "Authenticate with Spotify using OAuth2",
				Action: r.SpotifyAuth,
			},
			{
				Name:  "match",
				Usage: "Search Spotify for a single chart entry",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Song title",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "artist",
						Aliases:  []string{"a"},
						Usage:    "Artist name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "year",
						Usage: "Restrict the search to a release year (0 for any)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SpotifyMatch,
			},
		},
	}
}

// setupCommand writes a starter configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml from the built-in template",
		Action: r.Setup,
	}
}
