package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/chartlist/internal/chart"
	"github.com/desertthunder/chartlist/internal/models"
	"github.com/desertthunder/chartlist/internal/shared"
	"github.com/desertthunder/chartlist/internal/tasks"
	"github.com/desertthunder/chartlist/internal/ui"
	"github.com/urfave/cli/v3"
)

const (
	datePromptTitle = "Enter a Billboard chart date"
	progressBuffer  = 256
)

// runSummary is the --json output of [Runner.Run].
type runSummary struct {
	Requested       string                  `json:"requested"`
	Effective       string                  `json:"effective"`
	Origin          string                  `json:"origin"`
	Found           int                     `json:"found"`
	Total           int                     `json:"total"`
	MatchPercentage float64                 `json:"match_percentage"`
	Report          string                  `json:"report,omitempty"`
	Unmatched       []models.ChartEntry     `json:"unmatched,omitempty"`
	Request         *models.PlaylistRequest `json:"request,omitempty"`
	Playlist        *models.Playlist        `json:"playlist,omitempty"`
}

func newRunSummary(result *tasks.ChartRunResult) runSummary {
	res := result.Resolution
	summary := runSummary{
		Requested:       res.Requested.Format(models.DateLayout),
		Effective:       res.Effective.Format(models.DateLayout),
		Origin:          res.Origin.String(),
		Found:           result.FoundCount,
		Total:           result.TotalEntries,
		MatchPercentage: result.MatchPercentage,
		Report:          result.ReportPath,
		Request:         result.Request,
		Playlist:        result.Playlist,
	}
	for _, m := range result.Matches {
		if !m.Found() {
			summary.Unmatched = append(summary.Unmatched, m.Entry)
		}
	}
	return summary
}

// Run resolves the chart for a date, matches every entry on Spotify and creates the playlist.
//
// Without --date the user is prompted, and an invalid date or a missing chart prompts again.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	opts := tasks.RunOptions{
		Public:     cmd.Bool("public"),
		DryRun:     cmd.Bool("dry-run"),
		ReportPath: cmd.String("report"),
	}
	if opts.ReportPath == "" {
		opts.ReportPath = r.config.Report.Path
	}

	logger := shared.WithLogger(r.logger, "run_id", shared.GenerateID())

	resolver, err := r.newResolver(logger)
	if err != nil {
		return err
	}

	res, err := r.resolveChart(ctx, r.newEngine(resolver, nil, logger), cmd.String("date"), useJSON)
	if err != nil {
		return err
	}
	if !useJSON {
		r.printResolution(res)
		r.writePlainln("🔐 Logging into Spotify...")
	}

	catalog, err := r.openCatalog(ctx)
	if err != nil {
		return err
	}

	engine := r.newEngine(resolver, catalog, logger)
	if !useJSON {
		r.writePlainln("🎵 Searching for Spotify tracks from %d...", res.Year())
	}

	var result *tasks.ChartRunResult
	r.withProgress(useJSON, func(progress chan<- tasks.ProgressUpdate) {
		result, err = engine.Run(ctx, res, opts, progress)
	})
	if result == nil {
		return err
	}

	if useJSON {
		if jsonErr := r.writeJSON(newRunSummary(result), true); jsonErr != nil {
			return jsonErr
		}
		return err
	}

	if err != nil && !errors.Is(err, shared.ErrNoMatches) {
		if result.Playlist != nil {
			r.writePlainln("%s", ui.Warn(fmt.Sprintf("⚠ Playlist '%s' was created with %d tracks before the failure: %s",
				result.Playlist.Name, result.Playlist.TrackCount, result.Playlist.URL)))
		}
		return err
	}

	r.printRunResult(result, opts)
	return err
}

// resolveChart resolves date, or prompts until a usable chart is found when date is empty.
func (r *Runner) resolveChart(ctx context.Context, engine *tasks.ChartEngine, date string, quiet bool) (*chart.Resolution, error) {
	resolve := func(date string) (res *chart.Resolution, err error) {
		r.withProgress(quiet, func(progress chan<- tasks.ProgressUpdate) {
			res, err = engine.Resolve(ctx, date, progress)
		})
		return res, err
	}

	if date != "" {
		return resolve(date)
	}

	notice := ""
	for {
		input, err := r.prompt(ctx, datePromptTitle, notice)
		if err != nil {
			return nil, err
		}

		res, err := resolve(input)
		switch {
		case err == nil:
			return res, nil
		case errors.Is(err, shared.ErrInvalidDate):
			notice = "Invalid format! Please use YYYY-MM-DD."
		case errors.Is(err, shared.ErrNoValidChart):
			r.logger.Warn("no valid chart", "date", input, "error", err)
			notice = fmt.Sprintf("No valid chart found on or before %s. Try another date.", input)
			var nvc *chart.NoValidChartError
			if errors.As(err, &nvc) {
				notice = fmt.Sprintf("No valid chart found on or before %s (largest had %d songs on %s). Try another date.",
					input, nvc.Best.Count, nvc.Best.Date.Format(models.DateLayout))
			}
		default:
			return nil, err
		}
	}
}

// withProgress runs fn with a progress channel drained by a printer goroutine.
// When quiet is set fn receives a nil channel.
func (r *Runner) withProgress(quiet bool, fn func(progress chan<- tasks.ProgressUpdate)) {
	if quiet {
		fn(nil)
		return
	}

	progress := make(chan tasks.ProgressUpdate, progressBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.printUpdate(update)
		}
	}()

	fn(progress)
	close(progress)
	<-done
}

func (r *Runner) printUpdate(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.ResolveChart:
		if update.Step == 0 {
			r.writePlainln("🔍 %s", update.Message)
		}
	case tasks.ProbeChart:
		r.writePlain("🔎 %s\n", update.Message)
	case tasks.SearchTracks:
		if update.Step == 0 {
			return
		}
		if result, ok := update.Data.(models.MatchResult); ok && !result.Found() {
			r.writePlain("%s\n", ui.Warn(update.Message))
			return
		}
		r.writePlain("%s\n", update.Message)
	case tasks.CreatePlaylist:
		if update.Step == 0 {
			r.writePlainln("📁 %s", update.Message)
		}
	case tasks.AddTracks:
		r.writePlain("➕ %s\n", update.Message)
	}
}

func (r *Runner) printResolution(res *chart.Resolution) {
	requested := res.Requested.Format(models.DateLayout)
	normalized := res.Normalized.Format(models.DateLayout)
	effective := res.Effective.Format(models.DateLayout)

	if res.Adjusted {
		r.writePlain("%s\n", ui.Warn(fmt.Sprintf("⚠ Billboard only publishes charts on %ss.", res.Normalized.Weekday())))
		r.writePlain("%s\n", ui.OK(fmt.Sprintf("✓ Using the previous %s instead: %s", res.Normalized.Weekday(), normalized)))
	}

	if res.Origin == chart.OriginFallback {
		r.writePlain("%s\n", ui.Warn(fmt.Sprintf("⚠ Only found %d songs for %s.", res.Probes[0].Count, normalized)))
		r.writePlain("%s\n", ui.OK(fmt.Sprintf("✓ Using chart from %s instead.", effective)))
	}

	r.logger.Info("chart resolved", "requested", requested, "effective", effective, "entries", len(res.Entries))
}

func (r *Runner) printRunResult(result *tasks.ChartRunResult, opts tasks.RunOptions) {
	r.writePlainln("✓ Found %d out of %d songs on Spotify (%.1f%%).",
		result.FoundCount, result.TotalEntries, result.MatchPercentage)

	if result.ReportCount > 0 {
		r.writePlain("📝 Saved %d unfound songs to '%s'\n", result.ReportCount, result.ReportPath)
	}

	if result.FoundCount == 0 {
		r.writePlainln("%s", ui.Err("✗ No matching songs found on Spotify. Playlist will not be created."))
		return
	}

	if opts.DryRun {
		r.writePlainln("Dry run, playlist not created:")
		r.writePlain("  Name: %s\n", result.Request.Name)
		r.writePlain("  Description: %s\n", result.Request.Description)
		r.writePlain("  Tracks: %d\n", len(result.Request.TrackIDs))
		return
	}

	if result.Playlist == nil {
		return
	}

	visibility := "private"
	if result.Playlist.Public {
		visibility = "public"
	}
	r.writePlainln("🎉 Done! Your %s playlist '%s' has been created on Spotify.", visibility, result.Playlist.Name)
	if result.Playlist.URL != "" {
		r.writePlain("🎧 Playlist link: %s\n", result.Playlist.URL)
	}
}
