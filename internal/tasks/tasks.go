// package tasks implements the chart-to-playlist pipeline.
//
// The core abstraction is ChartEngine, which resolves a chart for a date and turns it into a playlist.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chartlist/internal/chart"
	"github.com/desertthunder/chartlist/internal/formatter"
	"github.com/desertthunder/chartlist/internal/models"
	"github.com/desertthunder/chartlist/internal/services"
	"github.com/desertthunder/chartlist/internal/shared"
)

// Engine defaults.
const (
	DefaultChartName  = "Billboard"
	DefaultChartTitle = "Billboard Hot 100"
	DefaultReportPath = "not_found_songs.txt"
)

// RunOptions controls a single [ChartEngine.Run].
type RunOptions struct {
	Public     bool   // create a public playlist
	DryRun     bool   // match only, never create a playlist
	ReportPath string // unmatched report file (default not_found_songs.txt)
}

// ChartRunResult contains all data from a chart run.
type ChartRunResult struct {
	Resolution      *chart.Resolution       // Chart the run was built from
	Matches         []models.MatchResult    // One result per chart entry, in chart order
	FoundCount      int                     // Number of entries matched
	NotFoundCount   int                     // Number of entries not matched
	TotalEntries    int                     // Total entries processed
	MatchPercentage float64                 // Success rate as percentage
	ReportPath      string                  // Report file, empty when nothing was written
	ReportCount     int                     // Entries written to the report
	Request         *models.PlaylistRequest // Request built from the matches (nil when nothing matched)
	Playlist        *models.Playlist        // Created playlist (nil on dry runs)
}

// ChartEngine orchestrates a chart run.
// Contains dependencies on the chart resolver and the catalog session.
type ChartEngine struct {
	resolver   *chart.Resolver
	catalog    services.Catalog
	matcher    *Matcher
	builder    *PlaylistBuilder
	logger     *log.Logger
	chartName  string
	chartTitle string
}

// EngineOpts configures a [ChartEngine]. Catalog may be nil for resolve-only use.
type EngineOpts struct {
	Resolver   *chart.Resolver
	Catalog    services.Catalog
	Logger     *log.Logger
	ChartName  string // used in the playlist name
	ChartTitle string // used in the playlist description
}

// NewChartEngine creates a new ChartEngine with the provided collaborators.
func NewChartEngine(opts EngineOpts) *ChartEngine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.ChartName == "" {
		opts.ChartName = DefaultChartName
	}
	if opts.ChartTitle == "" {
		opts.ChartTitle = DefaultChartTitle
	}

	e := &ChartEngine{
		resolver:   opts.Resolver,
		catalog:    opts.Catalog,
		logger:     opts.Logger,
		chartName:  opts.ChartName,
		chartTitle: opts.ChartTitle,
	}
	if opts.Catalog != nil {
		e.matcher = NewMatcher(opts.Catalog, opts.Logger)
		e.builder = NewPlaylistBuilder(opts.Catalog, opts.Logger)
	}
	return e
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ChartEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Resolve finds the chart for date (YYYY-MM-DD).
func (e *ChartEngine) Resolve(ctx context.Context, date string, progress chan<- ProgressUpdate) (*chart.Resolution, error) {
	if e.resolver == nil {
		return nil, fmt.Errorf("%w: chart resolver not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, resolvingUpdate(date))

	res, err := e.resolver.Resolve(ctx, date)
	if err != nil {
		var nvc *chart.NoValidChartError
		if errors.As(err, &nvc) {
			e.sendProbes(progress, nvc.Probes)
		}
		return nil, err
	}

	e.sendProbes(progress, res.Probes)
	e.sendProgress(progress, resolvedUpdate(res))
	return res, nil
}

func (e *ChartEngine) sendProbes(progress chan<- ProgressUpdate, probes []chart.Probe) {
	for i, probe := range probes {
		e.sendProgress(progress, probeUpdate(i+1, len(probes), probe))
	}
}

// PlaylistName returns the playlist name for res, e.g. "2024-07-13 Billboard 100".
func (e *ChartEngine) PlaylistName(res *chart.Resolution) string {
	return fmt.Sprintf("%s %s 100", res.Effective.Format(models.DateLayout), e.chartName)
}

// PlaylistDescription describes the chart a playlist was built from.
func (e *ChartEngine) PlaylistDescription(res *chart.Resolution) string {
	return fmt.Sprintf("%s on %s (requested: %s)",
		e.chartTitle, res.Effective.Format(models.DateLayout), res.Requested.Format(models.DateLayout))
}

// Run matches every entry of res and builds the playlist.
//
// The unmatched report is written before the zero-match check, so a run with no matches
// still leaves a full report behind and returns [shared.ErrNoMatches] with the result.
func (e *ChartEngine) Run(ctx context.Context, res *chart.Resolution, opts RunOptions, progress chan<- ProgressUpdate) (*ChartRunResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	if res == nil {
		return nil, fmt.Errorf("%w: no chart resolved", shared.ErrMissingArgument)
	}
	if opts.ReportPath == "" {
		opts.ReportPath = DefaultReportPath
	}

	total := len(res.Entries)
	result := &ChartRunResult{Resolution: res, TotalEntries: total}
	logger := shared.WithLogger(e.logger, "chart", res.Effective.Format(models.DateLayout))

	e.sendProgress(progress, searchTracksUpdate(total))

	matches, err := e.matcher.MatchAll(ctx, res.Entries, res.Year(), func(i int, r models.MatchResult) {
		e.sendProgress(progress, matchResultUpdate(i+1, total, r))
	})
	result.Matches = matches
	if err != nil {
		return result, fmt.Errorf("%w: %w", shared.ErrCancelled, err)
	}

	result.FoundCount = CountFound(matches)
	result.NotFoundCount = total - result.FoundCount
	if total > 0 {
		result.MatchPercentage = float64(result.FoundCount) / float64(total) * 100
	}
	logger.Info("matching finished", "found", result.FoundCount, "total", total)

	n, err := formatter.WriteUnmatchedReport(opts.ReportPath, matches)
	if err != nil {
		return result, err
	}
	if n > 0 {
		result.ReportPath = opts.ReportPath
		result.ReportCount = n
		e.sendProgress(progress, reportUpdate(opts.ReportPath, n))
	}

	if result.FoundCount == 0 {
		return result, fmt.Errorf("%w: none of %d entries were found", shared.ErrNoMatches, total)
	}

	req := models.PlaylistRequest{
		Name:        e.PlaylistName(res),
		Description: e.PlaylistDescription(res),
		Public:      opts.Public,
		TrackIDs:    URIs(matches),
	}
	result.Request = &req

	if opts.DryRun {
		logger.Info("dry run, playlist not created", "name", req.Name, "tracks", len(req.TrackIDs))
		return result, nil
	}

	e.sendProgress(progress, createPlaylistUpdate(req.Name))

	e.builder.onBatch = func(added, total int) {
		e.sendProgress(progress, addTracksUpdate(added, total))
	}
	playlist, err := e.builder.Build(ctx, req)
	e.builder.onBatch = nil
	result.Playlist = playlist
	if err != nil {
		return result, err
	}

	e.sendProgress(progress, playlistCreatedUpdate(playlist))
	return result, nil
}

// Matcher returns the engine's matcher, nil when no catalog is configured.
func (e *ChartEngine) Matcher() *Matcher { return e.matcher }
