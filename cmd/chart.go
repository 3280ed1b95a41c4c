package main

import (
	"context"

	"github.com/desertthunder/chartlist/internal/chart"
	"github.com/desertthunder/chartlist/internal/formatter"
	"github.com/desertthunder/chartlist/internal/models"
	"github.com/urfave/cli/v3"
)

// ChartShow resolves the chart for a date and prints or exports it. No Spotify account is needed.
func (r *Runner) ChartShow(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	outputFile := cmd.String("output")

	resolver, err := r.newResolver(r.logger)
	if err != nil {
		return err
	}

	res, err := r.resolveChart(ctx, r.newEngine(resolver, nil, r.logger), cmd.String("date"), true)
	if err != nil {
		return err
	}

	export := &formatter.ChartExport{
		Title:     r.config.Chart.Title,
		Requested: res.Requested.Format(models.DateLayout),
		Effective: res.Effective.Format(models.DateLayout),
		Origin:    res.Origin.String(),
		Entries:   res.Entries,
	}

	if outputFile != "" {
		path, err := formatter.WriteExport(export, format, outputFile)
		if err != nil {
			return err
		}

		r.logger.Infof("chart exported to %v with %v entries", path, len(export.Entries))
		r.writePlain("✓ Chart exported to %s\n", path)
		r.writePlain("  Chart date: %s\n", export.Effective)
		r.writePlain("  Entries: %d\n", len(export.Entries))
		return nil
	}

	data, err := formatter.Export(export, format)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// ChartDates prints how a date is normalized and which chart dates a fallback search would probe.
func (r *Runner) ChartDates(ctx context.Context, cmd *cli.Command) error {
	day, err := chart.ParseDate(cmd.String("date"))
	if err != nil {
		return err
	}

	cfg := r.config.Chart
	weekday, err := cfg.Weekday()
	if err != nil {
		return err
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = chart.DefaultMaxAttempts
	}
	stepDays := cfg.StepDays
	if stepDays <= 0 {
		stepDays = chart.DefaultStepDays
	}
	minComplete := cfg.MinComplete
	if minComplete <= 0 {
		minComplete = chart.DefaultMinComplete
	}

	normalized := chart.Normalize(day, weekday)
	dates := chart.ProbeDates(day, weekday, maxAttempts, stepDays)

	r.writePlainHeader("Chart dates for " + day.Format(models.DateLayout))
	r.writePlain("Requested:   %s (%s)\n", day.Format(models.DateLayout), day.Weekday())
	r.writePlain("Normalized:  %s (%s)\n", normalized.Format(models.DateLayout), normalized.Weekday())
	r.writePlain("Complete at: %d entries\n", minComplete)
	r.writePlainln("Probe order (%d attempts, %d day steps):", maxAttempts, stepDays)
	for i, d := range dates {
		r.writePlain("%d. %s\n", i+1, d.Format(models.DateLayout))
	}

	return nil
}
