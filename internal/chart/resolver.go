package chart

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chartlist/internal/models"
	"github.com/desertthunder/chartlist/internal/shared"
)

// Resolver defaults.
const (
	DefaultMinComplete = 80
	DefaultMaxAttempts = 14
	DefaultStepDays    = 1
)

// Origin tells whether a [Resolution] used the requested chart or a fallback.
type Origin int

const (
	OriginRequested Origin = iota // chart at the normalized requested date
	OriginFallback                // an earlier chart found by the backward search
)

func (o Origin) String() string {
	switch o {
	case OriginRequested:
		return "requested"
	case OriginFallback:
		return "fallback"
	default:
		return ""
	}
}

// Probe records one chart fetch made while resolving.
type Probe struct {
	Date   time.Time
	Count  int
	Status int
}

// Resolution is the chart chosen for a requested date.
type Resolution struct {
	Requested  time.Time           // date as entered
	Normalized time.Time           // Requested moved back to the publication day
	Effective  time.Time           // date of the returned chart
	Entries    []models.ChartEntry // entries of the returned chart
	Origin     Origin
	Adjusted   bool    // Normalized differs from Requested
	Probes     []Probe // every fetch, in order
}

// Year returns the year of the effective chart, used to scope catalog searches.
func (r *Resolution) Year() int {
	return r.Effective.Year()
}

// NoValidChartError is returned when no probed chart had enough entries.
type NoValidChartError struct {
	From     time.Time
	Attempts int
	StepDays int
	Best     Probe
	Probes   []Probe
}

func (e *NoValidChartError) Error() string {
	return fmt.Sprintf("%v: tried %d steps of %d days back from %s, largest chart had %d entries (%s)",
		shared.ErrNoValidChart, e.Attempts, e.StepDays, e.From.Format(models.DateLayout), e.Best.Count, e.Best.Date.Format(models.DateLayout))
}

func (e *NoValidChartError) Unwrap() error {
	return shared.ErrNoValidChart
}

// Resolver finds the nearest complete chart for a date.
type Resolver struct {
	source      Source
	weekday     time.Weekday
	minComplete int
	maxAttempts int
	stepDays    int
	logger      *log.Logger
	onProbe     func(Probe)
}

// ResolverOpts configures a [Resolver]. Zero values fall back to the package defaults
// (Saturday, 80 entries, 14 attempts, 1 day steps).
type ResolverOpts struct {
	Source      Source
	Weekday     *time.Weekday
	MinComplete int
	MaxAttempts int
	StepDays    int
	Logger      *log.Logger
	OnProbe     func(Probe) // called after every fetch
}

// NewResolver creates a [Resolver] over opts.Source.
func NewResolver(opts ResolverOpts) *Resolver {
	weekday := time.Saturday
	if opts.Weekday != nil {
		weekday = *opts.Weekday
	}
	if opts.MinComplete <= 0 {
		opts.MinComplete = DefaultMinComplete
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.StepDays <= 0 {
		opts.StepDays = DefaultStepDays
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Resolver{
		source:      opts.Source,
		weekday:     weekday,
		minComplete: opts.MinComplete,
		maxAttempts: opts.MaxAttempts,
		stepDays:    opts.StepDays,
		logger:      opts.Logger,
		onProbe:     opts.OnProbe,
	}
}

// Weekday returns the publication weekday.
func (r *Resolver) Weekday() time.Weekday { return r.weekday }

// MinComplete returns the completeness threshold.
func (r *Resolver) MinComplete() int { return r.minComplete }

// Resolve parses requested (YYYY-MM-DD) and resolves it with [Resolver.ResolveDate].
func (r *Resolver) Resolve(ctx context.Context, requested string) (*Resolution, error) {
	day, err := ParseDate(requested)
	if err != nil {
		return nil, err
	}
	return r.ResolveDate(ctx, day)
}

// ResolveDate returns the chart at the publication date on or before day when it is complete,
// or else the first complete chart found stepping backward.
func (r *Resolver) ResolveDate(ctx context.Context, day time.Time) (*Resolution, error) {
	if r.source == nil {
		return nil, fmt.Errorf("%w: chart source not initialized", shared.ErrServiceUnavailable)
	}

	normalized := Normalize(day, r.weekday)
	res := &Resolution{
		Requested:  day,
		Normalized: normalized,
		Adjusted:   !normalized.Equal(day),
	}

	fetched := make(map[string]models.ChartSnapshot)
	var best Probe
	probe := normalized

	for range r.maxAttempts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		target := Normalize(probe, r.weekday)
		key := target.Format(models.DateLayout)
		snapshot, seen := fetched[key]
		if !seen {
			snapshot = r.fetch(ctx, target)
			fetched[key] = snapshot
			p := Probe{Date: target, Count: snapshot.Len(), Status: snapshot.Status}
			res.Probes = append(res.Probes, p)
			if p.Count > best.Count || best.Date.IsZero() {
				best = p
			}
		}

		if snapshot.Len() >= r.minComplete {
			res.Effective = target
			res.Entries = snapshot.Entries
			if !target.Equal(normalized) {
				res.Origin = OriginFallback
			}
			return res, nil
		}

		probe = probe.AddDate(0, 0, -r.stepDays)
	}

	return nil, &NoValidChartError{
		From:     normalized,
		Attempts: r.maxAttempts,
		StepDays: r.stepDays,
		Best:     best,
		Probes:   res.Probes,
	}
}

func (r *Resolver) fetch(ctx context.Context, date time.Time) models.ChartSnapshot {
	snapshot := r.source.Fetch(ctx, date)
	snapshot.Date = date

	r.logger.Debug("probed chart", "date", date.Format(models.DateLayout), "entries", snapshot.Len())
	if r.onProbe != nil {
		r.onProbe(Probe{Date: date, Count: snapshot.Len(), Status: snapshot.Status})
	}

	return snapshot
}
