package chart

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chartlist/internal/models"
	"github.com/desertthunder/chartlist/internal/shared"
	"golang.org/x/time/rate"
)

// Source returns the chart published for a date.
//
// Implementations never return an error: any failure yields a snapshot with no entries.
type Source interface {
	Fetch(ctx context.Context, date time.Time) models.ChartSnapshot
}

// SourceFunc adapts a function to [Source].
type SourceFunc func(ctx context.Context, date time.Time) models.ChartSnapshot

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, date time.Time) models.ChartSnapshot {
	return f(ctx, date)
}

// BillboardSource fetches chart pages over HTTP, one GET per date.
type BillboardSource struct {
	baseURL         string
	userAgent       string
	legacyThreshold int
	httpClient      *http.Client
	limiter         *rate.Limiter
	logger          *log.Logger
}

// SourceOpts configures a [BillboardSource]. Zero values fall back to defaults.
type SourceOpts struct {
	BaseURL         string
	UserAgent       string
	LegacyThreshold int
	RateLimit       float64 // requests per second, 0 disables throttling
	HTTPClient      *http.Client
	Logger          *log.Logger
}

// NewBillboardSource creates a [BillboardSource].
func NewBillboardSource(opts SourceOpts) *BillboardSource {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://www.billboard.com/charts/hot-100"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0"
	}
	if opts.LegacyThreshold <= 0 {
		opts.LegacyThreshold = DefaultLegacyThreshold
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &BillboardSource{
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		userAgent:       opts.UserAgent,
		legacyThreshold: opts.LegacyThreshold,
		httpClient:      opts.HTTPClient,
		limiter:         limiter,
		logger:          opts.Logger,
	}
}

// URL returns the chart page URL for date.
func (s *BillboardSource) URL(date time.Time) string {
	return s.baseURL + "/" + date.Format(models.DateLayout) + "/"
}

// Fetch downloads and parses the chart page for date.
func (s *BillboardSource) Fetch(ctx context.Context, date time.Time) models.ChartSnapshot {
	snapshot := models.ChartSnapshot{Date: date}
	logger := shared.WithLogger(s.logger, "date", snapshot.DateString())

	if err := s.limiter.Wait(ctx); err != nil {
		logger.Warn("chart fetch cancelled", "error", err)
		return snapshot
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(date), nil)
	if err != nil {
		logger.Warn("failed to create chart request", "error", err)
		return snapshot
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.Warn("chart request failed", "error", err)
		return snapshot
	}
	defer resp.Body.Close()

	snapshot.Status = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		logger.Warn("failed to fetch chart", "status", resp.StatusCode)
		return snapshot
	}

	entries, err := ParseChart(resp.Body, s.legacyThreshold)
	if err != nil {
		logger.Warn("failed to parse chart", "error", err)
		return snapshot
	}

	snapshot.Entries = entries
	logger.Debug("chart fetched", "entries", len(entries))
	return snapshot
}
