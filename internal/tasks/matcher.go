package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chartlist/internal/models"
	"github.com/desertthunder/chartlist/internal/services"
	"github.com/desertthunder/chartlist/internal/shared"
)

// Matcher resolves chart entries to catalog tracks.
type Matcher struct {
	catalog services.Catalog
	logger  *log.Logger
}

// NewMatcher creates a [Matcher] searching catalog.
func NewMatcher(catalog services.Catalog, logger *log.Logger) *Matcher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Matcher{catalog: catalog, logger: logger}
}

// Query builds the catalog search for entry, scoped to year when it is positive.
func Query(entry models.ChartEntry, year int) string {
	if year <= 0 {
		return fmt.Sprintf("track:%s artist:%s", entry.Title, entry.Artist)
	}
	return fmt.Sprintf("track:%s artist:%s year:%d", entry.Title, entry.Artist, year)
}

// Match looks up entry and returns the top result.
//
// Empty or malformed result sets are a plain miss. Any other failure is logged and kept on the result.
func (m *Matcher) Match(ctx context.Context, entry models.ChartEntry, year int) models.MatchResult {
	tracks, err := m.catalog.SearchTracks(ctx, Query(entry, year), 1)
	if err != nil {
		if errors.Is(err, shared.ErrTrackNotFound) {
			return models.NotFound(entry, nil)
		}
		m.logger.Warn("search failed", "entry", entry.String(), "error", err)
		return models.NotFound(entry, err)
	}

	if len(tracks) == 0 || tracks[0].URI == "" {
		m.logger.Debug("no match", "entry", entry.String())
		return models.NotFound(entry, nil)
	}

	return models.Found(entry, tracks[0])
}

// MatchAll matches entries one at a time in order, calling onMatch after each.
//
// It stops early only when ctx is done, returning the results gathered so far with ctx.Err().
func (m *Matcher) MatchAll(ctx context.Context, entries []models.ChartEntry, year int, onMatch func(i int, result models.MatchResult)) ([]models.MatchResult, error) {
	results := make([]models.MatchResult, 0, len(entries))
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := m.Match(ctx, entry, year)
		results = append(results, result)
		if onMatch != nil {
			onMatch(i, result)
		}
	}
	return results, nil
}

// CountFound returns the number of found results.
func CountFound(results []models.MatchResult) int {
	n := 0
	for _, r := range results {
		if r.Found() {
			n++
		}
	}
	return n
}

// URIs returns the URIs of the found results, in order.
func URIs(results []models.MatchResult) []string {
	uris := make([]string, 0, len(results))
	for _, r := range results {
		if r.Found() {
			uris = append(uris, r.URI())
		}
	}
	return uris
}
