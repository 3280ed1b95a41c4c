package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chartlist/internal/models"
	"github.com/desertthunder/chartlist/internal/services"
	"github.com/desertthunder/chartlist/internal/shared"
)

// DefaultBatchSize is the number of tracks added per request.
const DefaultBatchSize = 100

// PlaylistBuilder creates a playlist and fills it with tracks.
type PlaylistBuilder struct {
	catalog   services.Catalog
	logger    *log.Logger
	batchSize int
	onBatch   func(added, total int)
}

// NewPlaylistBuilder creates a [PlaylistBuilder] over catalog.
func NewPlaylistBuilder(catalog services.Catalog, logger *log.Logger) *PlaylistBuilder {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PlaylistBuilder{catalog: catalog, logger: logger, batchSize: DefaultBatchSize}
}

// Build creates the playlist described by req and adds its tracks in order.
//
// When adding fails the created playlist is still returned alongside the error.
func (b *PlaylistBuilder) Build(ctx context.Context, req models.PlaylistRequest) (*models.Playlist, error) {
	if len(req.TrackIDs) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrEmptyPlaylist, req.Name)
	}

	playlist, err := b.catalog.CreatePlaylist(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}
	b.logger.Info("playlist created", "id", playlist.ID, "name", playlist.Name)

	total := len(req.TrackIDs)
	for start := 0; start < total; start += b.batchSize {
		end := min(start+b.batchSize, total)
		if err := b.catalog.AddTracks(ctx, playlist.ID, req.TrackIDs[start:end]); err != nil {
			playlist.TrackCount = start
			return playlist, fmt.Errorf("failed to add tracks to playlist %s: %w", playlist.ID, err)
		}
		if b.onBatch != nil {
			b.onBatch(end, total)
		}
	}

	playlist.TrackCount = total
	return playlist, nil
}
