package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/chartlist/internal/models"
)

// Session is an authenticated Spotify catalog bound to the current user.
//
// It satisfies [Catalog] so playlist creation needs no explicit owner.
type Session struct {
	svc  *SpotifyService
	user *SpotifyUser
}

// OpenSession resolves the current user's profile once and binds it to svc.
func OpenSession(ctx context.Context, svc *SpotifyService) (*Session, error) {
	user, err := svc.UserProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load user profile: %w", err)
	}
	return &Session{svc: svc, user: user}, nil
}

func (s *Session) Name() string { return s.svc.Name() }

// UserID returns the Spotify ID of the session owner.
func (s *Session) UserID() string { return s.user.ID }

// DisplayName returns the profile display name, or the ID when none is set.
func (s *Session) DisplayName() string {
	if s.user.DisplayName != "" {
		return s.user.DisplayName
	}
	return s.user.ID
}

func (s *Session) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	return s.svc.SearchTracks(ctx, query, limit)
}

func (s *Session) CreatePlaylist(ctx context.Context, req models.PlaylistRequest) (*models.Playlist, error) {
	return s.svc.CreatePlaylist(ctx, s.user.ID, req)
}

func (s *Session) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	return s.svc.AddTracks(ctx, playlistID, uris)
}

var _ Catalog = (*Session)(nil)
