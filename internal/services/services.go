// package services defines the catalog interfaces used by the tasks package
package services

import (
	"context"

	"github.com/desertthunder/chartlist/internal/models"
	"golang.org/x/oauth2"
)

// Catalog is the authenticated catalog surface a chart run needs.
type Catalog interface {
	// SearchTracks runs a catalog search and returns at most limit tracks, best first.
	// No results is an empty slice and a nil error.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)

	// CreatePlaylist creates an empty playlist for the session user.
	CreatePlaylist(ctx context.Context, req models.PlaylistRequest) (*models.Playlist, error)

	// AddTracks appends track URIs to a playlist, preserving order.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService is implemented by services that authenticate with the OAuth2 authorization code flow.
type OAuthService interface {
	GetAuthURL(state string) string
	GetOAuthConfig() *oauth2.Config
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}
