package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/chartlist/internal/models"
	"github.com/desertthunder/chartlist/internal/shared"
	"golang.org/x/oauth2"
)

func testCredentials() map[string]string {
	return map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	}
}

// newTestService returns an authenticated service pointed at handler.
func newTestService(t *testing.T, handler http.Handler) *SpotifyService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	srv, err := NewSpotifyService(testCredentials())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	srv.baseURL = server.URL

	if err := srv.Authenticate(context.Background(), map[string]string{"access_token": "test_access_token"}); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	return srv
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			credentials := testCredentials()
			credentials["redirect_uri"] = "http://localhost:8080/callback"

			srv, err := NewSpotifyService(credentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
			if srv.config.RedirectURL != "http://localhost:8080/callback" {
				t.Errorf("expected configured redirect URI, got %s", srv.config.RedirectURL)
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_secret": "test_client_secret"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_id": "test_client_id"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			srv, err := NewSpotifyService(testCredentials())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.config.RedirectURL != "http://127.0.0.1:3000/callback" {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})

		t.Run("Requests playlist scopes", func(t *testing.T) {
			srv, _ := NewSpotifyService(testCredentials())
			scopes := strings.Join(srv.config.Scopes, " ")
			for _, want := range []string{"playlist-modify-private", "playlist-modify-public"} {
				if !strings.Contains(scopes, want) {
					t.Errorf("expected scope %s in %q", want, scopes)
				}
			}
		})

		t.Run("Rate limit from credentials", func(t *testing.T) {
			credentials := testCredentials()
			credentials["rate_limit"] = "5"

			srv, err := NewSpotifyService(credentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if float64(srv.limiter.Limit()) != 5 {
				t.Errorf("expected limit 5, got %v", srv.limiter.Limit())
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		authURL := srv.GetAuthURL("test_state")
		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Error("auth URL should contain Spotify domain")
		}
		if !strings.Contains(authURL, "test_client_id") {
			t.Error("auth URL should contain client_id")
		}
		if !strings.Contains(authURL, "test_state") {
			t.Error("auth URL should contain state")
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("WithAccessToken", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{
				"access_token":  "test_access_token",
				"refresh_token": "test_refresh_token",
			})
			if err != nil {
				t.Errorf("expected no error with access token, got %v", err)
			}

			if srv.token == nil || srv.token.AccessToken != "test_access_token" {
				t.Fatalf("expected access token to be set, got %+v", srv.token)
			}
			if srv.token.RefreshToken != "test_refresh_token" {
				t.Errorf("expected refresh token to be kept, got %s", srv.token.RefreshToken)
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Empty token", func(t *testing.T) {
			err := srv.OAuthenticate(context.Background(), &oauth2.Token{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("Requests before authentication", func(t *testing.T) {
		srv, _ := NewSpotifyService(testCredentials())

		_, err := srv.SearchTracks(context.Background(), "track:x", 1)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Service Interfaces", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		var _ OAuthService = srv
	})

	t.Run("SearchTracks", func(t *testing.T) {
		t.Run("returns tracks with joined artists", func(t *testing.T) {
			var gotQuery, gotLimit, gotAuth string
			srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.Query().Get("q")
				gotLimit = r.URL.Query().Get("limit")
				gotAuth = r.Header.Get("Authorization")
				if r.URL.Path != "/search" || r.URL.Query().Get("type") != "track" {
					t.Errorf("unexpected request %s", r.URL)
				}

				writeJSON(t, w, map[string]any{
					"tracks": map[string]any{
						"total": 1,
						"items": []map[string]any{{
							"id":          "abc",
							"name":        "Blinding Lights",
							"uri":         "spotify:track:abc",
							"duration_ms": 200040,
							"artists":     []map[string]any{{"name": "The Weeknd"}, {"name": "Guest"}},
							"album":       map[string]any{"name": "After Hours", "release_date": "2020-03-20"},
						}},
					},
				})
			}))

			tracks, err := srv.SearchTracks(context.Background(), "track:Blinding Lights artist:The Weeknd year:2020", 1)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if gotQuery != "track:Blinding Lights artist:The Weeknd year:2020" {
				t.Errorf("unexpected query %q", gotQuery)
			}
			if gotLimit != "1" {
				t.Errorf("expected limit 1, got %s", gotLimit)
			}
			if gotAuth != "Bearer test_access_token" {
				t.Errorf("expected bearer token, got %q", gotAuth)
			}

			if len(tracks) != 1 {
				t.Fatalf("expected 1 track, got %d", len(tracks))
			}
			if tracks[0].URI != "spotify:track:abc" {
				t.Errorf("expected URI spotify:track:abc, got %s", tracks[0].URI)
			}
			if tracks[0].Artist != "The Weeknd, Guest" {
				t.Errorf("expected joined artists, got %s", tracks[0].Artist)
			}
			if tracks[0].Duration != 200 {
				t.Errorf("expected duration 200, got %d", tracks[0].Duration)
			}
		})

		t.Run("no results is empty", func(t *testing.T) {
			srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, map[string]any{"tracks": map[string]any{"items": []any{}}})
			}))

			tracks, err := srv.SearchTracks(context.Background(), "track:nothing", 1)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(tracks) != 0 {
				t.Errorf("expected no tracks, got %d", len(tracks))
			}
		})

		t.Run("malformed body is not found", func(t *testing.T) {
			srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "{not json")
			}))

			_, err := srv.SearchTracks(context.Background(), "track:x", 1)
			if !errors.Is(err, shared.ErrTrackNotFound) {
				t.Errorf("expected ErrTrackNotFound, got %v", err)
			}
		})

		t.Run("unauthorized is token expired", func(t *testing.T) {
			srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"error":{"status":401,"message":"The access token expired"}}`)
			}))

			_, err := srv.SearchTracks(context.Background(), "track:x", 1)
			if !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired, got %v", err)
			}
			if err != nil && !strings.Contains(err.Error(), "The access token expired") {
				t.Errorf("expected API message in error, got %v", err)
			}
		})

		t.Run("server error is API request error", func(t *testing.T) {
			srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))

			_, err := srv.SearchTracks(context.Background(), "track:x", 1)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		var got createPlaylistBody
		var gotPath string
		srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("failed to decode body: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
			writeJSON(t, w, map[string]any{
				"id":            "pl1",
				"name":          got.Name,
				"description":   got.Description,
				"public":        got.Public,
				"external_urls": map[string]string{"spotify": "https://open.spotify.com/playlist/pl1"},
			})
		}))

		playlist, err := srv.CreatePlaylist(context.Background(), "user1", models.PlaylistRequest{
			Name:        "2024-07-13 Billboard 100",
			Description: "Billboard Hot 100 on 2024-07-13",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if gotPath != "/users/user1/playlists" {
			t.Errorf("unexpected path %s", gotPath)
		}
		if got.Public {
			t.Error("expected private playlist")
		}
		if playlist.ID != "pl1" {
			t.Errorf("expected ID pl1, got %s", playlist.ID)
		}
		if playlist.URL != "https://open.spotify.com/playlist/pl1" {
			t.Errorf("unexpected URL %s", playlist.URL)
		}
		if playlist.Name != "2024-07-13 Billboard 100" {
			t.Errorf("unexpected name %s", playlist.Name)
		}

		t.Run("requires user", func(t *testing.T) {
			_, err := srv.CreatePlaylist(context.Background(), "", models.PlaylistRequest{Name: "x"})
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("AddTracks", func(t *testing.T) {
		var mu sync.Mutex
		var batches [][]string
		srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists/pl1/tracks" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var body addTracksBody
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("failed to decode body: %v", err)
			}
			mu.Lock()
			batches = append(batches, body.URIs)
			mu.Unlock()
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"snapshot_id":"s"}`)
		}))

		uris := make([]string, 150)
		for i := range uris {
			uris[i] = fmt.Sprintf("spotify:track:%03d", i)
		}

		if err := srv.AddTracks(context.Background(), "pl1", uris); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(batches) != 2 {
			t.Fatalf("expected 2 batches, got %d", len(batches))
		}
		if len(batches[0]) != 100 || len(batches[1]) != 50 {
			t.Errorf("expected batches of 100 and 50, got %d and %d", len(batches[0]), len(batches[1]))
		}
		if batches[0][0] != "spotify:track:000" || batches[1][49] != "spotify:track:149" {
			t.Error("expected order to be preserved")
		}
	})

	t.Run("SetTokenRefreshCallback", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("sets callback successfully", func(t *testing.T) {
			srv.SetTokenRefreshCallback(func(token *oauth2.Token) {})
			if srv.onTokenRefresh == nil {
				t.Error("expected callback to be set")
			}
		})

		t.Run("can set nil callback", func(t *testing.T) {
			srv.SetTokenRefreshCallback(nil)
			if srv.onTokenRefresh != nil {
				t.Error("expected callback to be nil")
			}
		})
	})

	t.Run("refreshableTokenSource", func(t *testing.T) {
		t.Run("calls callback on first token fetch", func(t *testing.T) {
			var capturedToken *oauth2.Token

			source := &refreshableTokenSource{
				source: &mockTokenSource{token: &oauth2.Token{AccessToken: "test_token"}},
				callback: func(token *oauth2.Token) {
					capturedToken = token
				},
			}

			token, err := source.Token()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if capturedToken == nil || capturedToken.AccessToken != "test_token" {
				t.Errorf("expected captured token to be 'test_token', got %+v", capturedToken)
			}
			if token.AccessToken != "test_token" {
				t.Errorf("expected returned token to be 'test_token', got %s", token.AccessToken)
			}
		})

		t.Run("calls callback when token changes", func(t *testing.T) {
			callCount := 0
			mockSource := &mockTokenSource{token: &oauth2.Token{AccessToken: "token1"}}

			source := &refreshableTokenSource{
				source:   mockSource,
				callback: func(token *oauth2.Token) { callCount++ },
			}

			_, _ = source.Token()
			if callCount != 1 {
				t.Errorf("expected callback called once, got %d", callCount)
			}

			mockSource.token = &oauth2.Token{AccessToken: "token2"}
			token2, _ := source.Token()

			if callCount != 2 {
				t.Errorf("expected callback called twice, got %d", callCount)
			}
			if token2.AccessToken != "token2" {
				t.Errorf("expected new token, got %s", token2.AccessToken)
			}
		})

		t.Run("skips callback for the installed token", func(t *testing.T) {
			callCount := 0
			source := &refreshableTokenSource{
				source:   &mockTokenSource{token: &oauth2.Token{AccessToken: "same_token"}},
				callback: func(token *oauth2.Token) { callCount++ },
				last:     "same_token",
			}

			_, _ = source.Token()
			_, _ = source.Token()

			if callCount != 0 {
				t.Errorf("expected no callback, got %d", callCount)
			}
		})

		t.Run("handles nil callback gracefully", func(t *testing.T) {
			source := &refreshableTokenSource{
				source: &mockTokenSource{token: &oauth2.Token{AccessToken: "test_token"}},
			}

			token, err := source.Token()
			if err != nil {
				t.Fatalf("expected no error with nil callback, got %v", err)
			}
			if token.AccessToken != "test_token" {
				t.Error("expected token to be returned despite nil callback")
			}
		})

		t.Run("propagates source errors", func(t *testing.T) {
			source := &refreshableTokenSource{
				source: &mockTokenSource{err: errors.New("token source error")},
				callback: func(token *oauth2.Token) {
					t.Error("callback should not be called on error")
				},
			}

			token, err := source.Token()
			if err == nil || !strings.Contains(err.Error(), "token source error") {
				t.Errorf("expected source error, got %v", err)
			}
			if token != nil {
				t.Error("expected nil token on error")
			}
		})
	})
}

func TestSession(t *testing.T) {
	var createdPath string
	srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me":
			writeJSON(t, w, map[string]any{"id": "user42", "display_name": ""})
		case "/users/user42/playlists":
			createdPath = r.URL.Path
			writeJSON(t, w, map[string]any{"id": "pl9", "name": "n"})
		default:
			http.NotFound(w, r)
		}
	}))

	session, err := OpenSession(context.Background(), srv)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if session.UserID() != "user42" {
		t.Errorf("expected user42, got %s", session.UserID())
	}
	if session.DisplayName() != "user42" {
		t.Errorf("expected display name to fall back to ID, got %s", session.DisplayName())
	}

	playlist, err := session.CreatePlaylist(context.Background(), models.PlaylistRequest{Name: "n"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if createdPath != "/users/user42/playlists" || playlist.ID != "pl9" {
		t.Errorf("expected playlist created for session user, got %s %s", createdPath, playlist.ID)
	}

	t.Run("profile failure", func(t *testing.T) {
		failing := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))

		_, err := OpenSession(context.Background(), failing)
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})
}

// mockTokenSource implements [oauth2.TokenSource] for testing
type mockTokenSource struct {
	token *oauth2.Token
	err   error
}

func (m *mockTokenSource) Token() (*oauth2.Token, error) {
	return m.token, m.err
}
