// Package services implements the Spotify Web API client used to match chart entries and build playlists.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication with automatic token refresh.
// The [oauth2.Client] refreshes expired tokens using the refresh token; [SpotifyService.SetTokenRefreshCallback]
// lets the caller persist every new token (the CLI writes it back to config.toml).
// Requests are throttled with a [rate.Limiter].
//
// # Session
//
// [Session] is the authenticated catalog handle for one run. It is opened once with [OpenSession],
// which resolves the current user, and is passed explicitly to the matcher and the playlist builder.
// There is no package-level client.
//
// # OAuth Service Extension
//
// The [OAuthService] interface exposes what the CLI needs for the authorization code flow
// (auth URL, oauth2 config, token installation). [SpotifyService] implements it.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : 401 from the API or a failed refresh, reauthorization needed
//   - [shared.ErrAPIRequest] : any other non-2xx response
//   - [shared.ErrTrackNotFound] : malformed search response
//
// An empty search result is not an error; [SpotifyService.SearchTracks] returns an empty slice.
package services
