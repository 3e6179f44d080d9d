// Package services defines the [PlaylistCreator] interface and implements it for the Spotify Web API.
//
// # Playlist Creation
//
// [SpotifyService.CreatePlaylist] issues three sequential calls and never retries:
//   - GET /me resolves the user that owns the credential
//   - POST /users/{id}/playlists creates the playlist
//   - POST /playlists/{id}/tracks?uris=... attaches every track in one call
//
// The bearer credential is bound at construction through an [oauth2.Transport] backed by a static token source.
// An optional [rate.Limiter] paces the calls.
//
// # Error Handling
//
// Every remote failure is a [*StepError] naming the step that failed:
//   - [shared.ErrAPIRequest] : matched by every StepError
//   - [shared.ErrTokenExpired] : additionally matched when the API answered 401
//   - [shared.ErrInvalidInput] : no track references given, nothing was sent
//   - [shared.ErrMissingCredentials] : no token at construction
//
// With RollbackOnFailure set, a failed attach step unfollows the new playlist so no empty playlist is left behind.
// Otherwise the partially created playlist is returned together with the error.
//
// # Authorization
//
// [NewAuthConfig] builds the [oauth2.Config] used by the local callback server to obtain the access token.
package services
