// Package services defines the [Provider] interface for the music-streaming
// API and implements it for Spotify.
//
// # Provider Interface
//
// Handlers and the pipeline depend on [Provider] rather than on the concrete
// client, so tests substitute doubles without touching the network.
//
// # Spotify Implementation
//
// [SpotifyService] uses [oauth2] for the authorization-code flow. A token is
// never stored on the shared service; request handlers bind the session's
// token with [SpotifyService.WithToken] and the bound copy performs the
// calls. Explicit [SpotifyService.Refresh] exists so the auth gate can
// refresh lazily and persist the replacement token exactly once.
//
// Every outbound call carries the request context and a 15 second client
// timeout, and passes through a [rate.Limiter] before hitting the network.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : no token bound
//   - [shared.ErrTokenExpired] : provider returned 401, reauthorization needed
//   - [shared.ErrRefreshFailed] : refresh rejected, force re-login
//   - [shared.ErrAPIRequest] : request rejected with a non-2xx status
//   - [shared.ErrServiceUnavailable] : transport-level failure
//
// # API Mappings
//
// Wire types mirror the documented Spotify JSON and are converted to the
// transient types in models: [SpotifyArtist] → [models.Artist],
// [SpotifyTrack] → [models.Track] (primary artist flattened),
// [SpotifySimplePlaylist] → [models.Playlist].
package services
