// Package services defines the [Service] interface for playback sources and implements it for Spotify and for a
// deployed instance of the proxy itself.
//
// # Spotify Implementation
//
// [SpotifyService] authenticates every call with a refresh-token exchange through [oauth2.Config.TokenSource],
// using HTTP Basic client authentication. A new token source is built per call, so access tokens live exactly
// as long as one [SpotifyService.NowPlaying] call.
//
// The playback query then maps the upstream body through [Normalize]:
//   - 204 or an empty body: nothing is playing
//   - any other non-success status: reported as nothing playing (intentionally lossy)
//   - success: decoded into [CurrentlyPlaying] and normalized
//
// # Proxy Implementation
//
// [APIService] reads the already-normalized snapshot from a running proxy. The CLI uses it so that a terminal
// can follow playback without holding Spotify credentials.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.UpstreamAuthError] : token endpoint returned non-2xx
//   - [shared.UpstreamPlaybackError] : playback endpoint returned non-success (swallowed by NowPlaying)
//   - [shared.ErrAPIRequest] : proxy request failed
package services
