// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/get-the-users-currently-playing-track
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
	"golang.org/x/oauth2"
)

const maxBodySize = 1 << 20

type externalURLs struct {
	Spotify *string `json:"spotify"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    *string `json:"url"`
	Height int     `json:"height"`
	Width  int     `json:"width"`
}

// SpotifyArtist represents a (simplified) Spotify artist.
type SpotifyArtist struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	ExternalURLs *externalURLs `json:"external_urls"`
	URI          string        `json:"uri"`
}

// SpotifyAlbum represents a (simplified) Spotify album.
type SpotifyAlbum struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Artists []*SpotifyArtist `json:"artists"`
	Images  []*SpotifyImage  `json:"images"`
	URI     string           `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string           `json:"id"`
	Name         *string          `json:"name"`
	Artists      []*SpotifyArtist `json:"artists"`
	Album        *SpotifyAlbum    `json:"album"`
	DurationMS   int64            `json:"duration_ms"`
	ExternalURLs *externalURLs    `json:"external_urls"`
	URI          string           `json:"uri"`
}

// CurrentlyPlaying is the body of GET /me/player/currently-playing.
//
// Every nested object may be null, missing, or of another type; see [fields].
type CurrentlyPlaying struct {
	Timestamp            int64         `json:"timestamp"`
	ProgressMS           int64         `json:"progress_ms"`
	IsPlaying            bool          `json:"is_playing"`
	CurrentlyPlayingType string        `json:"currently_playing_type"`
	Item                 *SpotifyTrack `json:"item"`
}

// SpotifyService implements [Service] against the Spotify Web API.
//
// Every call to [SpotifyService.NowPlaying] performs its own refresh-token exchange. Access tokens are
// never cached or shared between calls.
type SpotifyService struct {
	config        *oauth2.Config
	refreshToken  string
	nowPlayingURL string
	httpClient    *http.Client
	logger        *log.Logger
}

// NewSpotifyService creates a new Spotify service from the configured client credential pair and refresh token.
func NewSpotifyService(creds shared.SpotifyConfig, client *http.Client, logger *log.Logger) (*SpotifyService, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}
	if creds.RefreshToken == "" {
		return nil, fmt.Errorf("%w: missing refresh_token", shared.ErrMissingCredentials)
	}
	for name, v := range map[string]string{"client_id": creds.ClientID, "client_secret": creds.ClientSecret} {
		if !unreserved(v) {
			return nil, fmt.Errorf("%w: %s may only contain A-Z a-z 0-9 - . _ ~", shared.ErrInvalidConfig, name)
		}
	}

	tokenURL := creds.TokenURL
	if tokenURL == "" {
		tokenURL = shared.SpotifyTokenURL
	}
	nowPlayingURL := creds.NowPlayingURL
	if nowPlayingURL == "" {
		nowPlayingURL = shared.SpotifyNowPlayingURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	// AuthStyleInHeader query-escapes both halves before base64, so the header equals
	// base64(client_id:client_secret) only for the unreserved characters checked above.
	config := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	return &SpotifyService{
		config:        config,
		refreshToken:  creds.RefreshToken,
		nowPlayingURL: nowPlayingURL,
		httpClient:    client,
		logger:        logger,
	}, nil
}

// unreserved reports whether v is made only of URL-unreserved characters.
func unreserved(v string) bool {
	for _, c := range v {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		case c == '-', c == '.', c == '_', c == '~':
		default:
			return false
		}
	}
	return true
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AccessToken exchanges the refresh token for a fresh access token.
//
// A non-2xx response from the token endpoint yields a [shared.UpstreamAuthError].
func (s *SpotifyService) AccessToken(ctx context.Context) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	token, err := s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: s.refreshToken}).Token()
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.Response != nil {
			return "", &shared.UpstreamAuthError{
				StatusCode: rErr.Response.StatusCode,
				Body:       string(rErr.Body),
				Err:        err,
			}
		}
		return "", fmt.Errorf("token exchange failed: %w", err)
	}

	if token.AccessToken == "" {
		return "", fmt.Errorf("token exchange failed: empty access_token")
	}

	return token.AccessToken, nil
}

// CurrentlyPlaying queries the playback endpoint with the given access token.
//
// Returns (nil, nil) when nothing is playing (204 or an empty body) and an [shared.UpstreamPlaybackError]
// for any other non-success status.
func (s *SpotifyService) CurrentlyPlaying(ctx context.Context, accessToken string) (*CurrentlyPlaying, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.nowPlayingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &shared.UpstreamPlaybackError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var playing CurrentlyPlaying
	if err := json.Unmarshal(body, &playing); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &playing, nil
}

// NowPlaying runs the token exchange and then the playback query, normalizing the result.
//
// Upstream playback errors are reported as "nothing playing", so a client cannot tell an idle player from an
// upstream outage. Token exchange failures are returned as is; anything else is wrapped in [shared.ErrInternal].
func (s *SpotifyService) NowPlaying(ctx context.Context) (models.Snapshot, error) {
	accessToken, err := s.AccessToken(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrUpstreamAuth) {
			return models.NotPlaying(), err
		}
		return models.NotPlaying(), fmt.Errorf("%w: %w", shared.ErrInternal, err)
	}

	playing, err := s.CurrentlyPlaying(ctx, accessToken)
	if err != nil {
		var pErr *shared.UpstreamPlaybackError
		if errors.As(err, &pErr) {
			s.logger.Warn("playback query failed, reporting not playing",
				"status", pErr.StatusCode, "body", strings.TrimSpace(pErr.Body))
			return models.NotPlaying(), nil
		}
		return models.NotPlaying(), fmt.Errorf("%w: %w", shared.ErrInternal, err)
	}

	return Normalize(playing), nil
}
