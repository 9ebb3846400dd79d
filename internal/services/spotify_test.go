package services

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
	tu "github.com/desertthunder/nowplaying/internal/testing"
)

func newTestService(t *testing.T, fake *tu.FakeSpotify) (*SpotifyService, *bytes.Buffer) {
	t.Helper()
	srv := tu.NewFakeSpotify(t, fake)
	logs := &bytes.Buffer{}

	svc, err := NewSpotifyService(fake.Config(srv), srv.Client(), shared.NewLogger(logs))
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc, logs
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService(shared.SpotifyConfig{
				ClientID:     "id",
				ClientSecret: "secret",
				RefreshToken: "refresh",
			}, nil, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
			if srv.config.Endpoint.TokenURL != shared.SpotifyTokenURL {
				t.Errorf("expected default token URL, got %s", srv.config.Endpoint.TokenURL)
			}
			if srv.nowPlayingURL != shared.SpotifyNowPlayingURL {
				t.Errorf("expected default now playing URL, got %s", srv.nowPlayingURL)
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		tc := []struct {
			name  string
			creds shared.SpotifyConfig
		}{
			{name: "Missing Client ID", creds: shared.SpotifyConfig{ClientSecret: "s", RefreshToken: "r"}},
			{name: "Missing Client Secret", creds: shared.SpotifyConfig{ClientID: "i", RefreshToken: "r"}},
			{name: "Missing Refresh Token", creds: shared.SpotifyConfig{ClientID: "i", ClientSecret: "s"}},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewSpotifyService(tt.creds, nil, nil)
				if !errors.Is(err, shared.ErrMissingCredentials) {
					t.Errorf("expected ErrMissingCredentials, got %v", err)
				}
			})
		}

		t.Run("Credentials With Reserved Characters", func(t *testing.T) {
			tc := []struct {
				name  string
				creds shared.SpotifyConfig
			}{
				{name: "plus in client id", creds: shared.SpotifyConfig{ClientID: "id+1", ClientSecret: "s", RefreshToken: "r"}},
				{name: "slash and equals in secret", creds: shared.SpotifyConfig{ClientID: "i", ClientSecret: "s/e=c", RefreshToken: "r"}},
				{name: "space in secret", creds: shared.SpotifyConfig{ClientID: "i", ClientSecret: "s e", RefreshToken: "r"}},
			}

			for _, tt := range tc {
				t.Run(tt.name, func(t *testing.T) {
					_, err := NewSpotifyService(tt.creds, nil, nil)
					if !errors.Is(err, shared.ErrInvalidConfig) {
						t.Errorf("expected ErrInvalidConfig, got %v", err)
					}
				})
			}

			if _, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "a-Z.0_9~", ClientSecret: "f00d", RefreshToken: "r+/="}, nil, nil); err != nil {
				t.Errorf("expected unreserved credentials to be accepted, got %v", err)
			}
		})

		t.Run("Service Interface", func(t *testing.T) {
			var _ Service = &SpotifyService{}
		})
	})

	t.Run("AccessToken", func(t *testing.T) {
		t.Run("sends refresh grant with basic auth", func(t *testing.T) {
			fake := &tu.FakeSpotify{}
			svc, _ := newTestService(t, fake)

			token, err := svc.AccessToken(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if token != tu.TestAccessToken {
				t.Errorf("expected %s, got %s", tu.TestAccessToken, token)
			}

			if len(fake.TokenForms) != 1 {
				t.Fatalf("expected one token call, got %d", len(fake.TokenForms))
			}
			form := fake.TokenForms[0]
			if form.Get("grant_type") != "refresh_token" {
				t.Errorf("expected grant_type refresh_token, got %s", form.Get("grant_type"))
			}
			if form.Get("refresh_token") != tu.TestRefreshToken {
				t.Errorf("expected refresh token in form, got %s", form.Get("refresh_token"))
			}
			if form.Get("client_secret") != "" {
				t.Error("client secret must travel in the Authorization header, not the body")
			}
			if fake.BasicUsers[0] != tu.TestClientID || fake.BasicPass[0] != tu.TestClientSecret {
				t.Errorf("unexpected basic auth %s:%s", fake.BasicUsers[0], fake.BasicPass[0])
			}
		})

		t.Run("exchanges on every call", func(t *testing.T) {
			fake := &tu.FakeSpotify{}
			svc, _ := newTestService(t, fake)

			for range 3 {
				if _, err := svc.AccessToken(context.Background()); err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
			}

			if calls, _ := fake.Counts(); calls != 3 {
				t.Errorf("expected 3 token exchanges, got %d", calls)
			}
		})

		t.Run("non-2xx yields UpstreamAuthError", func(t *testing.T) {
			fake := &tu.FakeSpotify{TokenStatus: http.StatusBadRequest, TokenBody: `{"error":"invalid_grant","error_description":"Invalid refresh token"}`}
			svc, _ := newTestService(t, fake)

			_, err := svc.AccessToken(context.Background())
			if !errors.Is(err, shared.ErrUpstreamAuth) {
				t.Fatalf("expected ErrUpstreamAuth, got %v", err)
			}

			var authErr *shared.UpstreamAuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected *UpstreamAuthError, got %T", err)
			}
			if authErr.StatusCode != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", authErr.StatusCode)
			}
			if !strings.Contains(authErr.Body, "invalid_grant") {
				t.Errorf("expected upstream body to be kept, got %q", authErr.Body)
			}
		})

		t.Run("missing access_token", func(t *testing.T) {
			fake := &tu.FakeSpotify{TokenBody: `{"token_type":"Bearer"}`}
			svc, _ := newTestService(t, fake)

			_, err := svc.AccessToken(context.Background())
			if err == nil {
				t.Fatal("expected error for missing access_token")
			}
			if errors.Is(err, shared.ErrUpstreamAuth) {
				t.Error("a 2xx without a token is not an upstream auth status error")
			}
		})

		t.Run("transport failure", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
			svc, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "i", ClientSecret: "s", RefreshToken: "r"}, client, nil)
			if err != nil {
				t.Fatalf("failed to create service: %v", err)
			}

			_, err = svc.AccessToken(context.Background())
			if err == nil || !strings.Contains(err.Error(), "token exchange failed") {
				t.Errorf("expected token exchange failure, got %v", err)
			}
		})
	})

	t.Run("CurrentlyPlaying", func(t *testing.T) {
		t.Run("sends bearer token", func(t *testing.T) {
			fake := &tu.FakeSpotify{PlayingStatus: http.StatusOK, PlayingBody: tu.ScenarioBody}
			svc, _ := newTestService(t, fake)

			playing, err := svc.CurrentlyPlaying(context.Background(), "abc")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if playing == nil || playing.Item == nil {
				t.Fatal("expected decoded body")
			}
			if fake.Bearers[0] != "Bearer abc" {
				t.Errorf("expected 'Bearer abc', got %q", fake.Bearers[0])
			}
		})

		t.Run("204 means nothing playing", func(t *testing.T) {
			svc, _ := newTestService(t, &tu.FakeSpotify{PlayingStatus: http.StatusNoContent})

			playing, err := svc.CurrentlyPlaying(context.Background(), "abc")
			if err != nil || playing != nil {
				t.Errorf("expected (nil, nil), got (%v, %v)", playing, err)
			}
		})

		t.Run("empty 200 means nothing playing", func(t *testing.T) {
			svc, _ := newTestService(t, &tu.FakeSpotify{PlayingStatus: http.StatusOK, PlayingBody: "  "})

			playing, err := svc.CurrentlyPlaying(context.Background(), "abc")
			if err != nil || playing != nil {
				t.Errorf("expected (nil, nil), got (%v, %v)", playing, err)
			}
		})

		t.Run("error status", func(t *testing.T) {
			svc, _ := newTestService(t, &tu.FakeSpotify{PlayingStatus: http.StatusUnauthorized, PlayingBody: `{"error":{"status":401}}`})

			_, err := svc.CurrentlyPlaying(context.Background(), "abc")
			var pErr *shared.UpstreamPlaybackError
			if !errors.As(err, &pErr) || pErr.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected UpstreamPlaybackError 401, got %v", err)
			}
		})

		t.Run("malformed JSON", func(t *testing.T) {
			svc, _ := newTestService(t, &tu.FakeSpotify{PlayingStatus: http.StatusOK, PlayingBody: `{"is_playing":`})

			_, err := svc.CurrentlyPlaying(context.Background(), "abc")
			if err == nil || !strings.Contains(err.Error(), "failed to decode response") {
				t.Errorf("expected decode error, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil),
			}
			svc, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "i", ClientSecret: "s", RefreshToken: "r"}, client, nil)
			if err != nil {
				t.Fatalf("failed to create service: %v", err)
			}

			_, err = svc.CurrentlyPlaying(context.Background(), "abc")
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})
	})

	t.Run("NowPlaying", func(t *testing.T) {
		t.Run("maps a playing track", func(t *testing.T) {
			fake := &tu.FakeSpotify{PlayingStatus: http.StatusOK, PlayingBody: tu.ScenarioBody}
			svc, _ := newTestService(t, fake)

			got, err := svc.NowPlaying(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !got.IsPlaying || got.TitleOr("") != "Song A" || got.Artist != "X, Y" {
				t.Errorf("unexpected snapshot %+v", got)
			}
			if fake.Bearers[0] != "Bearer "+tu.TestAccessToken {
				t.Errorf("expected exchanged token to be used, got %q", fake.Bearers[0])
			}
		})

		t.Run("204 and error statuses yield the same default", func(t *testing.T) {
			for _, status := range []int{http.StatusNoContent, http.StatusBadRequest, http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway} {
				svc, _ := newTestService(t, &tu.FakeSpotify{PlayingStatus: status, PlayingBody: `{"error":"x"}`})

				got, err := svc.NowPlaying(context.Background())
				if err != nil {
					t.Errorf("status %d: expected no error, got %v", status, err)
				}
				if got != models.NotPlaying() {
					t.Errorf("status %d: expected default snapshot, got %+v", status, got)
				}
			}
		})

		t.Run("swallowed playback error is logged", func(t *testing.T) {
			svc, logs := newTestService(t, &tu.FakeSpotify{PlayingStatus: http.StatusServiceUnavailable})

			if _, err := svc.NowPlaying(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(logs.String(), "503") {
				t.Errorf("expected status in logs, got %q", logs.String())
			}
		})

		t.Run("token failure skips playback query", func(t *testing.T) {
			fake := &tu.FakeSpotify{TokenStatus: http.StatusBadRequest, TokenBody: `{"error":"invalid_client"}`}
			svc, _ := newTestService(t, fake)

			_, err := svc.NowPlaying(context.Background())
			if !errors.Is(err, shared.ErrUpstreamAuth) {
				t.Errorf("expected ErrUpstreamAuth, got %v", err)
			}
			if _, playing := fake.Counts(); playing != 0 {
				t.Errorf("expected no playback query, got %d", playing)
			}
		})

		t.Run("loosely typed playback body still maps", func(t *testing.T) {
			svc, _ := newTestService(t, &tu.FakeSpotify{
				PlayingStatus: http.StatusOK,
				PlayingBody:   `{"is_playing":true,"progress_ms":5000.0,"item":{"name":"A","artists":"X"}}`,
			})

			got, err := svc.NowPlaying(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !got.IsPlaying || got.TitleOr("") != "A" || got.Artist != "" || got.TimePlayed != 5000 {
				t.Errorf("unexpected snapshot %+v", got)
			}
		})

		t.Run("malformed playback body is an error", func(t *testing.T) {
			svc, _ := newTestService(t, &tu.FakeSpotify{PlayingStatus: http.StatusOK, PlayingBody: `not json`})

			_, err := svc.NowPlaying(context.Background())
			if !errors.Is(err, shared.ErrInternal) {
				t.Errorf("expected ErrInternal for malformed body, got %v", err)
			}
		})

		t.Run("one exchange and one query per call", func(t *testing.T) {
			fake := &tu.FakeSpotify{PlayingStatus: http.StatusOK, PlayingBody: tu.ScenarioBody}
			svc, _ := newTestService(t, fake)

			for range 2 {
				if _, err := svc.NowPlaying(context.Background()); err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
			}

			token, playing := fake.Counts()
			if token != 2 || playing != 2 {
				t.Errorf("expected 2/2 calls, got %d/%d", token, playing)
			}
		})
	})
}
