package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
	tu "github.com/desertthunder/nowplaying/internal/testing"
)

// newProxy wires a full server against a fake Spotify upstream.
func newProxy(t *testing.T, fake *tu.FakeSpotify, domain string) (http.Handler, *bytes.Buffer) {
	t.Helper()

	upstream := tu.NewFakeSpotify(t, fake)
	logs := &bytes.Buffer{}
	logger := shared.NewLogger(logs)

	svc, err := services.NewSpotifyService(fake.Config(upstream), upstream.Client(), logger)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	config := shared.DefaultConfig()
	config.Server.AllowedOriginDomain = domain

	srv, err := New(config, svc, logger)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv.Handler(), logs
}

func get(h http.Handler, path, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestNowPlayingEndpoint(t *testing.T) {
	t.Run("allowed subdomain gets CORS header", func(t *testing.T) {
		h, _ := newProxy(t, &tu.FakeSpotify{PlayingStatus: http.StatusOK, PlayingBody: tu.ScenarioBody}, "example.com")

		rec := get(h, NowPlayingPath, "https://blog.example.com")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://blog.example.com" {
			t.Errorf("expected origin to be reflected, got %q", got)
		}
	})

	t.Run("look-alike domain is denied but still served", func(t *testing.T) {
		h, _ := newProxy(t, &tu.FakeSpotify{PlayingStatus: http.StatusOK, PlayingBody: tu.ScenarioBody}, "example.com")

		rec := get(h, NowPlayingPath, "https://evilexample.com")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no CORS header, got %q", got)
		}
		if rec.Body.Len() == 0 {
			t.Error("expected body to be computed for denied origin")
		}
	})

	t.Run("playing track is normalized", func(t *testing.T) {
		h, _ := newProxy(t, &tu.FakeSpotify{PlayingStatus: http.StatusOK, PlayingBody: tu.ScenarioBody}, "example.com")

		rec := get(h, NowPlayingPath, "")
		body := decodeSnapshot(t, rec)

		want := map[string]any{
			"isPlaying":     true,
			"title":         "Song A",
			"artist":        "X, Y",
			"artistUrl":     "au",
			"albumImageUrl": "img",
			"songUrl":       "u1",
			"timePlayed":    float64(5000),
			"timeTotal":     float64(200000),
		}
		if len(body) != len(want) {
			t.Errorf("expected %d fields, got %d: %v", len(want), len(body), body)
		}
		for k, v := range want {
			if body[k] != v {
				t.Errorf("%s = %v, want %v", k, body[k], v)
			}
		}
		if rec.Header().Get("Cache-Control") != "no-store" {
			t.Error("expected Cache-Control no-store")
		}
	})

	t.Run("204 and error statuses yield identical defaults", func(t *testing.T) {
		var bodies []string
		for _, status := range []int{http.StatusNoContent, http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound, http.StatusInternalServerError, http.StatusServiceUnavailable} {
			h, _ := newProxy(t, &tu.FakeSpotify{PlayingStatus: status, PlayingBody: `{"error":{"status":500,"message":"boom"}}`}, "example.com")

			rec := get(h, NowPlayingPath, "")
			if rec.Code != http.StatusOK {
				t.Errorf("status %d: expected 200, got %d", status, rec.Code)
			}
			bodies = append(bodies, rec.Body.String())
		}

		want, _ := json.Marshal(models.NotPlaying())
		for i, b := range bodies {
			if strings.TrimSpace(b) != string(want) {
				t.Errorf("body %d = %s, want %s", i, b, want)
			}
		}
	})

	t.Run("token failure is an opaque 500", func(t *testing.T) {
		fake := &tu.FakeSpotify{
			TokenStatus: http.StatusBadRequest,
			TokenBody:   `{"error":"invalid_grant","error_description":"Invalid refresh token"}`,
		}
		h, logs := newProxy(t, fake, "example.com")

		rec := get(h, NowPlayingPath, "http://localhost:3000")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Internal server error"}` {
			t.Errorf("unexpected body %s", got)
		}

		lower := strings.ToLower(rec.Body.String())
		for _, word := range []string{"token", "secret", "invalid_grant"} {
			if strings.Contains(lower, word) {
				t.Errorf("body leaks %q: %s", word, rec.Body.String())
			}
		}

		for name, values := range rec.Header() {
			for _, v := range values {
				for _, secret := range []string{tu.TestRefreshToken, tu.TestAccessToken, tu.TestClientSecret} {
					if strings.Contains(v, secret) {
						t.Errorf("header %s leaks a credential", name)
					}
				}
			}
		}

		if !strings.Contains(logs.String(), "invalid_grant") {
			t.Error("expected upstream detail in server logs")
		}
		for _, secret := range []string{tu.TestRefreshToken, tu.TestClientSecret} {
			if strings.Contains(logs.String(), secret) {
				t.Error("credential leaked into logs")
			}
		}
		if _, playing := fake.Counts(); playing != 0 {
			t.Errorf("expected no playback query, got %d", playing)
		}
	})

	t.Run("malformed playback body is an opaque 500", func(t *testing.T) {
		h, _ := newProxy(t, &tu.FakeSpotify{PlayingStatus: http.StatusOK, PlayingBody: `{"item": [`}, "example.com")

		rec := get(h, NowPlayingPath, "")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("one upstream exchange per request", func(t *testing.T) {
		fake := &tu.FakeSpotify{PlayingStatus: http.StatusOK, PlayingBody: tu.ScenarioBody}
		h, _ := newProxy(t, fake, "example.com")

		for range 3 {
			get(h, NowPlayingPath, "")
		}

		token, playing := fake.Counts()
		if token != 3 || playing != 3 {
			t.Errorf("expected 3/3 upstream calls, got %d/%d", token, playing)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		h, _ := newProxy(t, &tu.FakeSpotify{}, "example.com")

		req := httptest.NewRequest(http.MethodPost, NowPlayingPath, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}

func TestNowPlayingHandler(t *testing.T) {
	t.Run("service error never reaches the client", func(t *testing.T) {
		svc := &tu.MockService{Err: errors.New("dial tcp: secret-host refused")}
		h := NewNowPlayingHandler(svc, shared.NewLogger(&bytes.Buffer{}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, NowPlayingPath, nil))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "secret-host") {
			t.Error("error detail leaked to client")
		}
	})

	t.Run("routes", func(t *testing.T) {
		h := NewNowPlayingHandler(&tu.MockService{}, nil)
		if routes := h.Routes(); len(routes) != 1 || routes[0] != "/api/now-playing" {
			t.Errorf("unexpected routes %v", routes)
		}
	})
}

func TestHealthHandler(t *testing.T) {
	h, _ := newProxy(t, &tu.FakeSpotify{}, "")

	rec := get(h, HealthPath, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}
