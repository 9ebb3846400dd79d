// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

const (
	TestClientID     = "test_client_id"
	TestClientSecret = "test_client_secret"
	TestRefreshToken = "test_refresh_token_value"
	TestAccessToken  = "test_access_token_value"
)

// MockService is a test double for [services.Service]
type MockService struct {
	mu       sync.Mutex
	Snapshot models.Snapshot
	Err      error
	Calls    int
}

func (m *MockService) NowPlaying(ctx context.Context) (models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return m.Snapshot, m.Err
}

func (m *MockService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

var _ io.ReadCloser = (*FCloser)(nil)

// FakeSpotify emulates the Spotify token and currently-playing endpoints.
//
// Zero-valued statuses default to 200 for the token endpoint and 204 for playback.
type FakeSpotify struct {
	mu sync.Mutex

	TokenStatus   int
	TokenBody     string
	PlayingStatus int
	PlayingBody   string

	TokenCalls   int
	PlayingCalls int
	TokenForms   []url.Values
	BasicUsers   []string
	BasicPass    []string
	Bearers      []string
}

// NewFakeSpotify starts an [httptest.Server] for f, closed when the test ends.
func NewFakeSpotify(t *testing.T, f *FakeSpotify) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", f.token)
	mux.HandleFunc("/v1/me/player/currently-playing", f.playing)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// Config returns Spotify credentials pointing at srv.
func (f *FakeSpotify) Config(srv *httptest.Server) shared.SpotifyConfig {
	return shared.SpotifyConfig{
		ClientID:      TestClientID,
		ClientSecret:  TestClientSecret,
		RefreshToken:  TestRefreshToken,
		TokenURL:      srv.URL + "/api/token",
		NowPlayingURL: srv.URL + "/v1/me/player/currently-playing",
	}
}

// Counts returns the number of token and playback calls received.
func (f *FakeSpotify) Counts() (token, playing int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.TokenCalls, f.PlayingCalls
}

func (f *FakeSpotify) token(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.TokenCalls++
	_ = r.ParseForm()
	f.TokenForms = append(f.TokenForms, r.PostForm)
	user, pass, _ := r.BasicAuth()
	f.BasicUsers = append(f.BasicUsers, user)
	f.BasicPass = append(f.BasicPass, pass)
	status, body := f.TokenStatus, f.TokenBody
	f.mu.Unlock()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if status == 0 {
		status = http.StatusOK
	}
	if body == "" && status == http.StatusOK {
		body = `{"access_token":"` + TestAccessToken + `","token_type":"Bearer","expires_in":3600,"scope":"user-read-currently-playing"}`
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func (f *FakeSpotify) playing(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.PlayingCalls++
	f.Bearers = append(f.Bearers, r.Header.Get("Authorization"))
	status, body := f.PlayingStatus, f.PlayingBody
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusNoContent
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

// ScenarioBody is a complete currently-playing body with two artists.
const ScenarioBody = `{
  "is_playing": true,
  "progress_ms": 5000,
  "item": {
    "name": "Song A",
    "artists": [{"name": "X"}, {"name": "Y"}],
    "duration_ms": 200000,
    "external_urls": {"spotify": "u1"},
    "album": {
      "images": [{"url": "img"}],
      "artists": [{"external_urls": {"spotify": "au"}}]
    }
  }
}`

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
