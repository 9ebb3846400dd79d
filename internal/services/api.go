// API service for reading snapshots from a deployed nowplaying proxy
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

const nowPlayingPath = "/api/now-playing"

// APIService reads snapshots from a running proxy instead of calling Spotify directly.
// It implements [Service] and never handles Spotify credentials.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance for the proxy at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%d", shared.DefaultPort)
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

func (a *APIService) Name() string {
	return "Proxy"
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.GetWithHeaders(ctx, path, nil)
}

// GetWithHeaders performs a GET request with extra request headers, e.g. Origin.
func (a *APIService) GetWithHeaders(ctx context.Context, path string, header http.Header) (*APIResponse, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	fullURL := a.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// NowPlaying fetches the snapshot served by the proxy.
func (a *APIService) NowPlaying(ctx context.Context) (models.Snapshot, error) {
	resp, err := a.Get(ctx, nowPlayingPath)
	if err != nil {
		return models.NotPlaying(), fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode != http.StatusOK {
		return models.NotPlaying(), fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errorMessage(resp))
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(resp.Body, &snapshot); err != nil {
		return models.NotPlaying(), fmt.Errorf("%w: failed to decode snapshot: %v", shared.ErrAPIRequest, err)
	}

	return snapshot, nil
}

// Health reports whether the proxy answers its health check.
func (a *APIService) Health(ctx context.Context) error {
	resp, err := a.Get(ctx, "/health")
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}
	return nil
}

// errorMessage extracts the {"error": "..."} message the proxy writes on failure.
func errorMessage(resp *APIResponse) string {
	if data, ok := resp.JSONData.(map[string]any); ok {
		if msg, ok := data["error"].(string); ok {
			return msg
		}
	}
	return strings.TrimSpace(string(resp.Body))
}
