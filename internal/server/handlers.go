package server

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
)

const (
	NowPlayingPath = "/api/now-playing"
	HealthPath     = "/health"

	internalErrorMessage = "Internal server error"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// NowPlayingHandler serves the normalized playback snapshot.
type NowPlayingHandler struct {
	service services.Service
	logger  *log.Logger
}

// NewNowPlayingHandler creates a handler backed by service.
func NewNowPlayingHandler(service services.Service, logger *log.Logger) *NowPlayingHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &NowPlayingHandler{service: service, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *NowPlayingHandler) Routes() []string {
	return []string{NowPlayingPath}
}

// ServeHTTP answers with the snapshot on every normal path. Any error from the service is logged in full
// and reported to the client only as a generic 500.
func (h *NowPlayingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD, OPTIONS")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	snapshot, err := h.service.NowPlaying(r.Context())
	if err != nil {
		LoggerFrom(r.Context(), h.logger).Error("now playing failed", "service", h.service.Name(), "error", err)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, snapshot)
}

// HealthHandler reports process liveness. It never calls upstream.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
