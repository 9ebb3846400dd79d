package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 5 * time.Second

// Server is the now-playing HTTP proxy.
type Server struct {
	httpServer *http.Server
	router     *BasicRouter
	gate       *OriginGate
	logger     *log.Logger
}

// New wires the router, middleware chain and handlers for config.
func New(config *shared.Config, service services.Service, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	gate, err := NewOriginGate(config.Server.AllowedOriginDomain)
	if err != nil {
		return nil, err
	}

	router := NewBasicRouter()
	router.Use(RequestLogger(logger), Recoverer(logger), CORS(gate))
	if config.Server.RateLimit > 0 {
		router.Use(RateLimit(NewClientLimiter(rate.Limit(config.Server.RateLimit), config.Server.RateBurst)))
	}

	router.Handler(NewNowPlayingHandler(service, logger))
	router.Handle(http.MethodGet, HealthPath, HealthHandler())

	return &Server{
		httpServer: &http.Server{
			Addr:              config.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		router: router,
		gate:   gate,
		logger: logger,
	}, nil
}

// Handler returns the fully wired root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address and serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.gate.Permissive() {
		s.logger.Warn("no allowed origin domain configured, every browser origin is allowed")
	}
	s.logger.Infof("now playing API listening on http://%s", ln.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
