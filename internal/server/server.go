// File: internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xkilldash9x/surveypilot/api/schemas"
	"github.com/xkilldash9x/surveypilot/internal/config"
)

// DriverSource hands out one driver per campaign. *browser.Manager satisfies it.
type DriverSource interface {
	NewDriver(ctx context.Context) (schemas.Driver, error)
	Release(ctx context.Context, drv schemas.Driver) error
}

// Server exposes the survey engine over HTTP. Campaigns run one at a time; later requests wait for the
// browser.
type Server struct {
	cfg     *config.Config
	drivers DriverSource
	logger  *zap.Logger
	now     func() time.Time

	// slot holds a token while a campaign owns the browser.
	slot chan struct{}
}

// New creates a server. cfg supplies the campaign defaults every request starts from.
func New(cfg *config.Config, drivers DriverSource, logger *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		drivers: drivers,
		logger:  logger.Named("server"),
		now:     time.Now,
		slot:    make(chan struct{}, 1),
	}
}

// Handler builds the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if t := s.cfg.Server.RequestTimeout; t > 0 {
		r.Use(middleware.Timeout(t))
	}
	r.Use(corsMiddleware)

	r.Get("/", s.handleHealth)
	r.Post("/fill", s.handleFill)
	r.Post("/fill-multiple", s.handleFillMultiple)
	return r
}

// Run listens on the configured address until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Server.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve answers requests on ln until ctx is canceled, then shuts down gracefully. Campaigns in flight
// see the cancellation and return their partial reports before the server stops.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.logger.Info("Fill service listening.", zap.String("address", ln.Addr().String()))
	served := make(chan error, 1)
	go func() { served <- httpServer.Serve(ln) }()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("fill service stopped: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down fill service.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
	defer cancel()
	err := httpServer.Shutdown(shutdownCtx)
	<-served
	if err != nil {
		return fmt.Errorf("fill service shutdown: %w", err)
	}
	s.logger.Info("Fill service stopped.")
	return nil
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.cfg.Server.ShutdownTimeout > 0 {
		return s.cfg.Server.ShutdownTimeout
	}
	return 30 * time.Second
}

// corsMiddleware lets browser pages (the bookmarklet front end) call the service from any origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
