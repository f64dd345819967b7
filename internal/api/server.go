package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/transmaint/backend/pkg/config"
	"github.com/transmaint/backend/pkg/logger"
)

// ShutdownTimeout bounds how long in-flight requests may take after Run's context ends
const ShutdownTimeout = 30 * time.Second

// Server wraps http.Server with the API timeouts
// ⭐ SSOT: configuración del servidor HTTP solo aquí
type Server struct {
	http   *http.Server
	logger *logger.Logger
}

// New creates the API server listening on cfg.Port
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second, // recálculo de una línea completa
			IdleTimeout:       60 * time.Second,
		},
		logger: log.WithField("addr", ":"+cfg.Port),
	}
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.http.Addr
}

// OnShutdown registers fn to run when Run begins shutting down
func (s *Server) OnShutdown(fn func()) {
	s.http.RegisterOnShutdown(fn)
}

// Run serves until ctx is done, then shuts down gracefully within ShutdownTimeout
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting API server")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
