package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/phrazzld/answers-api/internal/config"
)

const shutdownTimeout = 10 * time.Second

// serveHTTP runs an HTTP server on the configured port until ctx is
// cancelled, then shuts it down gracefully.
func serveHTTP(ctx context.Context, cfg config.ServerConfig, handler http.Handler, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", cfg.Port, err)
	}
	return serve(ctx, ln, newHTTPServer(cfg, handler), logger)
}

func newHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	// Handlers are bounded by the timeout middleware; the write timeout
	// leaves room to flush the 503 it produces.
	timeout := cfg.RequestTimeout()
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

func serve(ctx context.Context, ln net.Listener, server *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("server shutdown completed")
	return nil
}
