// internal/server/server.go
//
// HTTP server helper with robust timeouts and graceful shutdown.
//
// Production hardening recommends:
//
//   - ReadHeaderTimeout: abort slow-loris headers (5 s)
//   - ReadTimeout: cap body upload time (10 s)
//   - WriteTimeout: cap total response time (15 s)
//   - IdleTimeout: close keep-alives on idle clients (60 s)
//
// This helper centralises those defaults so cmd/web doesn’t repeat
// boilerplate.

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ShutdownGrace bounds how long in-flight requests may run after the
// context is cancelled.
const ShutdownGrace = 10 * time.Second

// New constructs an *http.Server with sensible defaults.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Run serves until ctx is cancelled, then shuts srv down gracefully.  It
// returns the first listener error, or nil after a clean shutdown.
func Run(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	if log == nil {
		log = zap.L()
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownGrace)
		defer cancel()
		log.Info("http shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
