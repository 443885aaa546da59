// package server contains routing, middleware & lifecycle helpers for the novi web front end
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and resolve route names.
type Router interface {
	Use(middleware ...Middleware)                                // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler)            // Handle registers a handler for the specified method and path
	HandleNamed(name, method, path string, handler http.Handler) // HandleNamed registers a handler under a route name
	Match(req *http.Request) (name, pattern string, ok bool)     // Match reports which named route would serve req
	ServeHTTP(w http.ResponseWriter, r *http.Request)            // ServeHTTP implements http.Handler for the entire router
}

// shutdownTimeout bounds how long in-flight requests may run after shutdown begins.
const shutdownTimeout = 10 * time.Second

// New creates an [http.Server] with conservative timeouts.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
}

// Run serves until ctx is done, then shuts the server down gracefully.
func Run(ctx context.Context, srv *http.Server, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return <-errCh
}
