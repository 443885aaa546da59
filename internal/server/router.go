package server

import (
	"net/http"
	"strings"
	"sync"
)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Uses [http.ServeMux] internally for routing, so paths may contain wildcards
// ("/content/{contentId}") and the "{$}" anchor. Method filtering is left to the mux.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware

	mu    sync.RWMutex
	names map[string]string
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:         http.NewServeMux(),
		middlewares: []Middleware{},
		names:       map[string]string{},
	}
}

// Use adds [Middleware] to the [Router] instance's middleware stack, applied in the order it's added.
//
// Only handlers registered after the call are wrapped.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// pattern builds a method-qualified [http.ServeMux] pattern. An empty method matches all methods.
func pattern(method, path string) string {
	if method == "" {
		return path
	}
	return strings.ToUpper(method) + " " + path
}

// Handle registers a handler for the specified HTTP method and path.
//
// The handler is wrapped with all registered middleware.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Handle(pattern(method, path), r.Apply(handler))
}

// HandleNamed registers a handler like [BasicRouter.Handle] and records name for [BasicRouter.Match].
func (r *BasicRouter) HandleNamed(name, method, path string, handler http.Handler) {
	p := pattern(method, path)

	r.mu.Lock()
	r.names[p] = name
	r.mu.Unlock()

	r.mux.Handle(p, r.Apply(handler))
}

// Match returns the name of the route that would serve req, and its pattern.
// ok is false when the pattern was registered without a name or nothing matches.
func (r *BasicRouter) Match(req *http.Request) (name, pattern string, ok bool) {
	_, pattern = r.mux.Handler(req)

	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok = r.names[pattern]
	return name, pattern, ok
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware.
//
// Middleware is applied in reverse order (last added wraps first).
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}

	return wrapped
}
