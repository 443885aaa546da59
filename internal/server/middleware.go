package server

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/sessions"

	"github.com/setsvm/novi/internal/shared"
)

const clientIDKey = "client_id"

type clientKey struct{}

// WithClientID stores a client id in ctx.
func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientKey{}, id)
}

// ClientIDFrom returns the client id stored by [ClientIdentity].
func ClientIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientKey{}).(string)
	return id, ok && id != ""
}

// ClientIdentity ensures every request carries a client id in a signed cookie and places it
// in the request context. onSeen, when non-nil, is called with each request's client id.
//
// A cookie that fails verification is replaced with a fresh identity.
func ClientIdentity(store sessions.Store, name string, logger *log.Logger, onSeen func(id string, r *http.Request)) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := store.Get(r, name)
			if err != nil {
				logger.Debug("discarding unreadable client cookie", "error", err)
				sess, err = store.New(r, name)
				if sess == nil {
					logger.Error("failed to create client session", "error", err)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
			}

			id, _ := sess.Values[clientIDKey].(string)
			if !shared.IsValidID(id) {
				id = shared.GenerateID()
				sess.Values[clientIDKey] = id
				if err := sess.Save(r, w); err != nil {
					logger.Error("failed to save client cookie", "error", err)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
			}

			if onSeen != nil {
				onSeen(id, r)
			}

			next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), id)))
		})
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(p []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(p)
	s.bytes += n
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// Logging logs one line per request. Register it with [BasicRouter.Use] so the matched
// pattern is known when the line is written.
func Logging(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			client, _ := ClientIDFrom(r.Context())

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"pattern", r.Pattern,
				"status", status,
				"bytes", rec.bytes,
				"duration", time.Since(started),
				"client", client,
			)
		})
	}
}

// Recover turns a handler panic into a 500 response.
func Recover(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					logger.Error("panic serving request", "path", r.URL.Path, "panic", v, "stack", string(debug.Stack()))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
