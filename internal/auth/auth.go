// Package auth holds the authentication state of one client.
//
// A [Store] mirrors the API client's token into a current [models.Session]. It is created
// per client scope and passed explicitly to whoever needs it; nothing in this package is
// global. The store is the only writer of the [storage.KeyUser] slot.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/setsvm/novi/internal/models"
	"github.com/setsvm/novi/internal/services"
	"github.com/setsvm/novi/internal/shared"
	"github.com/setsvm/novi/internal/storage"
)

// Store is the single source of truth for the logged-in identity of a client.
type Store struct {
	api    services.Client
	store  storage.Storage
	logger *log.Logger

	once sync.Once

	mu       sync.RWMutex
	session  *models.Session
	loading  bool
	disposed bool
}

// NewStore creates a [Store] in the loading state. Call [Store.Initialize] before use.
func NewStore(api services.Client, store storage.Storage, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Store{api: api, store: store, logger: logger, loading: true}
}

// Initialize restores the session from persisted state. Only the first call has any effect.
//
// With a token present, the cached user record becomes the session; a missing or unreadable
// record yields the placeholder session. Without a token the session stays nil.
func (s *Store) Initialize() {
	s.once.Do(func() {
		session := s.restore()

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.disposed {
			return
		}
		s.session = session
		s.loading = false
	})
}

func (s *Store) restore() *models.Session {
	if !s.api.IsAuthenticated() {
		return nil
	}

	raw, ok, err := s.store.Get(storage.KeyUser)
	if err != nil {
		s.logger.Warn("failed to read cached user, using placeholder", "error", err)
		return models.PlaceholderSession()
	}
	if !ok {
		return models.PlaceholderSession()
	}

	session, err := models.DecodeSession(raw)
	if err != nil {
		s.logger.Warn("cached user is corrupt, using placeholder", "error", err)
		return models.PlaceholderSession()
	}
	return session
}

// Login authenticates through the API client and makes the result the current session.
//
// API errors are returned unchanged. The session name is the email truncated at its first
// '@'; a backend profile name is kept alongside it as the display name.
func (s *Store) Login(ctx context.Context, email, password string) (*models.Session, error) {
	if err := s.checkDisposed(); err != nil {
		return nil, err
	}

	profile, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	session := models.NewSessionFromEmail(email)
	session.DisplayName = profile.DisplayName()

	raw, err := session.Encode()
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(storage.KeyUser, raw); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return nil, shared.ErrDisposed
	}
	s.session = session
	s.loading = false
	return session, nil
}

// Logout clears the token, the persisted session, and the current session. Never fails.
func (s *Store) Logout(ctx context.Context) {
	s.api.Logout(ctx)

	if err := s.store.Remove(storage.KeyUser); err != nil {
		s.logger.Error("failed to clear cached user", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	s.loading = false
}

// Invalidate reacts to a failed authenticated call by logging out, so the store and the
// API client agree that the client is signed out.
func (s *Store) Invalidate(ctx context.Context, cause error) {
	s.logger.Info("session invalidated", "cause", cause)
	s.Logout(ctx)
}

// CheckError invalidates the session when err is an authentication failure and returns err.
func (s *Store) CheckError(ctx context.Context, err error) error {
	if err != nil && errors.Is(err, shared.ErrAuthentication) {
		s.Invalidate(ctx, err)
	}
	return err
}

// Dispose drops in-memory state. Persisted state is left untouched.
// Afterwards, [Store.Login] returns [shared.ErrDisposed] and the store reads as signed out.
func (s *Store) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	s.session = nil
}

// Disposed reports whether [Store.Dispose] has been called.
func (s *Store) Disposed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disposed
}

func (s *Store) checkDisposed() error {
	if s.Disposed() {
		return shared.ErrDisposed
	}
	return nil
}

// Session returns a copy of the current session, or nil when signed out.
func (s *Store) Session() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	session := *s.session
	return &session
}

// IsAuthenticated reports whether a session is present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session != nil
}

// Loading reports whether [Store.Initialize] has not completed yet.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}
