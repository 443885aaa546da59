package web

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/setsvm/novi/internal/auth"
	"github.com/setsvm/novi/internal/loader"
	"github.com/setsvm/novi/internal/models"
	"github.com/setsvm/novi/internal/services"
	"github.com/setsvm/novi/internal/storage"
)

// ClientFactory builds an API client bound to one client's storage scope.
type ClientFactory func(storage.Storage) services.Client

// Scoper hands out per-client storage.
type Scoper interface {
	Scope(clientID string) storage.Storage
}

// listKey is the only key of the content list loader.
const listKey = "mine"

// Draft is a generated document waiting to be saved.
type Draft struct {
	FileName    string
	Title       string
	Subject     string
	Grade       string
	ContentType models.ContentType
	HTML        string
	GeneratedAt time.Time
}

// Payload converts the draft into the body of a save request.
func (d *Draft) Payload() models.SavePayload {
	return models.NewSavePayload(d.FileName, d.Subject, d.Grade, d.ContentType, d.HTML, d.GeneratedAt)
}

// ClientState is everything the server keeps for one browser.
type ClientState struct {
	ID      string
	Auth    *auth.Store
	API     services.Client
	List    *loader.Loader[string, models.ContentList]
	Content *loader.Loader[models.ID, *models.ContentItem]

	mu       sync.Mutex
	draft    *Draft
	lastSeen time.Time
}

// Draft returns the pending draft, or nil.
func (c *ClientState) Draft() *Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SetDraft replaces the pending draft. A nil draft clears it.
func (c *ClientState) SetDraft(d *Draft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = d
}

// Reset drops cached data, e.g. after the signed-in user changes.
func (c *ClientState) Reset() {
	c.List.Reset()
	c.Content.Reset()
	c.SetDraft(nil)
}

func (c *ClientState) touch(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSeen = now
}

func (c *ClientState) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// Registry owns the [ClientState] of every active client.
type Registry struct {
	newClient ClientFactory
	scoper    Scoper
	logger    *log.Logger
	now       func() time.Time

	mu      sync.Mutex
	clients map[string]*ClientState
}

// NewRegistry creates an empty registry.
func NewRegistry(newClient ClientFactory, scoper Scoper, logger *log.Logger) *Registry {
	return &Registry{
		newClient: newClient,
		scoper:    scoper,
		logger:    logger,
		now:       time.Now,
		clients:   map[string]*ClientState{},
	}
}

// Get returns the state of client id, creating and initializing it on first use.
func (r *Registry) Get(id string) *ClientState {
	r.mu.Lock()
	state, ok := r.clients[id]
	if !ok {
		scope := r.scoper.Scope(id)
		api := r.newClient(scope)
		state = &ClientState{
			ID:      id,
			Auth:    auth.NewStore(api, scope, r.logger.With("client", id)),
			API:     api,
			List:    loader.New[string, models.ContentList](),
			Content: loader.New[models.ID, *models.ContentItem](),
		}
		r.clients[id] = state
	}
	r.mu.Unlock()

	state.Auth.Initialize()
	state.touch(r.now())
	return state
}

// Len returns the number of clients held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Sweep disposes clients idle for longer than maxIdle and returns how many were removed.
// Their persisted state survives, so a returning browser is restored on its next request.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	var stale []*ClientState
	for id, state := range r.clients {
		if state.idleSince().Before(cutoff) {
			stale = append(stale, state)
			delete(r.clients, id)
		}
	}
	r.mu.Unlock()

	for _, state := range stale {
		state.Auth.Dispose()
		state.Reset()
	}
	if len(stale) > 0 {
		r.logger.Debug("swept idle clients", "count", len(stale))
	}
	return len(stale)
}
