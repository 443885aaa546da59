// Package loader tracks the latest asynchronous load for a changing key.
//
// Every load is stamped with a generation. Committing a result whose generation is no
// longer current is a no-op, so a slow response for an old key can never overwrite the
// state of a newer one. Requests are never cancelled; stale results are simply dropped.
package loader

import (
	"context"
	"sync"
	"time"
)

// Status of the current load.
type Status int

const (
	Idle Status = iota
	Loading
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Ticket identifies one load.
type Ticket[K comparable] struct {
	Key        K
	Generation uint64
}

// State is a snapshot of the current load.
type State[K comparable, V any] struct {
	Key        K
	Generation uint64
	Status     Status
	Value      V
	Err        error
	LoadedAt   time.Time
}

// Fetch loads the value for a key.
type Fetch[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Loader holds the state of the most recently begun load.
type Loader[K comparable, V any] struct {
	mu         sync.Mutex
	generation uint64
	state      State[K, V]
	now        func() time.Time
}

// New creates an idle [Loader].
func New[K comparable, V any]() *Loader[K, V] {
	return &Loader[K, V]{now: time.Now}
}

// Begin starts a new load for key, superseding any load in flight.
func (l *Loader[K, V]) Begin(key K) Ticket[K] {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.generation++
	l.state = State[K, V]{Key: key, Generation: l.generation, Status: Loading}
	return Ticket[K]{Key: key, Generation: l.generation}
}

// Commit records the outcome of the load identified by t.
// Returns false, leaving state untouched, when t has been superseded.
func (l *Loader[K, V]) Commit(t Ticket[K], value V, err error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t.Generation != l.generation {
		return false
	}

	l.state.LoadedAt = l.now()
	if err != nil {
		var zero V
		l.state.Status, l.state.Value, l.state.Err = Failed, zero, err
		return true
	}
	l.state.Status, l.state.Value, l.state.Err = Ready, value, nil
	return true
}

// Current returns a snapshot of the latest load.
func (l *Loader[K, V]) Current() State[K, V] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Load begins a load for key, runs fetch, and commits the result.
//
// committed is false when another load began while fetch ran; the value and error are
// still returned so the caller can decide whether to use them.
func (l *Loader[K, V]) Load(ctx context.Context, key K, fetch Fetch[K, V]) (value V, committed bool, err error) {
	t := l.Begin(key)
	value, err = fetch(ctx, key)
	return value, l.Commit(t, value, err), err
}

// Preload runs [Loader.Load] in the background. The returned channel closes once the
// result has been committed or discarded.
func (l *Loader[K, V]) Preload(ctx context.Context, key K, fetch Fetch[K, V]) <-chan struct{} {
	done := make(chan struct{})
	t := l.Begin(key)
	go func() {
		defer close(done)
		value, err := fetch(ctx, key)
		l.Commit(t, value, err)
	}()
	return done
}

// Fresh returns the committed value for key when it loaded successfully less than maxAge ago.
// A maxAge of zero or less never reuses a value.
func (l *Loader[K, V]) Fresh(key K, maxAge time.Duration) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var zero V
	if maxAge <= 0 || l.state.Status != Ready || l.state.Key != key {
		return zero, false
	}
	if l.now().Sub(l.state.LoadedAt) >= maxAge {
		return zero, false
	}
	return l.state.Value, true
}

// Reset discards the current state and invalidates any load in flight.
func (l *Loader[K, V]) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	l.state = State[K, V]{Generation: l.generation}
}
