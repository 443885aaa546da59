package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/setsvm/novi/internal/shared"
)

// Fixed slot keys.
const (
	KeyUser  = "user"
	KeyToken = "token"
)

// Storage is a durable key/value scope belonging to a single client.
type Storage interface {
	Get(key string) (string, bool, error) // Get returns the value and whether it exists
	Set(key, value string) error          // Set creates or replaces a value
	Remove(key string) error              // Remove deletes a value; removing a missing key succeeds
}

// MemoryStorage is an in-process [Storage].
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage creates an empty [MemoryStorage].
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// SQLiteStorage persists client slots in the client_storage table.
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStorage creates a new [SQLiteStorage] with the given database connection
func NewSQLiteStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db, now: time.Now}
}

// Scope returns the [Storage] belonging to clientID.
func (s *SQLiteStorage) Scope(clientID string) Storage {
	return &scopedStorage{parent: s, clientID: clientID}
}

type scopedStorage struct {
	parent   *SQLiteStorage
	clientID string
}

func (s *scopedStorage) Get(key string) (string, bool, error) {
	var value string
	err := s.parent.db.QueryRow(
		"SELECT value FROM client_storage WHERE client_id = ? AND key = ?", s.clientID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to read %s: %v", shared.ErrStorage, key, err)
	}
	return value, true, nil
}

func (s *scopedStorage) Set(key, value string) error {
	now := s.parent.now().UTC()
	query := `
		INSERT INTO client_storage (client_id, key, value, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (client_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.parent.db.Exec(query, s.clientID, key, value, now, now); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", shared.ErrStorage, key, err)
	}
	return nil
}

func (s *scopedStorage) Remove(key string) error {
	if _, err := s.parent.db.Exec(
		"DELETE FROM client_storage WHERE client_id = ? AND key = ?", s.clientID, key,
	); err != nil {
		return fmt.Errorf("%w: failed to remove %s: %v", shared.ErrStorage, key, err)
	}
	return nil
}
