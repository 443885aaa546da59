package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/setsvm/novi/internal/shared"
)

// Client is a known client identity.
type Client struct {
	ID         string
	UserAgent  string
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// ClientRepository tracks client identities issued by the web front end.
type ClientRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewClientRepository creates a new [ClientRepository] with the given database connection
func NewClientRepository(db *sql.DB) *ClientRepository {
	return &ClientRepository{db: db, now: time.Now}
}

// Touch records a client, creating it on first sight and refreshing last_seen_at afterwards.
func (r *ClientRepository) Touch(id, userAgent string) error {
	if !shared.IsValidID(id) {
		return fmt.Errorf("%w: client id %q", shared.ErrInvalidInput, id)
	}

	now := r.now().UTC()
	query := `
		INSERT INTO clients (id, user_agent, created_at, last_seen_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET last_seen_at = excluded.last_seen_at, user_agent = excluded.user_agent
	`
	if _, err := r.db.Exec(query, id, userAgent, now, now); err != nil {
		return fmt.Errorf("%w: failed to touch client: %v", shared.ErrStorage, err)
	}
	return nil
}

// Get retrieves a client by id.
func (r *ClientRepository) Get(id string) (*Client, error) {
	var c Client
	err := r.db.QueryRow(
		"SELECT id, user_agent, created_at, last_seen_at FROM clients WHERE id = ?", id,
	).Scan(&c.ID, &c.UserAgent, &c.CreatedAt, &c.LastSeenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: client %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query client: %v", shared.ErrStorage, err)
	}
	return &c, nil
}

// Prune deletes clients not seen since before, together with their storage slots.
// Returns the number of clients removed.
func (r *ClientRepository) Prune(before time.Time) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to begin transaction: %v", shared.ErrStorage, err)
	}
	defer tx.Rollback()

	cutoff := before.UTC()
	if _, err := tx.Exec(
		"DELETE FROM client_storage WHERE client_id IN (SELECT id FROM clients WHERE last_seen_at < ?)", cutoff,
	); err != nil {
		return 0, fmt.Errorf("%w: failed to prune storage: %v", shared.ErrStorage, err)
	}

	result, err := tx.Exec("DELETE FROM clients WHERE last_seen_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to prune clients: %v", shared.ErrStorage, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count pruned clients: %v", shared.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: failed to commit prune: %v", shared.ErrStorage, err)
	}
	return int(n), nil
}
