package storage

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/setsvm/novi/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()

	if _, ok, err := s.Get(KeyUser); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(KeyUser, `{"email":"a@b.c"}`); err != nil {
		t.Fatalf("failed to set: %v", err)
	}
	if err := s.Set(KeyUser, `{"email":"d@e.f"}`); err != nil {
		t.Fatalf("failed to overwrite: %v", err)
	}

	v, ok, err := s.Get(KeyUser)
	if err != nil || !ok {
		t.Fatalf("expected key present, got ok=%v err=%v", ok, err)
	}
	if v != `{"email":"d@e.f"}` {
		t.Errorf("expected overwritten value, got %s", v)
	}

	if err := s.Remove(KeyUser); err != nil {
		t.Fatalf("failed to remove: %v", err)
	}
	if err := s.Remove(KeyUser); err != nil {
		t.Errorf("removing a missing key should succeed, got %v", err)
	}
	if _, ok, _ := s.Get(KeyUser); ok {
		t.Error("key should be gone after remove")
	}
}

func TestMemoryStorage(t *testing.T) {
	t.Run("Get Set Remove", func(t *testing.T) {
		exerciseStorage(t, NewMemoryStorage())
	})

	t.Run("Len", func(t *testing.T) {
		m := NewMemoryStorage()
		m.Set(KeyUser, "u")
		m.Set(KeyToken, "t")
		if m.Len() != 2 {
			t.Errorf("expected 2 keys, got %d", m.Len())
		}
	})
}

func TestSQLiteStorage(t *testing.T) {
	t.Run("Get Set Remove", func(t *testing.T) {
		db := setupTestDB(t)
		exerciseStorage(t, NewSQLiteStorage(db).Scope(shared.GenerateID()))
	})

	t.Run("Scopes Are Isolated", func(t *testing.T) {
		db := setupTestDB(t)
		s := NewSQLiteStorage(db)
		a, b := s.Scope("client-a"), s.Scope("client-b")

		if err := a.Set(KeyToken, "token-a"); err != nil {
			t.Fatalf("failed to set: %v", err)
		}

		if _, ok, _ := b.Get(KeyToken); ok {
			t.Error("client b should not see client a's token")
		}
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := setupTestDB(t)
		scope := NewSQLiteStorage(db).Scope("client")
		db.Close()

		if err := scope.Set(KeyUser, "x"); !errors.Is(err, shared.ErrStorage) {
			t.Errorf("expected ErrStorage, got %v", err)
		}
		if _, _, err := scope.Get(KeyUser); !errors.Is(err, shared.ErrStorage) {
			t.Errorf("expected ErrStorage, got %v", err)
		}
	})
}

func TestClientRepository(t *testing.T) {
	t.Run("Touch And Get", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewClientRepository(db)
		id := shared.GenerateID()

		first := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
		repo.now = func() time.Time { return first }
		if err := repo.Touch(id, "agent/1"); err != nil {
			t.Fatalf("failed to touch: %v", err)
		}

		later := first.Add(time.Hour)
		repo.now = func() time.Time { return later }
		if err := repo.Touch(id, "agent/2"); err != nil {
			t.Fatalf("failed to touch again: %v", err)
		}

		c, err := repo.Get(id)
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if !c.CreatedAt.Equal(first) || !c.LastSeenAt.Equal(later) {
			t.Errorf("unexpected timestamps created=%v seen=%v", c.CreatedAt, c.LastSeenAt)
		}
		if c.UserAgent != "agent/2" {
			t.Errorf("expected latest user agent, got %s", c.UserAgent)
		}
	})

	t.Run("Invalid ID", func(t *testing.T) {
		repo := NewClientRepository(setupTestDB(t))
		if err := repo.Touch("nope", ""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := NewClientRepository(setupTestDB(t))
		if _, err := repo.Get(shared.GenerateID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Prune", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewClientRepository(db)
		slots := NewSQLiteStorage(db)
		stale, fresh := shared.GenerateID(), shared.GenerateID()
		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

		repo.now = func() time.Time { return base }
		repo.Touch(stale, "")
		slots.Scope(stale).Set(KeyToken, "old")

		repo.now = func() time.Time { return base.AddDate(0, 0, 40) }
		repo.Touch(fresh, "")
		slots.Scope(fresh).Set(KeyToken, "new")

		n, err := repo.Prune(base.AddDate(0, 0, 30))
		if err != nil {
			t.Fatalf("failed to prune: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 pruned client, got %d", n)
		}
		if _, ok, _ := slots.Scope(stale).Get(KeyToken); ok {
			t.Error("stale client slots should be removed")
		}
		if _, ok, _ := slots.Scope(fresh).Get(KeyToken); !ok {
			t.Error("fresh client slots should remain")
		}
	})
}
