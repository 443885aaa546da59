package loader

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoader(t *testing.T) {
	t.Run("Stale Response Is Discarded", func(t *testing.T) {
		l := New[string, string]()

		a := l.Begin("A")
		b := l.Begin("B")

		if l.Commit(a, "content A", nil) {
			t.Error("commit for superseded ticket should be rejected")
		}

		state := l.Current()
		if state.Key != "B" || state.Status != Loading {
			t.Errorf("state should still represent B loading, got %+v", state)
		}

		if !l.Commit(b, "content B", nil) {
			t.Error("commit for current ticket should succeed")
		}
		if got := l.Current(); got.Value != "content B" || got.Status != Ready {
			t.Errorf("unexpected state %+v", got)
		}
	})

	t.Run("Stale Response After Newer Resolves", func(t *testing.T) {
		l := New[string, string]()
		releaseA := make(chan struct{})
		fetch := func(ctx context.Context, key string) (string, error) {
			if key == "A" {
				<-releaseA
			}
			return "content " + key, nil
		}

		doneA := make(chan bool)
		go func() {
			_, committed, _ := l.Load(context.Background(), "A", fetch)
			doneA <- committed
		}()

		// Wait for A to be in flight.
		for l.Current().Key != "A" {
			time.Sleep(time.Millisecond)
		}

		if _, committed, _ := l.Load(context.Background(), "B", fetch); !committed {
			t.Fatal("B should commit")
		}

		close(releaseA)
		if <-doneA {
			t.Error("A resolved late and must not commit")
		}
		if got := l.Current(); got.Key != "B" || got.Value != "content B" {
			t.Errorf("state should represent B, got %+v", got)
		}
	})

	t.Run("Failure Is Recorded", func(t *testing.T) {
		l := New[int, string]()
		boom := errors.New("boom")

		_, committed, err := l.Load(context.Background(), 1, func(ctx context.Context, key int) (string, error) {
			return "", boom
		})
		if !committed || err != boom {
			t.Fatalf("unexpected result committed=%v err=%v", committed, err)
		}
		if got := l.Current(); got.Status != Failed || got.Err != boom {
			t.Errorf("unexpected state %+v", got)
		}
	})

	t.Run("Preload And Fresh", func(t *testing.T) {
		l := New[string, int]()
		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		l.now = func() time.Time { return now }

		<-l.Preload(context.Background(), "X", func(ctx context.Context, key string) (int, error) { return 42, nil })

		if _, ok := l.Fresh("X", 0); ok {
			t.Error("zero max age must never reuse")
		}
		if v, ok := l.Fresh("X", time.Second); !ok || v != 42 {
			t.Errorf("expected fresh 42, got %v %v", v, ok)
		}
		if _, ok := l.Fresh("Y", time.Second); ok {
			t.Error("different key must not be reused")
		}

		now = now.Add(2 * time.Second)
		if _, ok := l.Fresh("X", time.Second); ok {
			t.Error("expired value must not be reused")
		}
	})

	t.Run("Reset Invalidates In Flight", func(t *testing.T) {
		l := New[string, string]()
		ticket := l.Begin("A")
		l.Reset()

		if l.Commit(ticket, "late", nil) {
			t.Error("commit after reset should be rejected")
		}
		if l.Current().Status != Idle {
			t.Errorf("expected idle, got %s", l.Current().Status)
		}
	})
}
