package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	mk := func(id string, expires time.Time) Session {
		return Session{ID: id, OwnerID: "t1", Subject: "Math", IssuedAt: base, ExpiresAt: expires, Active: true}
	}

	t.Run("put rejects duplicate ids", func(t *testing.T) {
		t.Parallel()
		s := NewMemoryStore()
		if err := s.Put(context.Background(), mk("a", base.Add(time.Minute))); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := s.Put(context.Background(), mk("a", base.Add(time.Minute))); !errors.Is(err, ErrDuplicateID) {
			t.Errorf("duplicate Put = %v, want ErrDuplicateID", err)
		}
	})

	t.Run("get unknown id", func(t *testing.T) {
		t.Parallel()
		s := NewMemoryStore()
		if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get = %v, want ErrNotFound", err)
		}
	})

	t.Run("mark expired is idempotent and tolerates unknown ids", func(t *testing.T) {
		t.Parallel()
		s := NewMemoryStore()
		if err := s.MarkExpired(context.Background(), "missing"); err != nil {
			t.Fatalf("MarkExpired on unknown id: %v", err)
		}
		if err := s.Put(context.Background(), mk("a", base.Add(time.Minute))); err != nil {
			t.Fatalf("Put: %v", err)
		}
		for i := 0; i < 2; i++ {
			if err := s.MarkExpired(context.Background(), "a"); err != nil {
				t.Fatalf("MarkExpired #%d: %v", i+1, err)
			}
		}
		sess, err := s.Get(context.Background(), "a")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if sess.Active {
			t.Error("session should be inactive after MarkExpired")
		}
	})

	t.Run("reap deactivates only stale sessions", func(t *testing.T) {
		t.Parallel()
		s := NewMemoryStore()
		_ = s.Put(context.Background(), mk("stale", base.Add(-time.Second)))
		_ = s.Put(context.Background(), mk("fresh", base.Add(time.Minute)))

		n, err := s.Reap(context.Background(), base)
		if err != nil {
			t.Fatalf("Reap: %v", err)
		}
		if n != 1 {
			t.Errorf("Reap = %d, want 1", n)
		}

		stale, _ := s.Get(context.Background(), "stale")
		fresh, _ := s.Get(context.Background(), "fresh")
		if stale.Active {
			t.Error("stale session should be deactivated")
		}
		if !fresh.Active {
			t.Error("fresh session should be untouched")
		}

		// Second sweep finds nothing.
		if n, _ := s.Reap(context.Background(), base); n != 0 {
			t.Errorf("second Reap = %d, want 0", n)
		}
	})
}
