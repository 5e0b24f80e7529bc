package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestManager(t *testing.T) (*Manager, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewManager(store, 24*time.Hour), store
}

func TestCreateThenValidate(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	id, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty session id")
	}

	uid, err := m.Validate(ctx, id)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if uid != "u1" {
		t.Fatalf("expected u1, got %q", uid)
	}
}

func TestValidateJustBeforeAndAfterTTL(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	base := time.Now()
	m.now = func() time.Time { return base }
	store.now = func() time.Time { return base }

	id, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// 23h59m in: still valid.
	store.now = func() time.Time { return base.Add(24*time.Hour - time.Minute) }
	if _, err := m.Validate(ctx, id); err != nil {
		t.Fatalf("Validate before TTL failed: %v", err)
	}

	// 24h1s in: expired.
	store.now = func() time.Time { return base.Add(24*time.Hour + time.Second) }
	if _, err := m.Validate(ctx, id); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}

	// The expired record was evicted; further lookups miss entirely.
	if _, err := m.Validate(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after eviction, got %v", err)
	}
}

func TestDestroyThenValidateFails(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	id, _ := m.Create(ctx, "u1")
	if err := m.Destroy(ctx, id); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if _, err := m.Validate(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after destroy, got %v", err)
	}

	// Destroy is idempotent.
	if err := m.Destroy(ctx, id); err != nil {
		t.Fatalf("second Destroy failed: %v", err)
	}
}

func TestValidateMalformedID(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.Validate(context.Background(), "!!!not-an-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
}

func TestValidateDoesNotSlideExpiry(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	base := time.Now()
	m.now = func() time.Time { return base }
	store.now = func() time.Time { return base }

	id, _ := m.Create(ctx, "u1")

	// Repeated validations near the end of the window must not extend it.
	store.now = func() time.Time { return base.Add(23 * time.Hour) }
	for i := 0; i < 5; i++ {
		if _, err := m.Validate(ctx, id); err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
	}

	store.now = func() time.Time { return base.Add(25 * time.Hour) }
	if _, err := m.Validate(ctx, id); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired despite recent validations, got %v", err)
	}
}

func TestMemorySweep(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	now := time.Now()
	store.Save(ctx, "live", Session{UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}, time.Hour)
	store.Save(ctx, "stale", Session{UserID: "u2", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}, time.Hour)

	if n := store.Sweep(now); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, err := store.Get(ctx, "live"); err != nil {
		t.Fatalf("live session must survive sweep: %v", err)
	}
}
