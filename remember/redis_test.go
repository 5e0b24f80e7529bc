package remember

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewManager(NewRedisStore(rdb, ""), 30*24*time.Hour), mr
}

func TestRedisIssueValidateRevoke(t *testing.T) {
	m, _ := newTestRedisManager(t)
	ctx := context.Background()

	tok, err := m.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	uid, err := m.Validate(ctx, tok)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if uid != "u1" {
		t.Fatalf("expected u1, got %q", uid)
	}

	if err := m.Revoke(ctx, tok); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := m.Validate(ctx, tok); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after revoke, got %v", err)
	}
}

func TestRedisTokenExpiresViaTTL(t *testing.T) {
	m, mr := newTestRedisManager(t)
	ctx := context.Background()

	tok, _ := m.Issue(ctx, "u1")

	mr.FastForward(30*24*time.Hour + time.Second)

	if _, err := m.Validate(ctx, tok); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after TTL expiry, got %v", err)
	}
}
