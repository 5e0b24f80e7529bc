package captcha

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewRedisStore(rdb, ""), mr
}

func TestRedisConsumeIsOneShot(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	rec := Record{Answer: 12, ExpiresAt: time.Now().Add(5 * time.Minute)}
	if err := store.Save(ctx, "c1", rec, 5*time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok, err := store.Consume(ctx, "c1")
	if err != nil || !ok {
		t.Fatalf("Consume failed: ok=%v err=%v", ok, err)
	}
	if got.Answer != 12 {
		t.Fatalf("expected answer 12, got %d", got.Answer)
	}

	if _, ok, _ := store.Consume(ctx, "c1"); ok {
		t.Fatal("second consume must miss")
	}
}

func TestRedisChallengeExpiresViaTTL(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	rec := Record{Answer: 7, ExpiresAt: time.Now().Add(5 * time.Minute)}
	store.Save(ctx, "c1", rec, 5*time.Minute)

	mr.FastForward(5*time.Minute + time.Second)

	if _, ok, _ := store.Consume(ctx, "c1"); ok {
		t.Fatal("expired challenge must not be consumable")
	}
}

func TestRedisIssuerEndToEnd(t *testing.T) {
	store, _ := newTestRedisStore(t)
	iss := NewIssuer(store, 5*time.Minute)
	ctx := context.Background()

	ch, err := iss.Issue(ctx)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	answer := solve(t, ch.Question)

	if err := iss.Verify(ctx, ch.ID, answer); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if err := iss.Verify(ctx, ch.ID, answer); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound on replay, got %v", err)
	}
}
