// Package session mints, validates, and destroys short-lived server-side
// sessions. A session binds an opaque client-presented identifier to a
// user id for a fixed TTL; validation never renews the TTL (no sliding
// expiration).
package session

import (
	"context"
	"errors"
	"time"

	"github.com/averell07/authgate/internal/token"
)

var (
	// ErrNotFound is returned when no session exists for the id.
	ErrNotFound = errors.New("session not found")
	// ErrExpired is returned when the session exists but its TTL has
	// elapsed; the stale record is evicted on the way out.
	ErrExpired = errors.New("session expired")
	// ErrBackendUnavailable indicates the session store is unreachable.
	ErrBackendUnavailable = errors.New("session backend unavailable")
)

// Session is the server-side record behind one authenticated browser
// context.
type Session struct {
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store persists sessions keyed by their opaque id.
type Store interface {
	Save(ctx context.Context, id string, sess Session, ttl time.Duration) error
	// Get returns ErrNotFound for unknown ids and ErrExpired for stale
	// records, evicting the latter.
	Get(ctx context.Context, id string) (Session, error)
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
}

// Manager owns id minting and TTL policy on top of a Store.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Create mints a session for userID and returns its opaque id.
func (m *Manager) Create(ctx context.Context, userID string) (string, error) {
	id, err := token.NewID()
	if err != nil {
		return "", err
	}

	now := m.now()
	sess := Session{
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, id.String(), sess, m.ttl); err != nil {
		return "", err
	}

	return id.String(), nil
}

// Validate returns the owning user id when the session exists and is
// unexpired. Malformed ids fail as not found without touching the store.
func (m *Manager) Validate(ctx context.Context, id string) (string, error) {
	if _, err := token.ParseID(id); err != nil {
		return "", ErrNotFound
	}

	sess, err := m.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return sess.UserID, nil
}

// Destroy removes the session. Destroying an unknown id is not an error.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}
