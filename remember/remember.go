// Package remember manages long-lived "remember me" tokens.
//
// A token is the concatenation of a record id and a random secret,
// encoded as one opaque string. Only the SHA-256 of the secret is stored
// server-side, so a leaked store cannot be replayed as tokens. Validating
// a token never creates a session by itself; callers re-establish a
// short-lived session on success.
package remember

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/averell07/authgate/internal/token"
)

var (
	// ErrNotFound covers every validation failure a caller may see:
	// malformed, unknown, expired, and secret-mismatch tokens are
	// deliberately indistinguishable.
	ErrNotFound = errors.New("remember token not found")
	// ErrBackendUnavailable indicates the token store is unreachable.
	ErrBackendUnavailable = errors.New("remember token backend unavailable")
)

// Record is the server-side half of a remember token.
type Record struct {
	UserID     string
	SecretHash [32]byte
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Store persists records keyed by the token's id half.
type Store interface {
	Save(ctx context.Context, id string, rec Record, ttl time.Duration) error
	Get(ctx context.Context, id string) (Record, bool, error)
	Delete(ctx context.Context, id string) error
}

// Manager owns token minting, validation, and revocation policy.
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

// Issue mints a token for userID and returns the encoded client-side
// credential. The raw secret is not retained.
func (m *Manager) Issue(ctx context.Context, userID string) (string, error) {
	id, err := token.NewID()
	if err != nil {
		return "", err
	}
	secret, err := token.NewRememberSecret()
	if err != nil {
		return "", err
	}

	now := m.now()
	rec := Record{
		UserID:     userID,
		SecretHash: token.HashRememberSecret(secret),
		CreatedAt:  now,
		ExpiresAt:  now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, id.String(), rec, m.ttl); err != nil {
		return "", err
	}

	return token.EncodeRememberToken(id, secret), nil
}

// Validate returns the owning user id for a live token. Stale and forged
// entries are deleted on the way out; the caller only ever learns
// ErrNotFound.
func (m *Manager) Validate(ctx context.Context, tok string) (string, error) {
	id, secret, err := token.DecodeRememberToken(tok)
	if err != nil {
		return "", ErrNotFound
	}

	rec, ok, err := m.store.Get(ctx, id.String())
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotFound
	}
	if !m.now().Before(rec.ExpiresAt) {
		_ = m.store.Delete(ctx, id.String())
		return "", ErrNotFound
	}

	providedHash := token.HashRememberSecret(secret)
	if subtle.ConstantTimeCompare(providedHash[:], rec.SecretHash[:]) != 1 {
		// A well-formed token with the wrong secret means someone is
		// guessing against a live id; burn the record.
		_ = m.store.Delete(ctx, id.String())
		return "", ErrNotFound
	}

	return rec.UserID, nil
}

// Revoke deletes the token's record. Revoking an unknown or malformed
// token is not an error.
func (m *Manager) Revoke(ctx context.Context, tok string) error {
	id, _, err := token.DecodeRememberToken(tok)
	if err != nil {
		return nil
	}
	return m.store.Delete(ctx, id.String())
}
