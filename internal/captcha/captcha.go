// Package captcha issues and verifies one-time arithmetic challenges.
//
// A challenge is consumed by its first Verify call no matter the outcome:
// the stored answer is removed before it is compared, so retrying against
// the same challenge id always fails and callers must issue a new one.
package captcha

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrChallengeNotFound is returned when the challenge id is unknown,
	// expired, or already consumed.
	ErrChallengeNotFound = errors.New("captcha challenge not found")
	// ErrWrongAnswer is returned when an unconsumed challenge exists but
	// the provided answer does not match.
	ErrWrongAnswer = errors.New("captcha answer incorrect")
	// ErrBackendUnavailable indicates the challenge store is unreachable.
	ErrBackendUnavailable = errors.New("captcha backend unavailable")
)

// Challenge is the caller-visible half of a puzzle. The answer stays in
// the store and is never exposed.
type Challenge struct {
	ID       string
	Question string
}

// Record is the stored half of a challenge.
type Record struct {
	Answer    int64
	ExpiresAt time.Time
}

// Store holds pending challenges. Consume removes the record and returns
// it in one atomic step; ok is false when the id is absent.
type Store interface {
	Save(ctx context.Context, id string, rec Record, ttl time.Duration) error
	Consume(ctx context.Context, id string) (Record, bool, error)
}

// Issuer generates arithmetic challenges and checks answers against the
// one-time store.
type Issuer struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewIssuer(store Store, ttl time.Duration) *Issuer {
	return &Issuer{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Issue creates a fresh challenge. Operand ranges are chosen per operator
// so the answer is always a non-negative, human-sized integer.
func (i *Issuer) Issue(ctx context.Context) (Challenge, error) {
	question, answer, err := newPuzzle()
	if err != nil {
		return Challenge{}, err
	}

	id := uuid.NewString()
	rec := Record{
		Answer:    answer,
		ExpiresAt: i.now().Add(i.ttl),
	}
	if err := i.store.Save(ctx, id, rec, i.ttl); err != nil {
		return Challenge{}, err
	}

	return Challenge{ID: id, Question: question}, nil
}

// Verify consumes the challenge and checks the answer. The record is
// deleted before comparison, so a second call with the same id fails with
// ErrChallengeNotFound even when the answer is correct.
func (i *Issuer) Verify(ctx context.Context, id string, answer int64) error {
	rec, ok, err := i.store.Consume(ctx, id)
	if err != nil {
		return err
	}
	if !ok || i.now().After(rec.ExpiresAt) {
		return ErrChallengeNotFound
	}
	if answer != rec.Answer {
		return ErrWrongAnswer
	}
	return nil
}

func newPuzzle() (string, int64, error) {
	op, err := randInt(3)
	if err != nil {
		return "", 0, err
	}

	var (
		a, b   int64
		symbol string
		answer int64
	)

	switch op {
	case 0: // addition, 1..50 each
		a, err = randRange(1, 50)
		if err == nil {
			b, err = randRange(1, 50)
		}
		symbol = "+"
		answer = a + b
	case 1: // subtraction, minuend >= subtrahend so the answer stays non-negative
		a, err = randRange(10, 99)
		if err == nil {
			b, err = randRange(1, a)
		}
		symbol = "-"
		answer = a - b
	default: // multiplication, 2..12 each
		a, err = randRange(2, 12)
		if err == nil {
			b, err = randRange(2, 12)
		}
		symbol = "×"
		answer = a * b
	}
	if err != nil {
		return "", 0, err
	}

	return fmt.Sprintf("%d %s %d", a, symbol, b), answer, nil
}

func randInt(n int64) (int64, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0, err
	}
	return v.Int64(), nil
}

// randRange returns a uniform value in [lo, hi].
func randRange(lo, hi int64) (int64, error) {
	v, err := randInt(hi - lo + 1)
	if err != nil {
		return 0, err
	}
	return lo + v, nil
}
