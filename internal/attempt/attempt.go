// Package attempt tracks failed sign-in attempts per identifier and
// computes temporary lockout state.
//
// A record is created on the first failure, incremented on every further
// failure, and fully removed on successful authentication or once an
// active lockout has elapsed. Lockout expiry is a full reset, never a
// rolling window: after it passes the identifier starts from a clean
// slate.
package attempt

import (
	"context"
	"errors"
	"time"
)

// Config holds lockout tuning parameters.
type Config struct {
	Threshold       int
	LockoutDuration time.Duration
}

// Status is the result of a Check call.
type Status struct {
	Allowed           bool
	RemainingAttempts int
	LockedOut         bool
	LockoutRemaining  time.Duration
}

// ErrBackendUnavailable indicates the attempt store backend is unreachable.
var ErrBackendUnavailable = errors.New("attempt backend unavailable")

// Tracker is the failure-counting contract. Record, Check, and Clear on
// the same identifier are linearizable: two interleaved failures never
// lose an increment.
type Tracker interface {
	// Record counts one failure. It returns the new failure count and
	// whether this failure pushed the identifier over the lockout
	// threshold.
	Record(ctx context.Context, identifier string) (count int, locked bool, err error)

	// Check reports whether the identifier may attempt authentication.
	// An elapsed lockout is reset in place before reporting.
	Check(ctx context.Context, identifier string) (Status, error)

	// Clear removes the failure record entirely.
	Clear(ctx context.Context, identifier string) error
}

type record struct {
	count         int
	lastAttemptAt time.Time
	lockoutUntil  time.Time
}

func (r *record) locked(now time.Time) bool {
	return !r.lockoutUntil.IsZero() && now.Before(r.lockoutUntil)
}

func (r *record) lockoutElapsed(now time.Time) bool {
	return !r.lockoutUntil.IsZero() && !now.Before(r.lockoutUntil)
}

func statusFor(r *record, cfg Config, now time.Time) Status {
	if r == nil {
		return Status{Allowed: true, RemainingAttempts: cfg.Threshold}
	}
	if r.locked(now) {
		return Status{
			LockedOut:        true,
			LockoutRemaining: r.lockoutUntil.Sub(now),
		}
	}

	remaining := cfg.Threshold - r.count
	if remaining < 0 {
		remaining = 0
	}
	return Status{Allowed: true, RemainingAttempts: remaining}
}
