package attempt

import (
	"context"
	"sync"
	"time"
)

// MemoryTracker is the in-process Tracker. One mutex guards the whole
// map; every operation is a handful of map lookups, so the critical
// section is short enough that per-key locking would buy nothing.
type MemoryTracker struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	records map[string]*record
}

func NewMemoryTracker(cfg Config) *MemoryTracker {
	return &MemoryTracker{
		cfg:     cfg,
		now:     time.Now,
		records: make(map[string]*record),
	}
}

func (t *MemoryTracker) Record(_ context.Context, identifier string) (int, bool, error) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.records[identifier]
	if r != nil && r.lockoutElapsed(now) {
		// Stale lockout: the slate was wiped when it elapsed, this
		// failure starts a new history.
		r = nil
	}
	if r == nil {
		r = &record{}
		t.records[identifier] = r
	}

	r.count++
	r.lastAttemptAt = now

	locked := false
	if r.count >= t.cfg.Threshold && r.lockoutUntil.IsZero() {
		r.lockoutUntil = now.Add(t.cfg.LockoutDuration)
		locked = true
	}

	return r.count, locked, nil
}

func (t *MemoryTracker) Check(_ context.Context, identifier string) (Status, error) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.records[identifier]
	if r != nil && r.lockoutElapsed(now) {
		delete(t.records, identifier)
		r = nil
	}

	return statusFor(r, t.cfg, now), nil
}

func (t *MemoryTracker) Clear(_ context.Context, identifier string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.records, identifier)
	return nil
}

// Sweep evicts records whose lockout has elapsed. Failure histories that
// never reached the threshold are kept: they only reset on success.
func (t *MemoryTracker) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	evicted := 0
	for id, r := range t.records {
		if r.lockoutElapsed(now) {
			delete(t.records, id)
			evicted++
		}
	}
	return evicted
}
