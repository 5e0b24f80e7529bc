package attempt

import (
	"context"
	"sync"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{Threshold: 3, LockoutDuration: time.Hour}
}

func TestMemoryCheckUnknownIdentifier(t *testing.T) {
	tr := NewMemoryTracker(testConfig())

	st, err := tr.Check(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !st.Allowed || st.RemainingAttempts != 3 || st.LockedOut {
		t.Fatalf("expected clean slate, got %+v", st)
	}
}

func TestMemoryThirdFailureLocksOut(t *testing.T) {
	tr := NewMemoryTracker(testConfig())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, locked, err := tr.Record(ctx, "u1")
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		if locked {
			t.Fatalf("failure %d should not lock", i+1)
		}
	}

	count, locked, err := tr.Record(ctx, "u1")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if count != 3 || !locked {
		t.Fatalf("expected lockout on third failure, got count=%d locked=%v", count, locked)
	}

	st, err := tr.Check(ctx, "u1")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !st.LockedOut || st.RemainingAttempts != 0 {
		t.Fatalf("expected locked status, got %+v", st)
	}
	if st.LockoutRemaining <= 59*time.Minute || st.LockoutRemaining > time.Hour {
		t.Fatalf("unexpected lockout remaining: %v", st.LockoutRemaining)
	}
}

func TestMemoryLockoutExpiryFullReset(t *testing.T) {
	tr := NewMemoryTracker(testConfig())
	ctx := context.Background()

	base := time.Now()
	tr.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		tr.Record(ctx, "u1")
	}

	// One second past the lockout window: history must be gone entirely,
	// not partially decayed.
	tr.now = func() time.Time { return base.Add(time.Hour + time.Second) }

	st, err := tr.Check(ctx, "u1")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !st.Allowed || st.RemainingAttempts != 3 || st.LockedOut {
		t.Fatalf("expected full reset after lockout expiry, got %+v", st)
	}
}

func TestMemoryRecordAfterElapsedLockoutStartsFresh(t *testing.T) {
	tr := NewMemoryTracker(testConfig())
	ctx := context.Background()

	base := time.Now()
	tr.now = func() time.Time { return base }
	for i := 0; i < 3; i++ {
		tr.Record(ctx, "u1")
	}

	tr.now = func() time.Time { return base.Add(2 * time.Hour) }
	count, locked, err := tr.Record(ctx, "u1")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if count != 1 || locked {
		t.Fatalf("expected fresh history after elapsed lockout, got count=%d locked=%v", count, locked)
	}
}

func TestMemoryClearRemovesHistory(t *testing.T) {
	tr := NewMemoryTracker(testConfig())
	ctx := context.Background()

	tr.Record(ctx, "u1")
	tr.Record(ctx, "u1")
	if err := tr.Clear(ctx, "u1"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	st, _ := tr.Check(ctx, "u1")
	if st.RemainingAttempts != 3 {
		t.Fatalf("expected 3 attempts after clear, got %d", st.RemainingAttempts)
	}
}

func TestMemoryConcurrentRecordsLoseNothing(t *testing.T) {
	tr := NewMemoryTracker(Config{Threshold: 1000, LockoutDuration: time.Hour})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Record(ctx, "u1")
		}()
	}
	wg.Wait()

	st, _ := tr.Check(ctx, "u1")
	if got := 1000 - st.RemainingAttempts; got != 100 {
		t.Fatalf("expected 100 recorded failures, got %d", got)
	}
}

func TestMemorySweepOnlyEvictsElapsedLockouts(t *testing.T) {
	tr := NewMemoryTracker(testConfig())
	ctx := context.Background()

	base := time.Now()
	tr.now = func() time.Time { return base }

	tr.Record(ctx, "partial") // 1 failure, no lockout
	for i := 0; i < 3; i++ {
		tr.Record(ctx, "locked")
	}

	if n := tr.Sweep(base.Add(2 * time.Hour)); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}

	st, _ := tr.Check(ctx, "partial")
	if st.RemainingAttempts != 2 {
		t.Fatalf("partial history must survive sweep, got %+v", st)
	}
}
