package authgate

import (
	"sync"
	"sync/atomic"
	"time"
)

// reaper periodically evicts expired records from the memory stores.
// Correctness never depends on it; reads self-heal stale entries. It only
// bounds memory between reads.
type reaper struct {
	interval time.Duration
	sweeps   []func(now time.Time) int
	evicted  atomic.Uint64

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func newReaper(interval time.Duration, sweeps ...func(time.Time) int) *reaper {
	r := &reaper{
		interval: interval,
		sweeps:   sweeps,
		done:     make(chan struct{}),
	}

	r.wg.Add(1)
	go r.run()

	return r
}

func (r *reaper) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			for _, sweep := range r.sweeps {
				r.evicted.Add(uint64(sweep(now)))
			}
		case <-r.done:
			return
		}
	}
}

func (r *reaper) stop() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
}

func (r *reaper) evictedTotal() uint64 {
	if r == nil {
		return 0
	}
	return r.evicted.Load()
}
