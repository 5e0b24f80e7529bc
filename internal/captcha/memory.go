package captcha

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps pending challenges in a mutex-guarded map.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
	}
}

func (s *MemoryStore) Save(_ context.Context, id string, rec Record, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[id] = rec
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, id string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if ok {
		delete(s.records, id)
	}
	return rec, ok, nil
}

// Sweep evicts expired challenges that were never verified.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, rec := range s.records {
		if now.After(rec.ExpiresAt) {
			delete(s.records, id)
			evicted++
		}
	}
	return evicted
}
