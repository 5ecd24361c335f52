package usage

import (
	"context"
	"fmt"
	"sync"
)

// memoryStore keeps counters in a map guarded by one mutex, which makes
// ConsumeIfBelow trivially atomic. Suitable for tests and single-process
// deployments.
type memoryStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemoryStore returns an empty in-memory counter Store.
func NewMemoryStore() Store {
	return &memoryStore{
		counters: make(map[string]int64),
	}
}

func (k Key) mapKey() string {
	return fmt.Sprintf("%s|%d|%s", k.UserID, k.PeriodStart.UTC().Unix(), k.Resource)
}

func (s *memoryStore) Count(ctx context.Context, key Key) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[key.mapKey()], nil
}

func (s *memoryStore) ConsumeIfBelow(ctx context.Context, key Key, n, limit int64) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mk := key.mapKey()
	current := s.counters[mk]
	if current+n > limit {
		return current, false, nil
	}
	current += n
	s.counters[mk] = current
	return current, true, nil
}
