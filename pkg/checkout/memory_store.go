package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/authorityengine/billing/pkg/catalog"
)

// MemoryStore is an in-memory Store implementation for development and
// tests. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	intents map[string]*Intent
}

// NewMemoryStore creates an empty in-memory intent store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{intents: make(map[string]*Intent)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*Intent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	intent, ok := s.intents[sessionID]
	if !ok {
		return nil, ErrIntentNotFound
	}
	return intent.clone(), nil
}

func (s *MemoryStore) Create(_ context.Context, intent *Intent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.intents[intent.SessionID] = intent.clone()
	return nil
}

func (s *MemoryStore) Mark(_ context.Context, sessionID string, from, to Status, now time.Time) (*Intent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, ok := s.intents[sessionID]
	if !ok {
		return nil, false, ErrIntentNotFound
	}
	if intent.Status != from {
		return intent.clone(), false, nil
	}

	intent.Status = to
	intent.UpdatedAt = now
	return intent.clone(), true, nil
}

func (s *MemoryStore) ExpirePending(_ context.Context, userID uuid.UUID, tier catalog.Tier, cycle catalog.BillingCycle, currency catalog.Currency, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for _, intent := range s.intents {
		if intent.Status != StatusPending {
			continue
		}
		if intent.UserID != userID || intent.Tier != tier || intent.Cycle != cycle || intent.Currency != currency {
			continue
		}
		intent.Status = StatusExpired
		intent.UpdatedAt = now
		expired++
	}
	return expired, nil
}
