package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/authorityengine/billing/pkg/catalog"
)

// memoryStore is an in-memory Store used in tests and single-process
// deployments. A single mutex serializes every mutation, which gives Update
// and ExpireOverdue their required atomicity for free.
type memoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Record
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{
		records: make(map[uuid.UUID]*Record),
	}
}

func (s *memoryStore) Get(ctx context.Context, userID uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.clone(), nil
}

func (s *memoryStore) Create(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.UserID]; ok {
		return ErrAlreadyExists
	}
	s.records[rec.UserID] = rec.clone()
	return nil
}

func (s *memoryStore) Update(ctx context.Context, userID uuid.UUID, fn func(*Record) error) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return nil, ErrNotFound
	}

	updated := rec.clone()
	if err := fn(updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = time.Now().UTC()
	s.records[userID] = updated
	return updated.clone(), nil
}

func (s *memoryStore) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for id, rec := range s.records {
		if rec.Status != StatusPastDue {
			continue
		}
		deadline, ok := rec.GraceDeadline()
		if !ok || now.Before(deadline) {
			continue
		}

		updated := rec.clone()
		updated.Status = StatusExpired
		updated.Tier = catalog.TierFree
		updated.BillingCycle = ""
		updated.CancelAtPeriodEnd = false
		updated.GracePeriodStartedAt = nil
		updated.UpdatedAt = now
		s.records[id] = updated
		expired++
	}
	return expired, nil
}
