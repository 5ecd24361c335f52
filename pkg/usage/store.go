package usage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/authorityengine/billing/pkg/catalog"
)

// Key identifies one usage counter: a user's consumption of one resource
// within one billing period. Counters for past periods are retained for
// history and never written again.
type Key struct {
	UserID      uuid.UUID
	PeriodStart time.Time
	Resource    catalog.Resource
}

// Store persists usage counters. A missing counter reads as zero; the first
// consume materializes it.
type Store interface {
	// Count returns the current value of a counter, zero if absent.
	Count(ctx context.Context, key Key) (int64, error)

	// ConsumeIfBelow atomically increments the counter by n if and only if
	// the result would not exceed limit. Returns the counter value after
	// the call and whether the increment was applied. The compare and the
	// increment must execute as a single atomic operation so that
	// concurrent callers near the limit cannot jointly overshoot it.
	// limit is always a finite non-negative cap; the Ledger short-circuits
	// unlimited and zero limits before reaching the store.
	ConsumeIfBelow(ctx context.Context, key Key, n, limit int64) (count int64, allowed bool, err error)
}
