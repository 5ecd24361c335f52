package usage

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/authorityengine/billing/pkg/catalog"
	"github.com/authorityengine/billing/pkg/subscription"
)

// RecordSource yields the subscription record that defines a user's current
// billing period and effective tier. Satisfied by *subscription.Service.
type RecordSource interface {
	Get(ctx context.Context, userID uuid.UUID) (*subscription.Record, error)
}

// Usage is the advisory read of one counter against its limit.
type Usage struct {
	Used  int64 `json:"used"`
	Limit int64 `json:"limit"`
}

// Remaining returns how many units are left, or Unlimited.
func (u Usage) Remaining() int64 {
	if u.Limit == catalog.Unlimited {
		return catalog.Unlimited
	}
	return max(u.Limit-u.Used, 0)
}

// Decision is the outcome of an authoritative consume attempt. Denied is an
// expected outcome, not an error: Used and Limit accompany it so the caller
// can surface an upgrade prompt.
type Decision struct {
	Allowed bool  `json:"allowed"`
	Used    int64 `json:"used"`
	Limit   int64 `json:"limit"`
}

// Snapshot is the dashboard projection of every counter in the current
// period.
type Snapshot struct {
	Tier           catalog.Tier               `json:"tier"`
	PeriodStart    time.Time                  `json:"period_start"`
	PeriodEnd      time.Time                  `json:"period_end"`
	DaysUntilReset int                        `json:"period_resets_in_days"`
	Resources      map[catalog.Resource]Usage `json:"resources"`
}

// Ledger composes the tier catalog, the subscription record and a counter
// Store into the metering API. It holds no state of its own; every call
// re-derives period and tier so that grace expiry and payment confirmations
// are visible immediately.
type Ledger struct {
	catalog *catalog.Catalog
	records RecordSource
	store   Store
	now     func() time.Time
	log     *slog.Logger
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithClock replaces the time source. Intended for tests.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) LedgerOption {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLedger creates a Ledger. Panics if any dependency is nil to fail fast
// during initialization.
func NewLedger(cat *catalog.Catalog, records RecordSource, store Store, opts ...LedgerOption) *Ledger {
	if cat == nil {
		panic("usage: catalog is required")
	}
	if records == nil {
		panic("usage: record source is required")
	}
	if store == nil {
		panic("usage: counter store is required")
	}

	l := &Ledger{
		catalog: cat,
		records: records,
		store:   store,
		now:     func() time.Time { return time.Now().UTC() },
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) resolve(ctx context.Context, userID uuid.UUID, res catalog.Resource) (*subscription.Record, Key, int64, error) {
	rec, err := l.records.Get(ctx, userID)
	if err != nil {
		return nil, Key{}, 0, err
	}

	tier := rec.EffectiveTierAt(l.now())
	limit, err := l.catalog.LimitFor(tier, res)
	if err != nil {
		return nil, Key{}, 0, err
	}

	key := Key{UserID: userID, PeriodStart: rec.CurrentPeriodStart, Resource: res}
	return rec, key, limit, nil
}

// Peek returns the current count and limit for display. Advisory only: the
// authoritative gate is TryConsume at the moment the action executes.
func (l *Ledger) Peek(ctx context.Context, userID uuid.UUID, res catalog.Resource) (Usage, error) {
	_, key, limit, err := l.resolve(ctx, userID, res)
	if err != nil {
		return Usage{}, err
	}

	count, err := l.store.Count(ctx, key)
	if err != nil {
		return Usage{}, err
	}
	return Usage{Used: count, Limit: limit}, nil
}

// TryConsume atomically claims n units of a resource within the current
// period. An unlimited resource is always allowed without touching the
// store; an unavailable resource (limit 0) is always denied without reading
// the counter. Anything else is decided by the store's atomic
// increment-with-limit-check.
func (l *Ledger) TryConsume(ctx context.Context, userID uuid.UUID, res catalog.Resource, n int64) (Decision, error) {
	if n <= 0 {
		return Decision{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, n)
	}

	_, key, limit, err := l.resolve(ctx, userID, res)
	if err != nil {
		return Decision{}, err
	}

	switch {
	case limit == catalog.Unlimited:
		return Decision{Allowed: true, Limit: catalog.Unlimited}, nil
	case limit == 0:
		return Decision{Allowed: false, Used: 0, Limit: 0}, nil
	}

	count, allowed, err := l.store.ConsumeIfBelow(ctx, key, n, limit)
	if err != nil {
		return Decision{}, err
	}
	if !allowed {
		l.log.DebugContext(ctx, "consume denied at limit",
			slog.String("user_id", userID.String()),
			slog.String("resource", string(res)),
			slog.Int64("used", count),
			slog.Int64("limit", limit))
	}
	return Decision{Allowed: allowed, Used: count, Limit: limit}, nil
}

// Snapshot returns every counter and limit for the user's current period,
// plus how many days remain until the period resets.
func (l *Ledger) Snapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	rec, err := l.records.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := l.now()
	tier := rec.EffectiveTierAt(now)

	snap := &Snapshot{
		Tier:        tier,
		PeriodStart: rec.CurrentPeriodStart,
		PeriodEnd:   rec.CurrentPeriodEnd,
		Resources:   make(map[catalog.Resource]Usage),
	}
	if remaining := rec.CurrentPeriodEnd.Sub(now); remaining > 0 {
		snap.DaysUntilReset = int(math.Ceil(remaining.Hours() / 24))
	}

	for _, res := range l.catalog.Resources() {
		limit, err := l.catalog.LimitFor(tier, res)
		if err != nil {
			return nil, err
		}
		count, err := l.store.Count(ctx, Key{UserID: userID, PeriodStart: rec.CurrentPeriodStart, Resource: res})
		if err != nil {
			return nil, err
		}
		snap.Resources[res] = Usage{Used: count, Limit: limit}
	}
	return snap, nil
}
