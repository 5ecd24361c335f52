package entitlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/authorityengine/billing/pkg/catalog"
	"github.com/authorityengine/billing/pkg/subscription"
	"github.com/authorityengine/billing/pkg/usage"
)

// RecordSource resolves the subscription record for a user. Satisfied by
// *subscription.Service.
type RecordSource interface {
	Get(ctx context.Context, userID uuid.UUID) (*subscription.Record, error)
}

// Meter is the read side of the usage ledger. Satisfied by *usage.Ledger.
type Meter interface {
	Peek(ctx context.Context, userID uuid.UUID, res catalog.Resource) (usage.Usage, error)
}

// Resolver answers entitlement queries by composing the catalog, the
// subscription record, and the usage ledger per call.
type Resolver struct {
	catalog *catalog.Catalog
	records RecordSource
	meter   Meter
	now     func() time.Time
	log     *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger used when a query degrades to free tier.
func WithLogger(log *slog.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// NewResolver creates an entitlement resolver. Panics if any dependency is
// nil to fail fast during initialization.
func NewResolver(cat *catalog.Catalog, records RecordSource, meter Meter, opts ...Option) *Resolver {
	if cat == nil {
		panic("entitlement: catalog is required")
	}
	if records == nil {
		panic("entitlement: record source is required")
	}
	if meter == nil {
		panic("entitlement: usage meter is required")
	}

	r := &Resolver{
		catalog: cat,
		records: records,
		meter:   meter,
		now:     time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EffectiveTier returns the tier the user is granted right now, accounting
// for grace-period degradation and scheduled cancellation. Any resolution
// failure degrades to free.
func (r *Resolver) EffectiveTier(ctx context.Context, userID uuid.UUID) catalog.Tier {
	rec, err := r.records.Get(ctx, userID)
	if err != nil {
		r.log.ErrorContext(ctx, "entitlement resolution failed, degrading to free",
			slog.String("user_id", userID.String()),
			slog.Any("error", err))
		return catalog.TierFree
	}
	return rec.EffectiveTierAt(r.now())
}

// HasFeature reports whether the user's effective tier unlocks the
// feature. Unknown features are denied.
func (r *Resolver) HasFeature(ctx context.Context, userID uuid.UUID, feature catalog.Feature) bool {
	return r.catalog.HasFeature(r.EffectiveTier(ctx, userID), feature)
}

// CanUse reports whether the user has headroom for at least one more unit
// of the resource. Advisory only: tier and count can change between this
// check and the action, so callers must still gate the action itself with
// the ledger's TryConsume.
func (r *Resolver) CanUse(ctx context.Context, userID uuid.UUID, res catalog.Resource) bool {
	u, err := r.meter.Peek(ctx, userID, res)
	if err != nil {
		r.log.ErrorContext(ctx, "usage peek failed, denying",
			slog.String("user_id", userID.String()),
			slog.String("resource", string(res)),
			slog.Any("error", err))
		return false
	}
	if u.Limit == catalog.Unlimited {
		return true
	}
	return u.Used < u.Limit
}
