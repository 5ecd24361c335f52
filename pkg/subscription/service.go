package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/authorityengine/billing/pkg/catalog"
)

// DefaultGracePeriodHours is the grace window stamped on a record when a
// renewal payment fails, unless overridden via WithGracePeriodHours.
const DefaultGracePeriodHours = 48

// Config carries the tunable subscription policy.
type Config struct {
	GracePeriod time.Duration `env:"BILLING_GRACE_PERIOD" envDefault:"48h"`
}

// Service owns all writes to subscription records. Every method is
// idempotent with respect to duplicate delivery: re-applying an
// already-applied transition is a logged no-op, never an error.
type Service struct {
	store      Store
	graceHours int
	now        func() time.Time
	log        *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithGracePeriodHours overrides the grace window stamped on payment
// failure. Non-positive values are ignored.
func WithGracePeriodHours(hours int) Option {
	return func(s *Service) {
		if hours > 0 {
			s.graceHours = hours
		}
	}
}

// WithClock replaces the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates a subscription Service. Panics if store is nil to fail
// fast during initialization.
func NewService(store Store, opts ...Option) *Service {
	if store == nil {
		panic("subscription: Store is required")
	}

	s := &Service{
		store:      store,
		graceHours: DefaultGracePeriodHours,
		now:        func() time.Time { return time.Now().UTC() },
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// monthWindow returns the calendar-month window containing now, used as the
// usage period for free-tier records.
func monthWindow(now time.Time) (start, end time.Time) {
	start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}

// Get returns the user's record, creating it lazily as free/active on first
// access and applying any due period rollover before returning. The
// returned record always has an open period containing the current instant,
// except while past_due, where the period is frozen pending payment or
// expiry.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Record, error) {
	rec, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		rec, err = s.createFree(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	return s.rollPeriodIfDue(ctx, rec)
}

func (s *Service) createFree(ctx context.Context, userID uuid.UUID) (*Record, error) {
	now := s.now()
	start, end := monthWindow(now)
	rec := &Record{
		UserID:             userID,
		Tier:               catalog.TierFree,
		Status:             StatusActive,
		Currency:           catalog.DefaultCurrency,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   end,
		GracePeriodHours:   s.graceHours,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := s.store.Create(ctx, rec)
	if errors.Is(err, ErrAlreadyExists) {
		// Lost the creation race; the winner's record is authoritative.
		return s.store.Get(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("create free record: %w", err)
	}
	return rec, nil
}

// rollPeriodIfDue advances the record past an elapsed period boundary. Free
// records snap to the calendar month; active paid records either roll
// forward by their cycle length or, when cancellation was scheduled, demote
// to free. Past-due records are left frozen: grace handling owns them.
func (s *Service) rollPeriodIfDue(ctx context.Context, rec *Record) (*Record, error) {
	now := s.now()
	if now.Before(rec.CurrentPeriodEnd) || rec.Status == StatusPastDue {
		return rec, nil
	}

	return s.store.Update(ctx, rec.UserID, func(r *Record) error {
		// Re-check under the store's write lock; a concurrent caller may
		// already have rolled the period.
		if now.Before(r.CurrentPeriodEnd) || r.Status == StatusPastDue {
			return nil
		}

		if r.Tier == catalog.TierFree || r.Status == StatusExpired || r.Status == StatusCancelled {
			r.CurrentPeriodStart, r.CurrentPeriodEnd = monthWindow(now)
			return nil
		}

		if r.CancelAtPeriodEnd {
			// Scheduled cancellation lands at the period boundary.
			r.Tier = catalog.TierFree
			r.Status = StatusActive
			r.BillingCycle = ""
			r.CancelAtPeriodEnd = false
			r.CancelledAt = nil
			r.GracePeriodStartedAt = nil
			r.CurrentPeriodStart, r.CurrentPeriodEnd = monthWindow(now)
			s.log.InfoContext(ctx, "scheduled cancellation applied at period end",
				slog.String("user_id", r.UserID.String()))
			return nil
		}

		// Renewal boundary passed without a payment event yet; keep the
		// ledger window well-defined by rolling forward.
		for !now.Before(r.CurrentPeriodEnd) {
			r.CurrentPeriodStart = r.CurrentPeriodEnd
			r.CurrentPeriodEnd = r.BillingCycle.PeriodEnd(r.CurrentPeriodStart)
		}
		return nil
	})
}

// Cancel schedules or applies cancellation. On an active paid record it only
// sets cancelAtPeriodEnd; access continues until the period ends. On a
// past_due record it expires the subscription immediately. Cancelling a
// free, already-cancelled or expired record is a no-op.
func (s *Service) Cancel(ctx context.Context, userID uuid.UUID) error {
	rec, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	_, err = s.store.Update(ctx, rec.UserID, func(r *Record) error {
		now := s.now()
		switch {
		case r.Tier == catalog.TierFree, r.Status == StatusExpired, r.Status == StatusCancelled:
			return nil
		case r.Status == StatusPastDue:
			r.Status = StatusExpired
			r.Tier = catalog.TierFree
			r.BillingCycle = ""
			r.CancelAtPeriodEnd = false
			r.CancelledAt = &now
			r.GracePeriodStartedAt = nil
			s.log.InfoContext(ctx, "past-due subscription cancelled, expired immediately",
				slog.String("user_id", r.UserID.String()))
			return nil
		case r.CancelAtPeriodEnd:
			return nil // already scheduled
		default:
			r.CancelAtPeriodEnd = true
			r.CancelledAt = &now
			return nil
		}
	})
	return err
}

// Reactivate undoes a scheduled cancellation before the period ends,
// restoring the paid tier with cancelAtPeriodEnd=false. Reactivating an
// active record with no pending cancellation is a no-op. A free or expired
// record has nothing to restore and signals ErrNoCancelledSubscription.
func (s *Service) Reactivate(ctx context.Context, userID uuid.UUID) error {
	rec, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	_, err = s.store.Update(ctx, rec.UserID, func(r *Record) error {
		if r.CancelAtPeriodEnd {
			r.CancelAtPeriodEnd = false
			r.CancelledAt = nil
			return nil
		}
		if r.Tier == catalog.TierFree || r.Status == StatusExpired || r.Status == StatusCancelled {
			return ErrNoCancelledSubscription
		}
		return nil // active paid record, nothing scheduled
	})
	return err
}

// RecordPaymentFailure handles a failed renewal charge: the record enters
// past_due and the grace window opens. Repeated failure events while
// already past_due do not restart the window. Failure events for free
// records are ignored.
func (s *Service) RecordPaymentFailure(ctx context.Context, userID uuid.UUID) error {
	rec, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	_, err = s.store.Update(ctx, rec.UserID, func(r *Record) error {
		if r.Tier == catalog.TierFree || r.Status != StatusActive {
			s.log.InfoContext(ctx, "ignoring renewal failure for non-active record",
				slog.String("user_id", r.UserID.String()),
				slog.String("status", string(r.Status)))
			return nil
		}
		now := s.now()
		r.Status = StatusPastDue
		r.GracePeriodStartedAt = &now
		r.GracePeriodHours = s.graceHours
		return nil
	})
	return err
}

// RecordPaymentRecovery handles a successful retry while past_due: the
// record returns to active, the grace window clears and the billing period
// restarts from now. A recovery event for an already-active record is a
// duplicate and is swallowed. An expired record stays expired; only a new
// paid checkout resurrects it.
func (s *Service) RecordPaymentRecovery(ctx context.Context, userID uuid.UUID) error {
	rec, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	_, err = s.store.Update(ctx, rec.UserID, func(r *Record) error {
		if r.Status != StatusPastDue {
			s.log.InfoContext(ctx, "ignoring payment recovery for non-past-due record",
				slog.String("user_id", r.UserID.String()),
				slog.String("status", string(r.Status)))
			return nil
		}
		now := s.now()
		r.Status = StatusActive
		r.GracePeriodStartedAt = nil
		r.CurrentPeriodStart = now
		r.CurrentPeriodEnd = r.BillingCycle.PeriodEnd(now)
		return nil
	})
	return err
}

// Activate applies a confirmed paid checkout: the record becomes active on
// the purchased tier with a fresh period anchored at now, and any prior
// cancellation or payment distress is cleared. Valid from every state,
// including expired.
func (s *Service) Activate(ctx context.Context, userID uuid.UUID, tier catalog.Tier, cycle catalog.BillingCycle, currency catalog.Currency, pm *PaymentMethod) (*Record, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	return s.store.Update(ctx, userID, func(r *Record) error {
		now := s.now()
		r.Tier = tier
		r.Status = StatusActive
		r.BillingCycle = cycle
		r.Currency = currency
		r.CurrentPeriodStart = now
		r.CurrentPeriodEnd = cycle.PeriodEnd(now)
		r.CancelAtPeriodEnd = false
		r.CancelledAt = nil
		r.GracePeriodStartedAt = nil
		r.GracePeriodHours = s.graceHours
		if pm != nil {
			r.PaymentMethod = pm
		}
		return nil
	})
}
