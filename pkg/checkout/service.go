package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/authorityengine/billing/pkg/catalog"
	"github.com/authorityengine/billing/pkg/subscription"
)

// Subscriptions is the slice of the subscription service the orchestrator
// needs. Satisfied by *subscription.Service.
type Subscriptions interface {
	Get(ctx context.Context, userID uuid.UUID) (*subscription.Record, error)
	Activate(ctx context.Context, userID uuid.UUID, tier catalog.Tier, cycle catalog.BillingCycle, currency catalog.Currency, pm *subscription.PaymentMethod) (*subscription.Record, error)
	RecordPaymentFailure(ctx context.Context, userID uuid.UUID) error
	RecordPaymentRecovery(ctx context.Context, userID uuid.UUID) error
}

// Service orchestrates checkout: it opens hosted sessions with the payment
// provider, tracks the resulting intents, and applies confirmation events
// to the subscription record exactly once.
type Service struct {
	catalog  *catalog.Catalog
	intents  Store
	subs     Subscriptions
	provider Provider
	now      func() time.Time
	log      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger for confirmation no-ops and provider errors.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates a checkout orchestrator. Panics if any dependency is
// nil to fail fast during initialization.
func NewService(cat *catalog.Catalog, intents Store, subs Subscriptions, provider Provider, opts ...Option) *Service {
	if cat == nil {
		panic("checkout: catalog is required")
	}
	if intents == nil {
		panic("checkout: intent store is required")
	}
	if subs == nil {
		panic("checkout: subscription service is required")
	}
	if provider == nil {
		panic("checkout: payment provider is required")
	}

	s := &Service{
		catalog:  cat,
		intents:  intents,
		subs:     subs,
		provider: provider,
		now:      time.Now,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCheckout opens a hosted checkout session for a paid tier. Any
// prior pending intent for the same tier, cycle, and currency is marked
// expired before the new one is created, so at most one intent per triple
// is ever pending.
func (s *Service) CreateCheckout(ctx context.Context, userID uuid.UUID, tier catalog.Tier, cycle catalog.BillingCycle, currency catalog.Currency, email string) (*CheckoutLink, error) {
	if tier == catalog.TierFree || !tier.Known() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTier, tier)
	}
	if !cycle.Valid() {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownCycle, cycle)
	}
	if _, err := s.catalog.PriceFor(tier, cycle, currency); err != nil {
		return nil, err
	}

	rec, err := s.subs.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve current subscription: %w", err)
	}
	now := s.now()
	if current := rec.EffectiveTierAt(now); tier.Less(current) {
		return nil, fmt.Errorf("%w: %s is below current tier %s", ErrDowngradeNotAllowed, tier, current)
	}

	superseded, err := s.intents.ExpirePending(ctx, userID, tier, cycle, currency, now)
	if err != nil {
		return nil, fmt.Errorf("supersede pending intents: %w", err)
	}
	if superseded > 0 {
		s.log.InfoContext(ctx, "superseded pending checkout intents",
			slog.String("user_id", userID.String()),
			slog.Int("count", superseded))
	}

	link, err := s.provider.CreateCheckoutLink(ctx, CheckoutRequest{
		UserID:   userID.String(),
		Tier:     tier,
		Cycle:    cycle,
		Currency: currency,
		Email:    email,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}

	intent := &Intent{
		SessionID: link.SessionID,
		UserID:    userID,
		Tier:      tier,
		Cycle:     cycle,
		Currency:  currency,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.intents.Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("persist checkout intent: %w", err)
	}
	return link, nil
}

// ConfirmPayment applies a payment event. Checkout confirmations flip the
// intent out of pending exactly once: a paid outcome then activates the
// subscription at the purchased tier, a failed one touches only the
// intent. Renewal events are routed to the subscription state machine.
// Duplicate deliveries after the intent left pending are logged no-ops.
func (s *Service) ConfirmPayment(ctx context.Context, event *PaymentEvent) error {
	switch event.Kind {
	case KindRenewalFailed:
		return s.applyRenewal(ctx, event, s.subs.RecordPaymentFailure)
	case KindRenewalRecovered:
		return s.applyRenewal(ctx, event, s.subs.RecordPaymentRecovery)
	case KindIgnored:
		s.log.DebugContext(ctx, "ignoring payment event",
			slog.String("provider_event", event.ProviderEvent))
		return nil
	case KindCheckout:
	default:
		return fmt.Errorf("%w: unknown event kind %q", ErrInvalidOutcome, event.Kind)
	}

	var target Status
	switch event.Outcome {
	case OutcomePaid:
		target = StatusPaid
	case OutcomeFailed:
		target = StatusFailed
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOutcome, event.Outcome)
	}

	intent, applied, err := s.intents.Mark(ctx, event.SessionID, StatusPending, target, s.now())
	if err != nil {
		return err
	}
	if !applied {
		// Duplicate or out-of-order delivery: the intent already left
		// pending and must not change again.
		s.log.InfoContext(ctx, "payment event ignored, intent not pending",
			slog.String("session_id", event.SessionID),
			slog.String("intent_status", string(intent.Status)),
			slog.String("outcome", string(event.Outcome)))
		return nil
	}

	if target == StatusFailed {
		// A failed initial checkout never degrades an existing
		// subscription.
		s.log.InfoContext(ctx, "checkout payment failed",
			slog.String("session_id", intent.SessionID),
			slog.String("user_id", intent.UserID.String()))
		return nil
	}

	if _, err := s.subs.Activate(ctx, intent.UserID, intent.Tier, intent.Cycle, intent.Currency, event.PaymentMethod); err != nil {
		return fmt.Errorf("activate subscription for session %s: %w", intent.SessionID, err)
	}
	s.log.InfoContext(ctx, "checkout confirmed",
		slog.String("session_id", intent.SessionID),
		slog.String("user_id", intent.UserID.String()),
		slog.String("tier", string(intent.Tier)))
	return nil
}

func (s *Service) applyRenewal(ctx context.Context, event *PaymentEvent, apply func(context.Context, uuid.UUID) error) error {
	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		return fmt.Errorf("renewal event %s has no usable user id: %w", event.ProviderEvent, err)
	}
	return apply(ctx, userID)
}

// Status returns the current state of a checkout intent. Poll-safe: it is
// a plain read and reflects confirmations as soon as they land.
func (s *Service) Status(ctx context.Context, sessionID string) (*Intent, error) {
	return s.intents.Get(ctx, sessionID)
}
