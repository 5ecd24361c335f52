package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/authorityengine/billing/pkg/catalog"
)

// Status is the lifecycle state of a subscription record.
type Status string

const (
	StatusActive    Status = "active"
	StatusPastDue   Status = "past_due"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// PaymentMethod is the display-only summary of the card on file.
type PaymentMethod struct {
	Brand string `json:"brand"`
	Last4 string `json:"last4"`
}

// Record is the singleton subscription state of one user, created lazily as
// free/active on first access and mutated in place for the life of the
// account.
type Record struct {
	UserID uuid.UUID
	Tier   catalog.Tier
	Status Status

	// BillingCycle is empty while Tier is free.
	BillingCycle catalog.BillingCycle
	Currency     catalog.Currency

	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time

	CancelAtPeriodEnd bool
	CancelledAt       *time.Time

	// GracePeriodStartedAt is set exactly while Status is past_due.
	GracePeriodStartedAt *time.Time
	GracePeriodHours     int

	PaymentMethod *PaymentMethod

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *Record) IsActive() bool {
	return r.Status == StatusActive
}

func (r *Record) IsPastDue() bool {
	return r.Status == StatusPastDue
}

// GraceDeadline returns the instant the grace window closes. The second
// return is false when the record is not in payment distress.
func (r *Record) GraceDeadline() (time.Time, bool) {
	if r.GracePeriodStartedAt == nil {
		return time.Time{}, false
	}
	return r.GracePeriodStartedAt.Add(time.Duration(r.GracePeriodHours) * time.Hour), true
}

// InGracePeriodAt reports whether the record is past_due with an open grace
// window at the given instant.
func (r *Record) InGracePeriodAt(now time.Time) bool {
	if r.Status != StatusPastDue {
		return false
	}
	deadline, ok := r.GraceDeadline()
	return ok && now.Before(deadline)
}

// GraceRemainingAt returns how much of the grace window is left, zero when
// none is open.
func (r *Record) GraceRemainingAt(now time.Time) time.Duration {
	if !r.InGracePeriodAt(now) {
		return 0
	}
	deadline, _ := r.GraceDeadline()
	return deadline.Sub(now)
}

// EffectiveTierAt resolves the tier actually granted at the given instant.
// Pure function of the record and now; never cached across requests because
// grace expiry and scheduled demotion are time-driven and must become
// visible without a write.
//
// Resolution is fail-closed: anything not provably entitled to a paid tier
// resolves to free.
func (r *Record) EffectiveTierAt(now time.Time) catalog.Tier {
	if r.Tier == catalog.TierFree || !r.Tier.Known() {
		return catalog.TierFree
	}

	switch r.Status {
	case StatusActive:
		// A scheduled cancellation takes effect the moment the period ends,
		// even before the sweep or a read-path rollover materializes it.
		if r.CancelAtPeriodEnd && !now.Before(r.CurrentPeriodEnd) {
			return catalog.TierFree
		}
		return r.Tier
	case StatusPastDue:
		if r.InGracePeriodAt(now) {
			return r.Tier
		}
		return catalog.TierFree
	default: // cancelled, expired, or anything unrecognized
		return catalog.TierFree
	}
}

// clone returns a deep copy so store implementations never hand out aliased
// pointers.
func (r *Record) clone() *Record {
	out := *r
	if r.CancelledAt != nil {
		t := *r.CancelledAt
		out.CancelledAt = &t
	}
	if r.GracePeriodStartedAt != nil {
		t := *r.GracePeriodStartedAt
		out.GracePeriodStartedAt = &t
	}
	if r.PaymentMethod != nil {
		pm := *r.PaymentMethod
		out.PaymentMethod = &pm
	}
	return &out
}
