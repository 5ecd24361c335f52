package checkout

import (
	"time"

	"github.com/google/uuid"

	"github.com/authorityengine/billing/pkg/catalog"
)

// Status is the payment status of a checkout intent.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
	StatusExpired Status = "expired"
)

// Terminal reports whether the intent can no longer change. A paid or
// expired intent is immutable; a failed one may be retried by creating a
// new intent, but the failed row itself never transitions again either.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusExpired || s == StatusFailed
}

// Intent records a single checkout attempt awaiting external payment
// confirmation. SessionID is the provider's session identifier and is the
// idempotency key for confirmation events.
type Intent struct {
	SessionID string
	UserID    uuid.UUID
	Tier      catalog.Tier
	Cycle     catalog.BillingCycle
	Currency  catalog.Currency
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *Intent) clone() *Intent {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}
