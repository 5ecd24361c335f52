package checkout

import (
	"context"
	"time"

	"github.com/authorityengine/billing/pkg/catalog"
	"github.com/authorityengine/billing/pkg/subscription"
)

// Provider is the minimal interface a hosted payment provider must
// implement. The provider owns all payment complexity (card capture, tax,
// 3DS) through hosted checkout pages; this core only creates sessions and
// consumes the resulting confirmation events.
type Provider interface {
	// CreateCheckoutLink creates a hosted checkout session and returns the
	// URL to redirect the user to.
	CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)

	// ParseWebhook validates the webhook signature and normalizes the
	// payload into a PaymentEvent. Must reject unsigned or tampered
	// payloads.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*PaymentEvent, error)
}

// CheckoutRequest carries everything a provider needs to open a hosted
// checkout session for a tier purchase.
type CheckoutRequest struct {
	UserID   string
	Tier     catalog.Tier
	Cycle    catalog.BillingCycle
	Currency catalog.Currency
	Email    string // optional billing email
}

// CheckoutLink is a hosted checkout session the user is redirected to.
type CheckoutLink struct {
	URL       string
	SessionID string
	ExpiresAt time.Time
}

// Outcome is the terminal result of a payment attempt as reported by the
// provider.
type Outcome string

const (
	OutcomePaid   Outcome = "paid"
	OutcomeFailed Outcome = "failed"
)

// Kind distinguishes confirmations for a new checkout from payment events
// on an already-running subscription. A failed renewal charge degrades an
// existing subscription; a failed initial checkout never does.
type Kind string

const (
	// KindCheckout confirms (or fails) a pending checkout intent.
	KindCheckout Kind = "checkout"
	// KindRenewalFailed reports a failed recurring charge.
	KindRenewalFailed Kind = "renewal_failed"
	// KindRenewalRecovered reports a successful charge after a failure.
	KindRenewalRecovered Kind = "renewal_recovered"
	// KindIgnored marks provider events this core does not act on.
	KindIgnored Kind = "ignored"
)

// PaymentEvent is a normalized payment event from the provider. For
// checkout confirmations SessionID correlates the event back to an intent;
// for renewal events UserID identifies the affected subscription.
type PaymentEvent struct {
	Kind          Kind
	SessionID     string
	UserID        string // from checkout custom data, set on renewal events
	Outcome       Outcome
	ProviderEvent string // original provider event name, for logging
	PaymentMethod *subscription.PaymentMethod
	Raw           map[string]any
}
