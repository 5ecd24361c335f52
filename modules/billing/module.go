package billing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/authorityengine/billing/pkg/catalog"
	"github.com/authorityengine/billing/pkg/checkout"
	"github.com/authorityengine/billing/pkg/entitlement"
	"github.com/authorityengine/billing/pkg/subscription"
	"github.com/authorityengine/billing/pkg/usage"
)

var errUnauthenticated = errors.New("user identity missing")

// UserResolver extracts the acting user from a request. The host
// application decides how: session cookie, JWT claim, gateway header.
type UserResolver func(r *http.Request) (uuid.UUID, error)

// HeaderUserResolver reads the user ID from the X-User-ID header, the
// shape an authenticating reverse proxy or API gateway produces.
func HeaderUserResolver(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return uuid.Nil, errUnauthenticated
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Join(errUnauthenticated, err)
	}
	return id, nil
}

// Subscriptions is the slice of the subscription service the module
// serves. Satisfied by *subscription.Service.
type Subscriptions interface {
	Get(ctx context.Context, userID uuid.UUID) (*subscription.Record, error)
	Cancel(ctx context.Context, userID uuid.UUID) error
	Reactivate(ctx context.Context, userID uuid.UUID) error
}

// Checkouts is the slice of the checkout orchestrator the module serves.
// Satisfied by *checkout.Service.
type Checkouts interface {
	CreateCheckout(ctx context.Context, userID uuid.UUID, tier catalog.Tier, cycle catalog.BillingCycle, currency catalog.Currency, email string) (*checkout.CheckoutLink, error)
	ConfirmPayment(ctx context.Context, event *checkout.PaymentEvent) error
	Status(ctx context.Context, sessionID string) (*checkout.Intent, error)
}

// Deps wires the core services into the module. Resolver, Ledger, Subs,
// and Checkout are required; Provider may be nil when the webhook endpoint
// is handled elsewhere.
type Deps struct {
	Catalog  *catalog.Catalog
	Resolver *entitlement.Resolver
	Ledger   *usage.Ledger
	Subs     Subscriptions
	Checkout Checkouts
	Provider checkout.Provider
	User     UserResolver
	Log      *slog.Logger
	Clock    func() time.Time
}

// Module is the HTTP surface of the billing core.
type Module struct {
	deps Deps
}

// New builds the module. Panics on missing required dependencies to fail
// fast during initialization.
func New(deps Deps) *Module {
	if deps.Resolver == nil {
		panic("billing: entitlement resolver is required")
	}
	if deps.Ledger == nil {
		panic("billing: usage ledger is required")
	}
	if deps.Subs == nil {
		panic("billing: subscription service is required")
	}
	if deps.Checkout == nil {
		panic("billing: checkout service is required")
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	if deps.User == nil {
		deps.User = HeaderUserResolver
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Module{deps: deps}
}
