package billing

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/authorityengine/billing/pkg/binder"
	"github.com/authorityengine/billing/pkg/catalog"
	"github.com/authorityengine/billing/pkg/checkout"
	"github.com/authorityengine/billing/pkg/subscription"
)

// maxWebhookBody caps raw webhook payloads at 1MB.
const maxWebhookBody = 1 << 20

type entitlementsQuery struct {
	Feature  string `query:"feature"`
	Resource string `query:"resource"`
}

type entitlementsPayload struct {
	Tier       catalog.Tier `json:"tier"`
	Feature    string       `json:"feature,omitempty"`
	HasFeature *bool        `json:"has_feature,omitempty"`
	Resource   string       `json:"resource,omitempty"`
	CanUse     *bool        `json:"can_use,omitempty"`
}

// handleEntitlements answers the advisory queries: effective tier, and
// optionally feature and resource checks in the same round trip.
func (m *Module) handleEntitlements(w http.ResponseWriter, r *http.Request) {
	userID, err := m.deps.User(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var q entitlementsQuery
	if err := binder.Query()(r, &q); err != nil {
		respondError(w, err)
		return
	}

	ctx := r.Context()
	payload := entitlementsPayload{Tier: m.deps.Resolver.EffectiveTier(ctx, userID)}
	if q.Feature != "" {
		has := m.deps.Resolver.HasFeature(ctx, userID, catalog.Feature(q.Feature))
		payload.Feature = q.Feature
		payload.HasFeature = &has
	}
	if q.Resource != "" {
		can := m.deps.Resolver.CanUse(ctx, userID, catalog.Resource(q.Resource))
		payload.Resource = q.Resource
		payload.CanUse = &can
	}
	respond(w, http.StatusOK, payload)
}

type consumeRequest struct {
	Resource string `json:"resource"`
	N        int64  `json:"n"`
}

type consumeResponse struct {
	Allowed bool  `json:"allowed"`
	Used    int64 `json:"used"`
	Limit   int64 `json:"limit"`
}

// handleConsume is the authoritative metering gate. Denied is a normal
// 200 response, not an error: callers surface it as an upgrade prompt.
func (m *Module) handleConsume(w http.ResponseWriter, r *http.Request) {
	userID, err := m.deps.User(r)
	if err != nil {
		respondError(w, err)
		return
	}
	req := consumeRequest{N: 1}
	if err := binder.JSON()(r, &req); err != nil {
		respondError(w, err)
		return
	}

	dec, err := m.deps.Ledger.TryConsume(r.Context(), userID, catalog.Resource(req.Resource), req.N)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, consumeResponse{Allowed: dec.Allowed, Used: dec.Used, Limit: dec.Limit})
}

func (m *Module) handleUsageSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, err := m.deps.User(r)
	if err != nil {
		respondError(w, err)
		return
	}
	snap, err := m.deps.Ledger.Snapshot(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, snap)
}

type pricingQuery struct {
	Currency string `query:"currency"`
}

func (m *Module) handlePricing(w http.ResponseWriter, r *http.Request) {
	var q pricingQuery
	if err := binder.Query()(r, &q); err != nil {
		respondError(w, err)
		return
	}
	cur := catalog.Currency(q.Currency)
	if q.Currency == "" {
		cur = catalog.DefaultCurrency
	}

	pricing, err := m.deps.Catalog.PricingFor(cur)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, pricing)
}

type createCheckoutRequest struct {
	Tier     string `json:"tier"`
	Cycle    string `json:"cycle"`
	Currency string `json:"currency"`
	Email    string `json:"email"`
}

type checkoutLinkPayload struct {
	URL       string    `json:"url"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (m *Module) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID, err := m.deps.User(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req createCheckoutRequest
	if err := binder.JSON()(r, &req); err != nil {
		respondError(w, err)
		return
	}
	currency := catalog.Currency(req.Currency)
	if req.Currency == "" {
		currency = catalog.DefaultCurrency
	}

	link, err := m.deps.Checkout.CreateCheckout(r.Context(), userID,
		catalog.Tier(req.Tier), catalog.BillingCycle(req.Cycle), currency, req.Email)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, checkoutLinkPayload{
		URL:       link.URL,
		SessionID: link.SessionID,
		ExpiresAt: link.ExpiresAt,
	})
}

type checkoutStatusPayload struct {
	SessionID string          `json:"session_id"`
	Status    checkout.Status `json:"status"`
	Tier      catalog.Tier    `json:"tier"`
}

// handleCheckoutStatus is the poll endpoint a client hits while waiting
// for the asynchronous confirmation.
func (m *Module) handleCheckoutStatus(w http.ResponseWriter, r *http.Request) {
	intent, err := m.deps.Checkout.Status(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, checkoutStatusPayload{
		SessionID: intent.SessionID,
		Status:    intent.Status,
		Tier:      intent.Tier,
	})
}

// handlePaymentWebhook receives provider callbacks. The provider verifies
// the signature before anything is acted on; verification failures are
// answered 400 so the provider retries against a fixed deployment rather
// than marking delivery successful.
func (m *Module) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	if m.deps.Provider == nil {
		respondError(w, checkout.ErrIntentNotFound)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, err)
		return
	}

	event, err := m.deps.Provider.ParseWebhook(r.Context(), body, r.Header.Get("Paddle-Signature"))
	if err != nil {
		m.deps.Log.WarnContext(r.Context(), "webhook rejected", slog.Any("error", err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := m.deps.Checkout.ConfirmPayment(r.Context(), event); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type subscriptionPayload struct {
	Tier               catalog.Tier                `json:"tier"`
	EffectiveTier      catalog.Tier                `json:"effective_tier"`
	Status             subscription.Status         `json:"status"`
	BillingCycle       catalog.BillingCycle        `json:"billing_cycle,omitempty"`
	Currency           catalog.Currency            `json:"currency,omitempty"`
	CurrentPeriodStart time.Time                   `json:"current_period_start"`
	CurrentPeriodEnd   time.Time                   `json:"current_period_end"`
	CancelAtPeriodEnd  bool                        `json:"cancel_at_period_end"`
	GraceDeadline      *time.Time                  `json:"grace_deadline,omitempty"`
	GraceRemaining     int64                       `json:"grace_remaining_seconds,omitempty"`
	PaymentMethod      *subscription.PaymentMethod `json:"payment_method,omitempty"`
}

// handleSubscription projects the record for account pages, including the
// grace countdown shown after a failed renewal.
func (m *Module) handleSubscription(w http.ResponseWriter, r *http.Request) {
	userID, err := m.deps.User(r)
	if err != nil {
		respondError(w, err)
		return
	}
	rec, err := m.deps.Subs.Get(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	now := m.deps.Clock()
	payload := subscriptionPayload{
		Tier:               rec.Tier,
		EffectiveTier:      rec.EffectiveTierAt(now),
		Status:             rec.Status,
		BillingCycle:       rec.BillingCycle,
		Currency:           rec.Currency,
		CurrentPeriodStart: rec.CurrentPeriodStart,
		CurrentPeriodEnd:   rec.CurrentPeriodEnd,
		CancelAtPeriodEnd:  rec.CancelAtPeriodEnd,
		PaymentMethod:      rec.PaymentMethod,
	}
	if rec.InGracePeriodAt(now) {
		deadline, _ := rec.GraceDeadline()
		payload.GraceDeadline = &deadline
		payload.GraceRemaining = int64(rec.GraceRemainingAt(now).Seconds())
	}
	respond(w, http.StatusOK, payload)
}

func (m *Module) handleCancel(w http.ResponseWriter, r *http.Request) {
	userID, err := m.deps.User(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := m.deps.Subs.Cancel(r.Context(), userID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (m *Module) handleReactivate(w http.ResponseWriter, r *http.Request) {
	userID, err := m.deps.User(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := m.deps.Subs.Reactivate(r.Context(), userID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
