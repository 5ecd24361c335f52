package billing

import (
	"github.com/go-chi/chi/v5"
)

// Router mounts the billing endpoints. The webhook route is unauthenticated
// (the provider signs its payloads); everything else resolves the acting
// user first.
func (m *Module) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/entitlements", m.handleEntitlements)
	r.Get("/usage", m.handleUsageSnapshot)
	r.Post("/usage/consume", m.handleConsume)

	r.Get("/pricing", m.handlePricing)

	r.Post("/checkout", m.handleCreateCheckout)
	r.Get("/checkout/{sessionID}", m.handleCheckoutStatus)
	r.Post("/webhooks/payment", m.handlePaymentWebhook)

	r.Route("/subscription", func(sub chi.Router) {
		sub.Get("/", m.handleSubscription)
		sub.Post("/cancel", m.handleCancel)
		sub.Post("/reactivate", m.handleReactivate)
	})

	return r
}
