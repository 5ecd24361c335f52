// Package billing exposes the subscription and metering core over HTTP.
// It mounts entitlement queries, authoritative usage consumption, the
// pricing page projection, hosted checkout, the payment webhook, and
// subscription self-service (cancel, reactivate) under one chi router.
//
// Authentication is out of scope here: the module resolves the acting
// user through an injected UserResolver, so it composes with whatever
// session or token layer the host application runs.
//
//	module := billing.New(billing.Deps{
//		Resolver: resolver,
//		Ledger:   ledger,
//		Subs:     subs,
//		Checkout: checkoutSvc,
//		Provider: provider,
//	})
//	r.Mount("/billing", module.Router())
package billing
