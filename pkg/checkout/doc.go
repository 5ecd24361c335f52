// Package checkout orchestrates tier upgrades through a hosted payment
// provider. It creates pending checkout intents, hands the user a hosted
// checkout URL, and correlates the provider's asynchronous payment
// confirmation back to the subscription record.
//
// An intent is created per checkout attempt and becomes immutable once it
// reaches a terminal state (paid or expired). Confirmation is idempotent:
// re-delivery of the same webhook is a logged no-op, and a confirmation is
// applied only while the intent is still pending, so an out-of-order or
// duplicate event can never overwrite a terminal state.
//
//	provider, err := checkout.NewPaddleProvider(paddleCfg)
//	if err != nil { ... }
//
//	svc := checkout.NewService(catalog.Default(), store, subs, provider)
//
//	link, err := svc.CreateCheckout(ctx, userID, catalog.TierPremium,
//		catalog.CycleAnnual, catalog.CurrencyUSD, "user@example.com")
//	// redirect the user to link.URL; the webhook handler later calls
//	// svc.ConfirmPayment with the parsed event.
package checkout
