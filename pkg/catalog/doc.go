// Package catalog defines the immutable tier catalog: the ordered set of
// subscription tiers together with the features, per-period resource limits
// and per-currency prices attached to each tier.
//
// Tiers are totally ordered (free < basic < premium). Feature sets and
// resource limits are monotone along that order, which New asserts at
// construction time so the invariant cannot drift as plans are edited.
//
// The catalog is pure read-only data. Lookups against unknown tiers,
// resources or currencies fail loudly instead of silently defaulting,
// because such lookups are programmer errors rather than runtime states.
//
// Basic usage:
//
//	cat := catalog.Default()
//
//	limit, err := cat.LimitFor(catalog.TierBasic, catalog.ResourceAIGenerations)
//	if err != nil {
//	    // unknown tier or resource
//	}
//
//	if cat.HasFeature(catalog.TierPremium, catalog.FeatureExportReports) {
//	    // feature unlocked
//	}
//
//	price, err := cat.PriceFor(catalog.TierBasic, catalog.CycleMonthly, catalog.CurrencyAUD)
package catalog
