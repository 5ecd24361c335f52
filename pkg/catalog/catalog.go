package catalog

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Catalog is the versioned, read-only tier table. Build one with New or use
// Default. All lookup methods fail loudly for unknown keys.
type Catalog struct {
	entries map[Tier]Entry
}

// New builds a catalog from the given entries and validates it: every known
// tier must be present, feature sets and limits must be monotone along the
// tier order, and every paid tier must price both cycles in every currency
// it lists. Returns ErrInvalidCatalog joined with the specific violation.
func New(entries map[Tier]Entry) (*Catalog, error) {
	clone := make(map[Tier]Entry, len(entries))
	for tier, e := range entries {
		clone[tier] = Entry{
			Tier:     tier,
			Features: maps.Clone(e.Features),
			Limits:   maps.Clone(e.Limits),
			Pricing:  maps.Clone(e.Pricing),
		}
	}

	c := &Catalog{entries: clone}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNew is New that panics on invalid configuration. Intended for the
// package-level default catalog where a bad table must prevent startup.
func MustNew(entries map[Tier]Entry) *Catalog {
	c, err := New(entries)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) validate() error {
	tiers := Tiers()
	for _, tier := range tiers {
		if _, ok := c.entries[tier]; !ok {
			return errors.Join(ErrInvalidCatalog, fmt.Errorf("missing entry for tier %q", tier))
		}
	}
	if len(c.entries) != len(tiers) {
		return errors.Join(ErrInvalidCatalog, fmt.Errorf("catalog holds %d entries, want %d", len(c.entries), len(tiers)))
	}

	for i := 1; i < len(tiers); i++ {
		lower, higher := c.entries[tiers[i-1]], c.entries[tiers[i]]

		// Features unlocked at a tier stay unlocked above it.
		for f := range lower.Features {
			if _, ok := higher.Features[f]; !ok {
				return errors.Join(ErrInvalidCatalog,
					fmt.Errorf("feature %q available at %q but not at %q", f, lower.Tier, higher.Tier))
			}
		}

		// Limits never shrink going up; unlimited dominates any finite cap.
		for res, lowLimit := range lower.Limits {
			highLimit, ok := higher.Limits[res]
			if !ok {
				return errors.Join(ErrInvalidCatalog,
					fmt.Errorf("resource %q limited at %q but absent at %q", res, lower.Tier, higher.Tier))
			}
			if highLimit == Unlimited {
				continue
			}
			if lowLimit == Unlimited || lowLimit > highLimit {
				return errors.Join(ErrInvalidCatalog,
					fmt.Errorf("resource %q limit decreases from %q (%d) to %q (%d)",
						res, lower.Tier, lowLimit, higher.Tier, highLimit))
			}
		}

		// Same resource set at every tier.
		for res := range higher.Limits {
			if _, ok := lower.Limits[res]; !ok {
				return errors.Join(ErrInvalidCatalog,
					fmt.Errorf("resource %q limited at %q but absent at %q", res, higher.Tier, lower.Tier))
			}
		}
	}

	for _, tier := range tiers[1:] {
		entry := c.entries[tier]
		for cur, pair := range entry.Pricing {
			if pair.Monthly.Currency != cur || pair.Annual.Currency != cur {
				return errors.Join(ErrInvalidCatalog,
					fmt.Errorf("tier %q pricing for %q carries mismatched currency", tier, cur))
			}
			if pair.Monthly.Amount <= 0 || pair.Annual.Amount <= 0 {
				return errors.Join(ErrInvalidCatalog,
					fmt.Errorf("tier %q has non-positive price for %q", tier, cur))
			}
		}
	}

	return nil
}

// LimitFor returns the per-period cap for a resource at a tier.
// Unlimited (-1) means no cap, 0 means the resource is unavailable.
func (c *Catalog) LimitFor(tier Tier, res Resource) (int64, error) {
	entry, ok := c.entries[tier]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}
	limit, ok := entry.Limits[res]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownResource, res)
	}
	return limit, nil
}

// FeaturesFor returns the cumulative feature set unlocked at a tier,
// sorted for stable output.
func (c *Catalog) FeaturesFor(tier Tier) ([]Feature, error) {
	entry, ok := c.entries[tier]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}
	features := slices.Collect(maps.Keys(entry.Features))
	slices.Sort(features)
	return features, nil
}

// HasFeature reports whether a feature is unlocked at a tier.
// Unknown tiers resolve to false (fail closed).
func (c *Catalog) HasFeature(tier Tier, f Feature) bool {
	entry, ok := c.entries[tier]
	if !ok {
		return false
	}
	_, ok = entry.Features[f]
	return ok
}

// Resources returns every metered resource in the catalog, sorted.
func (c *Catalog) Resources() []Resource {
	entry := c.entries[TierFree]
	resources := slices.Collect(maps.Keys(entry.Limits))
	slices.Sort(resources)
	return resources
}

// PriceFor returns the price of a tier for a cycle in a currency.
// TierFree has no price and resolves to ErrUnknownTier-free semantics:
// asking the price of the free tier is a programmer error.
func (c *Catalog) PriceFor(tier Tier, cycle BillingCycle, cur Currency) (Money, error) {
	entry, ok := c.entries[tier]
	if !ok {
		return Money{}, fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}
	if !cycle.Valid() {
		return Money{}, fmt.Errorf("%w: %q", ErrUnknownCycle, cycle)
	}
	pair, ok := entry.Pricing[cur]
	if !ok {
		return Money{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, cur)
	}
	if cycle == CycleAnnual {
		return pair.Annual, nil
	}
	return pair.Monthly, nil
}

// TierPricing is the pricing-page projection of one tier.
type TierPricing struct {
	Tier     Tier               `json:"tier"`
	Monthly  int64              `json:"monthly_price"`
	Annual   int64              `json:"annual_price"`
	Features []Feature          `json:"features"`
	Limits   map[Resource]int64 `json:"limits"`
}

// PricingFor returns the full pricing projection for one currency: price,
// feature list and limits per tier, in ascending tier order. The free tier
// is included with zero prices.
func (c *Catalog) PricingFor(cur Currency) ([]TierPricing, error) {
	// Every paid tier must quote this currency for the projection to exist.
	for _, tier := range Tiers()[1:] {
		if _, ok := c.entries[tier].Pricing[cur]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCurrency, cur)
		}
	}

	out := make([]TierPricing, 0, len(c.entries))
	for _, tier := range Tiers() {
		entry := c.entries[tier]
		features, _ := c.FeaturesFor(tier)
		tp := TierPricing{
			Tier:     tier,
			Features: features,
			Limits:   maps.Clone(entry.Limits),
		}
		if pair, ok := entry.Pricing[cur]; ok {
			tp.Monthly = pair.Monthly.Amount
			tp.Annual = pair.Annual.Amount
		}
		out = append(out, tp)
	}
	return out, nil
}
