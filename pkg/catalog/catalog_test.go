package catalog_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authorityengine/billing/pkg/catalog"
)

func TestTierOrdering(t *testing.T) {
	t.Parallel()

	assert.True(t, catalog.TierFree.Less(catalog.TierBasic))
	assert.True(t, catalog.TierBasic.Less(catalog.TierPremium))
	assert.False(t, catalog.TierPremium.Less(catalog.TierFree))
	assert.Equal(t, 0, catalog.TierBasic.Cmp(catalog.TierBasic))

	// Corrupted tier values sort below free.
	assert.True(t, catalog.Tier("gold").Less(catalog.TierFree))
	assert.False(t, catalog.Tier("gold").Known())
}

func TestDefaultCatalogMonotonicity(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()
	tiers := catalog.Tiers()

	for i := 1; i < len(tiers); i++ {
		lower, higher := tiers[i-1], tiers[i]

		lowFeatures, err := cat.FeaturesFor(lower)
		require.NoError(t, err)
		for _, f := range lowFeatures {
			assert.True(t, cat.HasFeature(higher, f),
				"feature %q unlocked at %q must stay unlocked at %q", f, lower, higher)
		}

		for _, res := range cat.Resources() {
			lowLimit, err := cat.LimitFor(lower, res)
			require.NoError(t, err)
			highLimit, err := cat.LimitFor(higher, res)
			require.NoError(t, err)

			if highLimit == catalog.Unlimited {
				continue
			}
			require.NotEqual(t, catalog.Unlimited, lowLimit,
				"resource %q unlimited at %q but capped at %q", res, lower, higher)
			assert.LessOrEqual(t, lowLimit, highLimit, "resource %q", res)
		}
	}
}

func TestLimitFor(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()

	t.Run("known limits", func(t *testing.T) {
		t.Parallel()

		limit, err := cat.LimitFor(catalog.TierBasic, catalog.ResourceAIGenerations)
		require.NoError(t, err)
		assert.Equal(t, int64(20), limit)

		limit, err = cat.LimitFor(catalog.TierFree, catalog.ResourceCommentDrafts)
		require.NoError(t, err)
		assert.Equal(t, int64(0), limit, "comment drafts are unavailable on free")

		limit, err = cat.LimitFor(catalog.TierPremium, catalog.ResourcePosts)
		require.NoError(t, err)
		assert.Equal(t, catalog.Unlimited, limit)
	})

	t.Run("unknown tier fails loudly", func(t *testing.T) {
		t.Parallel()

		_, err := cat.LimitFor(catalog.Tier("platinum"), catalog.ResourcePosts)
		assert.ErrorIs(t, err, catalog.ErrUnknownTier)
	})

	t.Run("unknown resource fails loudly", func(t *testing.T) {
		t.Parallel()

		_, err := cat.LimitFor(catalog.TierBasic, catalog.Resource("teleports"))
		assert.ErrorIs(t, err, catalog.ErrUnknownResource)
	})
}

func TestHasFeature(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()

	assert.False(t, cat.HasFeature(catalog.TierFree, catalog.FeatureFrameworkEditor))
	assert.True(t, cat.HasFeature(catalog.TierBasic, catalog.FeatureFrameworkEditor))
	assert.True(t, cat.HasFeature(catalog.TierPremium, catalog.FeatureFrameworkEditor))

	assert.False(t, cat.HasFeature(catalog.TierBasic, catalog.FeatureAPIAccess))
	assert.True(t, cat.HasFeature(catalog.TierPremium, catalog.FeatureAPIAccess))

	// Fail closed for unknown tiers.
	assert.False(t, cat.HasFeature(catalog.Tier("platinum"), catalog.FeatureAPIAccess))
}

func TestPriceFor(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()

	t.Run("known prices", func(t *testing.T) {
		t.Parallel()

		price, err := cat.PriceFor(catalog.TierBasic, catalog.CycleMonthly, catalog.CurrencyAUD)
		require.NoError(t, err)
		assert.Equal(t, catalog.Money{Amount: 2900, Currency: catalog.CurrencyAUD}, price)

		price, err = cat.PriceFor(catalog.TierPremium, catalog.CycleAnnual, catalog.CurrencyGBP)
		require.NoError(t, err)
		assert.Equal(t, catalog.Money{Amount: 39000, Currency: catalog.CurrencyGBP}, price)
	})

	t.Run("unknown currency", func(t *testing.T) {
		t.Parallel()

		_, err := cat.PriceFor(catalog.TierBasic, catalog.CycleMonthly, catalog.Currency("jpy"))
		assert.ErrorIs(t, err, catalog.ErrUnknownCurrency)
	})

	t.Run("unknown cycle", func(t *testing.T) {
		t.Parallel()

		_, err := cat.PriceFor(catalog.TierBasic, catalog.BillingCycle("weekly"), catalog.CurrencyUSD)
		assert.ErrorIs(t, err, catalog.ErrUnknownCycle)
	})
}

func TestPricingFor(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()

	pricing, err := cat.PricingFor(catalog.CurrencyUSD)
	require.NoError(t, err)
	require.Len(t, pricing, 3)

	assert.Equal(t, catalog.TierFree, pricing[0].Tier)
	assert.Zero(t, pricing[0].Monthly)
	assert.Zero(t, pricing[0].Annual)

	assert.Equal(t, catalog.TierBasic, pricing[1].Tier)
	assert.Equal(t, int64(1900), pricing[1].Monthly)
	assert.Equal(t, int64(19000), pricing[1].Annual)

	assert.Equal(t, catalog.TierPremium, pricing[2].Tier)
	assert.NotEmpty(t, pricing[2].Features)
	assert.Contains(t, pricing[2].Features, catalog.FeatureExportReports)

	_, err = cat.PricingFor(catalog.Currency("jpy"))
	assert.ErrorIs(t, err, catalog.ErrUnknownCurrency)
}

func TestNewRejectsNonMonotoneCatalog(t *testing.T) {
	t.Parallel()

	base := func() map[catalog.Tier]catalog.Entry {
		return map[catalog.Tier]catalog.Entry{
			catalog.TierFree: {
				Features: map[catalog.Feature]struct{}{catalog.FeatureEmailSupport: {}},
				Limits:   map[catalog.Resource]int64{catalog.ResourcePosts: 5},
			},
			catalog.TierBasic: {
				Features: map[catalog.Feature]struct{}{catalog.FeatureEmailSupport: {}},
				Limits:   map[catalog.Resource]int64{catalog.ResourcePosts: 30},
				Pricing: map[catalog.Currency]catalog.PricePair{
					catalog.CurrencyUSD: {
						Monthly: catalog.Money{Amount: 1900, Currency: catalog.CurrencyUSD},
						Annual:  catalog.Money{Amount: 19000, Currency: catalog.CurrencyUSD},
					},
				},
			},
			catalog.TierPremium: {
				Features: map[catalog.Feature]struct{}{catalog.FeatureEmailSupport: {}},
				Limits:   map[catalog.Resource]int64{catalog.ResourcePosts: catalog.Unlimited},
				Pricing: map[catalog.Currency]catalog.PricePair{
					catalog.CurrencyUSD: {
						Monthly: catalog.Money{Amount: 4900, Currency: catalog.CurrencyUSD},
						Annual:  catalog.Money{Amount: 49000, Currency: catalog.CurrencyUSD},
					},
				},
			},
		}
	}

	t.Run("valid baseline", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.New(base())
		require.NoError(t, err)
	})

	t.Run("feature lost at higher tier", func(t *testing.T) {
		t.Parallel()

		entries := base()
		entry := entries[catalog.TierPremium]
		entry.Features = map[catalog.Feature]struct{}{}
		entries[catalog.TierPremium] = entry

		_, err := catalog.New(entries)
		assert.ErrorIs(t, err, catalog.ErrInvalidCatalog)
	})

	t.Run("limit shrinks at higher tier", func(t *testing.T) {
		t.Parallel()

		entries := base()
		entry := entries[catalog.TierBasic]
		entry.Limits = map[catalog.Resource]int64{catalog.ResourcePosts: 2}
		entries[catalog.TierBasic] = entry

		_, err := catalog.New(entries)
		assert.ErrorIs(t, err, catalog.ErrInvalidCatalog)
	})

	t.Run("missing tier", func(t *testing.T) {
		t.Parallel()

		entries := base()
		delete(entries, catalog.TierBasic)

		_, err := catalog.New(entries)
		assert.ErrorIs(t, err, catalog.ErrInvalidCatalog)
	})

	t.Run("unlimited below capped", func(t *testing.T) {
		t.Parallel()

		entries := base()
		entry := entries[catalog.TierFree]
		entry.Limits = map[catalog.Resource]int64{catalog.ResourcePosts: catalog.Unlimited}
		entries[catalog.TierFree] = entry
		entry = entries[catalog.TierBasic]
		entry.Limits = map[catalog.Resource]int64{catalog.ResourcePosts: 30}
		entries[catalog.TierBasic] = entry

		_, err := catalog.New(entries)
		assert.ErrorIs(t, err, catalog.ErrInvalidCatalog)
	})
}

func TestBillingCyclePeriodEnd(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, start.AddDate(0, 0, 30), catalog.CycleMonthly.PeriodEnd(start))
	assert.Equal(t, start.AddDate(0, 0, 365), catalog.CycleAnnual.PeriodEnd(start))
	assert.True(t, catalog.CycleMonthly.Valid())
	assert.False(t, catalog.BillingCycle("weekly").Valid())
}
