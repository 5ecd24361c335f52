package subscription_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/authorityengine/billing/pkg/catalog"
	"github.com/authorityengine/billing/pkg/subscription"
)

func paidRecord(tier catalog.Tier, status subscription.Status) *subscription.Record {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return &subscription.Record{
		UserID:             uuid.New(),
		Tier:               tier,
		Status:             status,
		BillingCycle:       catalog.CycleMonthly,
		Currency:           catalog.CurrencyUSD,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   start.AddDate(0, 0, 30),
		GracePeriodHours:   48,
		CreatedAt:          start,
		UpdatedAt:          start,
	}
}

func TestEffectiveTierAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("active paid grants its tier", func(t *testing.T) {
		t.Parallel()

		rec := paidRecord(catalog.TierPremium, subscription.StatusActive)
		assert.Equal(t, catalog.TierPremium, rec.EffectiveTierAt(now))
	})

	t.Run("free is always free", func(t *testing.T) {
		t.Parallel()

		rec := paidRecord(catalog.TierFree, subscription.StatusActive)
		rec.BillingCycle = ""
		assert.Equal(t, catalog.TierFree, rec.EffectiveTierAt(now))
	})

	t.Run("past_due within grace keeps paid tier", func(t *testing.T) {
		t.Parallel()

		rec := paidRecord(catalog.TierPremium, subscription.StatusPastDue)
		started := now.Add(-47 * time.Hour)
		rec.GracePeriodStartedAt = &started

		assert.Equal(t, catalog.TierPremium, rec.EffectiveTierAt(now))
		assert.True(t, rec.InGracePeriodAt(now))
		assert.Equal(t, time.Hour, rec.GraceRemainingAt(now))
	})

	t.Run("past_due after grace resolves free without a write", func(t *testing.T) {
		t.Parallel()

		rec := paidRecord(catalog.TierPremium, subscription.StatusPastDue)
		started := now.Add(-48*time.Hour - time.Second)
		rec.GracePeriodStartedAt = &started

		assert.Equal(t, catalog.TierFree, rec.EffectiveTierAt(now))
		assert.False(t, rec.InGracePeriodAt(now))
		assert.Zero(t, rec.GraceRemainingAt(now))
	})

	t.Run("grace boundary is exclusive", func(t *testing.T) {
		t.Parallel()

		rec := paidRecord(catalog.TierBasic, subscription.StatusPastDue)
		started := now.Add(-48 * time.Hour)
		rec.GracePeriodStartedAt = &started

		assert.Equal(t, catalog.TierFree, rec.EffectiveTierAt(now))
	})

	t.Run("scheduled cancellation takes effect at period end", func(t *testing.T) {
		t.Parallel()

		rec := paidRecord(catalog.TierBasic, subscription.StatusActive)
		rec.CancelAtPeriodEnd = true

		beforeEnd := rec.CurrentPeriodEnd.Add(-time.Minute)
		assert.Equal(t, catalog.TierBasic, rec.EffectiveTierAt(beforeEnd))

		atEnd := rec.CurrentPeriodEnd
		assert.Equal(t, catalog.TierFree, rec.EffectiveTierAt(atEnd))
	})

	t.Run("expired and cancelled resolve free", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, catalog.TierFree,
			paidRecord(catalog.TierPremium, subscription.StatusExpired).EffectiveTierAt(now))
		assert.Equal(t, catalog.TierFree,
			paidRecord(catalog.TierPremium, subscription.StatusCancelled).EffectiveTierAt(now))
	})

	t.Run("unknown tier fails closed", func(t *testing.T) {
		t.Parallel()

		rec := paidRecord(catalog.Tier("platinum"), subscription.StatusActive)
		assert.Equal(t, catalog.TierFree, rec.EffectiveTierAt(now))
	})

	t.Run("past_due without grace stamp fails closed", func(t *testing.T) {
		t.Parallel()

		rec := paidRecord(catalog.TierPremium, subscription.StatusPastDue)
		assert.Equal(t, catalog.TierFree, rec.EffectiveTierAt(now))
	})
}
