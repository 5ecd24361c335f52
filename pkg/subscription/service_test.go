package subscription_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authorityengine/billing/pkg/catalog"
	"github.com/authorityengine/billing/pkg/subscription"
)

// fakeClock is a mutable time source shared by a service and its monitor.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, clock *fakeClock) (*subscription.Service, subscription.Store) {
	t.Helper()
	store := subscription.NewMemoryStore()
	svc := subscription.NewService(store, subscription.WithClock(clock.Now))
	return svc, store
}

func activatePremium(t *testing.T, svc *subscription.Service, userID uuid.UUID) *subscription.Record {
	t.Helper()
	rec, err := svc.Activate(context.Background(), userID, catalog.TierPremium,
		catalog.CycleMonthly, catalog.CurrencyUSD, &subscription.PaymentMethod{Brand: "visa", Last4: "4242"})
	require.NoError(t, err)
	return rec
}

func TestGetLazilyCreatesFreeRecord(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clock)
	userID := uuid.New()

	rec, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, catalog.TierFree, rec.Tier)
	assert.Equal(t, subscription.StatusActive, rec.Status)
	assert.Empty(t, rec.BillingCycle)
	assert.Equal(t, catalog.DefaultCurrency, rec.Currency)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), rec.CurrentPeriodStart)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), rec.CurrentPeriodEnd)
	assert.True(t, rec.CurrentPeriodEnd.After(rec.CurrentPeriodStart))

	// Second read returns the same record, not a new one.
	again, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, rec.CreatedAt, again.CreatedAt)
}

func TestFreePeriodRollsToCalendarMonth(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clock)
	userID := uuid.New()

	_, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)

	clock.Advance(40 * 24 * time.Hour) // into late July

	rec, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), rec.CurrentPeriodStart)
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), rec.CurrentPeriodEnd)
}

func TestPaidPeriodRollsByCycle(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clock)
	userID := uuid.New()

	first := activatePremium(t, svc, userID)

	clock.Advance(31 * 24 * time.Hour)

	rec, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, first.CurrentPeriodEnd, rec.CurrentPeriodStart)
	assert.True(t, rec.CurrentPeriodEnd.After(clock.Now()))
	assert.Equal(t, catalog.TierPremium, rec.Tier)
}

func TestCancelActiveSchedulesOnly(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clock)
	userID := uuid.New()
	activatePremium(t, svc, userID)

	require.NoError(t, svc.Cancel(context.Background(), userID))

	rec, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, rec.CancelAtPeriodEnd)
	assert.Equal(t, subscription.StatusActive, rec.Status)
	assert.Equal(t, catalog.TierPremium, rec.Tier, "no immediate effect")
	assert.Equal(t, catalog.TierPremium, rec.EffectiveTierAt(clock.Now()))

	// Cancelling again is a no-op, not an error.
	require.NoError(t, svc.Cancel(context.Background(), userID))
}

func TestCancelThenPeriodEndDemotesToFree(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clock)
	userID := uuid.New()
	activatePremium(t, svc, userID)
	require.NoError(t, svc.Cancel(context.Background(), userID))

	clock.Advance(31 * 24 * time.Hour)

	rec, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, catalog.TierFree, rec.Tier)
	assert.Equal(t, subscription.StatusActive, rec.Status)
	assert.False(t, rec.CancelAtPeriodEnd)
	assert.Empty(t, rec.BillingCycle)
}

func TestCancelThenReactivateRestoresTier(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clock)
	userID := uuid.New()
	activatePremium(t, svc, userID)

	require.NoError(t, svc.Cancel(context.Background(), userID))
	require.NoError(t, svc.Reactivate(context.Background(), userID))

	rec, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, catalog.TierPremium, rec.Tier)
	assert.False(t, rec.CancelAtPeriodEnd)
	assert.Nil(t, rec.CancelledAt)

	// Reactivating an active record again is a no-op.
	require.NoError(t, svc.Reactivate(context.Background(), userID))
}

func TestReactivateFreeSignalsNoCancelledSubscription(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clock)
	userID := uuid.New()

	_, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)

	err = svc.Reactivate(context.Background(), userID)
	assert.ErrorIs(t, err, subscription.ErrNoCancelledSubscription)
}

func TestCancelPastDueExpiresImmediately(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clock)
	userID := uuid.New()
	activatePremium(t, svc, userID)

	require.NoError(t, svc.RecordPaymentFailure(context.Background(), userID))
	require.NoError(t, svc.Cancel(context.Background(), userID))

	rec, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusExpired, rec.Status)
	assert.Equal(t, catalog.TierFree, rec.Tier)
	assert.Nil(t, rec.GracePeriodStartedAt)
}

func TestPaymentFailureOpensGraceWindow(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clock)
	userID := uuid.New()
	activatePremium(t, svc, userID)

	require.NoError(t, svc.RecordPaymentFailure(context.Background(), userID))

	rec, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, subscription.StatusPastDue, rec.Status)
	require.NotNil(t, rec.GracePeriodStartedAt)
	assert.Equal(t, clock.Now(), *rec.GracePeriodStartedAt)

	// Full paid access during the whole grace window.
	clock.Advance(47 * time.Hour)
	assert.Equal(t, catalog.TierPremium, rec.EffectiveTierAt(clock.Now()))

	// One second past the window the tier is free, no write needed.
	clock.Advance(time.Hour + time.Second)
	assert.Equal(t, catalog.TierFree, rec.EffectiveTierAt(clock.Now()))

	t.Run("duplicate failure does not restart the window", func(t *testing.T) {
		started := *rec.GracePeriodStartedAt
		require.NoError(t, svc.RecordPaymentFailure(context.Background(), userID))

		again, err := svc.Get(context.Background(), userID)
		require.NoError(t, err)
		require.NotNil(t, again.GracePeriodStartedAt)
		assert.Equal(t, started, *again.GracePeriodStartedAt)
	})
}

func TestPaymentRecoveryRestoresActive(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clock)
	userID := uuid.New()
	activatePremium(t, svc, userID)
	require.NoError(t, svc.RecordPaymentFailure(context.Background(), userID))

	clock.Advance(12 * time.Hour)
	require.NoError(t, svc.RecordPaymentRecovery(context.Background(), userID))

	rec, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, rec.Status)
	assert.Equal(t, catalog.TierPremium, rec.Tier)
	assert.Nil(t, rec.GracePeriodStartedAt)
	assert.Equal(t, clock.Now(), rec.CurrentPeriodStart)

	// Duplicate recovery is swallowed.
	require.NoError(t, svc.RecordPaymentRecovery(context.Background(), userID))
}

func TestSweepExpiresOverdueGracePeriods(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	svc, store := newTestService(t, clock)
	mon := subscription.NewMonitor(store, subscription.WithMonitorClock(clock.Now))

	overdue := uuid.New()
	inGrace := uuid.New()
	healthy := uuid.New()

	activatePremium(t, svc, overdue)
	require.NoError(t, svc.RecordPaymentFailure(context.Background(), overdue))

	activatePremium(t, svc, healthy)

	clock.Advance(40 * time.Hour)
	activatePremium(t, svc, inGrace)
	require.NoError(t, svc.RecordPaymentFailure(context.Background(), inGrace))

	clock.Advance(9 * time.Hour) // overdue: 49h elapsed; inGrace: 9h elapsed

	expired, err := mon.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	rec, err := svc.Get(context.Background(), overdue)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusExpired, rec.Status)
	assert.Equal(t, catalog.TierFree, rec.Tier)

	rec, err = svc.Get(context.Background(), inGrace)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusPastDue, rec.Status)
	assert.Equal(t, catalog.TierPremium, rec.Tier)

	rec, err = svc.Get(context.Background(), healthy)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, rec.Status)

	t.Run("sweep is idempotent", func(t *testing.T) {
		expired, err := mon.Sweep(context.Background())
		require.NoError(t, err)
		assert.Zero(t, expired)
	})
}

func TestSweepDoesNotResurrectRecoveredRecord(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	svc, store := newTestService(t, clock)
	mon := subscription.NewMonitor(store, subscription.WithMonitorClock(clock.Now))
	userID := uuid.New()

	activatePremium(t, svc, userID)
	require.NoError(t, svc.RecordPaymentFailure(context.Background(), userID))

	clock.Advance(49 * time.Hour)

	// Payment recovery lands first; the subsequent sweep must leave the
	// record alone because its status is no longer past_due.
	require.NoError(t, svc.RecordPaymentRecovery(context.Background(), userID))

	expired, err := mon.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, expired)

	rec, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, rec.Status)
	assert.Equal(t, catalog.TierPremium, rec.Tier)
}

func TestActivateFromExpired(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	svc, store := newTestService(t, clock)
	mon := subscription.NewMonitor(store, subscription.WithMonitorClock(clock.Now))
	userID := uuid.New()

	activatePremium(t, svc, userID)
	require.NoError(t, svc.RecordPaymentFailure(context.Background(), userID))
	clock.Advance(49 * time.Hour)
	_, err := mon.Sweep(context.Background())
	require.NoError(t, err)

	rec, err := svc.Activate(context.Background(), userID, catalog.TierBasic,
		catalog.CycleAnnual, catalog.CurrencyEUR, nil)
	require.NoError(t, err)

	assert.Equal(t, subscription.StatusActive, rec.Status)
	assert.Equal(t, catalog.TierBasic, rec.Tier)
	assert.Equal(t, catalog.CycleAnnual, rec.BillingCycle)
	assert.Equal(t, clock.Now().AddDate(0, 0, 365), rec.CurrentPeriodEnd)
	assert.Nil(t, rec.GracePeriodStartedAt)
}

func TestConcurrentLazyCreationStaysSingleton(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clock)
	userID := uuid.New()

	const callers = 16
	records := make([]*subscription.Record, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := svc.Get(context.Background(), userID)
			if assert.NoError(t, err) {
				records[i] = rec
			}
		}()
	}
	wg.Wait()

	for _, rec := range records {
		require.NotNil(t, rec)
		assert.Equal(t, records[0].CreatedAt, rec.CreatedAt)
	}
}
