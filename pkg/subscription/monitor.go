package subscription

import (
	"context"
	"log/slog"
	"time"
)

// Monitor expires overdue grace periods on a fixed interval. The sweep is
// idempotent: records already expired are untouched, and the conditional
// transition inside Store.ExpireOverdue guarantees a record reactivated
// while the sweep runs is never demoted.
type Monitor struct {
	store Store
	now   func() time.Time
	log   *slog.Logger
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithMonitorClock replaces the time source. Intended for tests.
func WithMonitorClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// WithMonitorLogger sets the structured logger.
func WithMonitorLogger(log *slog.Logger) MonitorOption {
	return func(m *Monitor) {
		if log != nil {
			m.log = log
		}
	}
}

// NewMonitor creates a grace-period Monitor. Panics if store is nil.
func NewMonitor(store Store, opts ...MonitorOption) *Monitor {
	if store == nil {
		panic("subscription: Store is required")
	}

	m := &Monitor{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Sweep expires every past_due record whose grace window has closed.
// Returns the number of records demoted.
func (m *Monitor) Sweep(ctx context.Context) (int, error) {
	now := m.now()
	expired, err := m.store.ExpireOverdue(ctx, now)
	if err != nil {
		m.log.ErrorContext(ctx, "grace period sweep failed", slog.Any("error", err))
		return 0, err
	}
	if expired > 0 {
		m.log.InfoContext(ctx, "grace period sweep expired overdue subscriptions",
			slog.Int("expired", expired))
	}
	return expired, nil
}

// Run sweeps immediately and then on every tick until ctx is cancelled.
// Sweep errors are logged and do not stop the loop.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := m.Sweep(ctx); err != nil && ctx.Err() != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = m.Sweep(ctx)
		}
	}
}
