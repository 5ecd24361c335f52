// Package subscription manages the per-user subscription record: its tier,
// billing cycle, rolling period bounds, payment-distress bookkeeping and the
// state machine between active, past_due, cancelled and expired.
//
// The effective tier is a pure function of the record and a point in time,
// recomputed on every read. A past_due record keeps granting its paid tier
// while the grace window is open; once the window elapses the record
// resolves to free immediately, without waiting for a write. The Monitor
// runs an idempotent sweep that materializes that expiry
// (status=expired, tier=free) for overdue records.
//
// State transitions are applied through the Store's atomic read-modify-write
// so that a sweep racing a user-initiated cancel or reactivate can never
// resurrect a record the user just changed, and vice versa.
//
// Basic usage:
//
//	store := subscription.NewMemoryStore()
//	svc := subscription.NewService(store)
//
//	rec, err := svc.Get(ctx, userID) // lazily created as free/active
//	tier := rec.EffectiveTierAt(time.Now().UTC())
//
//	mon := subscription.NewMonitor(store)
//	go mon.Run(ctx, time.Hour)
package subscription
