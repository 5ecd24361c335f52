// Package usage meters per-period resource consumption against tier limits.
//
// The Ledger resolves the user's current billing period and effective tier
// on every call, then delegates the authoritative decision to the Store's
// ConsumeIfBelow: a single atomic increment-with-limit-check. Two callers
// racing near the limit can never jointly exceed it, because the compare
// and the increment happen as one operation inside the store (mutex for the
// memory store, a Lua script for redis, a conditional UPDATE for postgres).
//
// Peek and Snapshot are read-only projections for dashboards; they are
// advisory and must never be used to gate an action. The authoritative gate
// is always TryConsume at the moment the metered work executes.
//
// Counter rows are keyed by (user, period start, resource). When the
// subscription period rolls, a fresh key starts at zero and rows from prior
// periods are never incremented again.
package usage
