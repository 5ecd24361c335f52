// Package entitlement is the facade the rest of the product calls to
// answer "what can this user do right now". It composes the tier catalog,
// the subscription record, and the usage ledger on every call; there is no
// entitlement cache, so grace-period expiry and payment confirmations are
// visible on the next read.
//
// Every query fails closed: if the subscription record cannot be resolved,
// the user is treated as free tier and metered resources read as denied.
// An error never grants access.
//
// CanUse is advisory, for UIs deciding whether to offer an action. The
// authoritative gate for performing a metered action is the ledger's
// TryConsume at the moment the action executes.
package entitlement
