package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/authorityengine/billing/pkg/catalog"
)

// Store persists checkout intents. Implementations must make Mark an
// atomic conditional transition so that duplicate or out-of-order
// confirmation events cannot overwrite a terminal intent.
type Store interface {
	// Get returns the intent for the session ID, or ErrIntentNotFound.
	Get(ctx context.Context, sessionID string) (*Intent, error)

	// Create inserts a new intent.
	Create(ctx context.Context, intent *Intent) error

	// Mark transitions the intent from one status to another only if it is
	// still in the source status. It returns the intent after the attempt
	// and whether the transition was applied. A missing session returns
	// ErrIntentNotFound.
	Mark(ctx context.Context, sessionID string, from, to Status, now time.Time) (*Intent, bool, error)

	// ExpirePending marks every pending intent for the same user, tier,
	// cycle, and currency as expired, returning how many were superseded.
	ExpirePending(ctx context.Context, userID uuid.UUID, tier catalog.Tier, cycle catalog.BillingCycle, currency catalog.Currency, now time.Time) (int, error)
}
