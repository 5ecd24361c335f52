package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists subscription records. UserID is the primary key; each user
// has exactly one record.
//
// Update and ExpireOverdue are the concurrency-critical operations: both
// must apply their change atomically against the stored record so that a
// monitor sweep and a user-initiated transition racing on the same record
// serialize instead of clobbering each other.
type Store interface {
	// Get retrieves a record. Returns ErrNotFound if none exists.
	Get(ctx context.Context, userID uuid.UUID) (*Record, error)

	// Create inserts a new record. Returns ErrAlreadyExists if the user
	// already has one, so lazy creation under concurrency stays singleton.
	Create(ctx context.Context, rec *Record) error

	// Update applies fn to the current record as one atomic
	// read-modify-write and returns the updated copy. fn returning an
	// error aborts the update and propagates the error unchanged.
	Update(ctx context.Context, userID uuid.UUID, fn func(*Record) error) (*Record, error)

	// ExpireOverdue transitions every record that is still past_due with a
	// grace window closed at or before now to status=expired, tier=free.
	// The status condition is evaluated atomically with the write, so a
	// record reactivated mid-sweep is left alone. Returns the number of
	// records expired; running it again immediately returns 0.
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}
