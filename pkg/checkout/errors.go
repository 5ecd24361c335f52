package checkout

import "errors"

var (
	// ErrIntentNotFound is returned when no checkout intent exists for the
	// given session ID.
	ErrIntentNotFound = errors.New("checkout intent not found")

	// ErrInvalidTier is returned when a checkout is requested for the free
	// tier or an unknown tier. Free requires no payment.
	ErrInvalidTier = errors.New("tier not purchasable via checkout")

	// ErrDowngradeNotAllowed is returned when the requested tier is lower
	// than the user's current active tier. Downgrades go through cancel.
	ErrDowngradeNotAllowed = errors.New("downgrade not allowed via checkout")

	// ErrProvider wraps failures from the payment provider while creating
	// a checkout session.
	ErrProvider = errors.New("payment provider error")

	// ErrInvalidOutcome is returned when a payment event carries an
	// outcome the orchestrator does not recognize.
	ErrInvalidOutcome = errors.New("invalid payment outcome")
)
