package subscription

import "errors"

var (
	ErrNotFound      = errors.New("subscription: record not found")
	ErrAlreadyExists = errors.New("subscription: record already exists")

	ErrNoCancelledSubscription = errors.New("subscription: no cancelled subscription to reactivate")
	ErrInvalidTransition       = errors.New("subscription: invalid state transition")
)
