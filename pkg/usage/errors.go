package usage

import "errors"

var (
	ErrInvalidQuantity = errors.New("usage: consume quantity must be positive")
	ErrStoreFailure    = errors.New("usage: counter store failure")
)
