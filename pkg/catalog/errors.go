package catalog

import "errors"

var (
	ErrUnknownTier     = errors.New("catalog: unknown tier")
	ErrUnknownResource = errors.New("catalog: unknown resource")
	ErrUnknownCurrency = errors.New("catalog: unknown currency")
	ErrUnknownCycle    = errors.New("catalog: unknown billing cycle")

	ErrInvalidCatalog = errors.New("catalog: invalid catalog configuration")
)
