package pricing

import "errors"

var (
	// ErrInvalidInput is returned when the caller supplies an unusable request (non-positive
	// price or quantity, malformed tier ranges).
	ErrInvalidInput = errors.New("invalid pricing input")
	// ErrDataIntegrity indicates the reference data itself is broken (overlapping tiers,
	// tied volume rules, inverted freight ranges). It is never the caller's fault.
	ErrDataIntegrity = errors.New("reference data integrity violation")
)
