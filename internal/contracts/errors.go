package contracts

import "errors"

var (
	// ErrNotFound is returned when a single-entity lookup does not match.
	// Repositories map driver-level "no rows" onto this so callers never
	// depend on pgx directly.
	ErrNotFound = errors.New("entity not found")

	// ErrInsufficientData is returned when an engine is asked to compute
	// over too little input (empty population, short forecast history).
	// It is an explicit "not computable" result, not a failure.
	ErrInsufficientData = errors.New("insufficient data")
)
