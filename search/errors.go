package search

import "errors"

var (
	// ErrUnknownStrategy is returned by Solve before any exploration when the
	// configured strategy tag is not recognised.
	ErrUnknownStrategy = errors.New("unknown search strategy")
	// ErrInvalidConfig wraps numeric configuration failures detected at construction.
	ErrInvalidConfig = errors.New("invalid search config")
	// ErrNilCapability is returned when a generator or evaluator is missing.
	ErrNilCapability = errors.New("thought generator and state evaluator are required")
)

const (
	// ReasonExhausted covers both running out of depth and running out of viable
	// expansions; the two causes are reported under one tag.
	ReasonExhausted = "max depth or no solution found"
	// ReasonCancelled is reported when the caller's context ends the search.
	ReasonCancelled = "search cancelled"
)
