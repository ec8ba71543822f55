package core

import (
	"errors"
	"fmt"
)

// Engine errors. Analyses that hit one of these degrade to an empty result at the
// engine level; component functions return them so callers can tell why.
var (
	ErrInsufficientData    = errors.New("insufficient data for analysis")
	ErrDegenerateInput     = errors.New("degenerate input")
	ErrInvalidClusterCount = errors.New("invalid cluster count")
	ErrDimensionMismatch   = errors.New("point dimension mismatch")
	ErrUnknownVariable     = errors.New("unknown variable")
	ErrNotNumeric          = errors.New("variable is not numeric")
	ErrNotCategorical      = errors.New("variable is not categorical")
	ErrInvalidRequest      = errors.New("invalid analysis request")
)

// NewInsufficientDataError records what was required and what was available.
func NewInsufficientDataError(analysis string, need, have int) error {
	return fmt.Errorf("%w: %s needs %d, have %d", ErrInsufficientData, analysis, need, have)
}

func NewClusterCountError(k, n int) error {
	return fmt.Errorf("%w: k=%d for %d points", ErrInvalidClusterCount, k, n)
}

func NewUnknownVariableError(name string) error {
	return fmt.Errorf("%w: %s", ErrUnknownVariable, name)
}

// IsInsufficientData reports whether err means "not enough data", which callers
// treat as an empty result rather than a failure.
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}
