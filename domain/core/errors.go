package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingSample   = fmt.Errorf("%w: missing sample", ErrInvalidInput)
	ErrMalformedSample = fmt.Errorf("%w: malformed sample", ErrInvalidInput)
	ErrMixedConvention = fmt.Errorf("%w: mixed count/proportion conventions", ErrInvalidInput)
	ErrInvalidAlpha    = fmt.Errorf("%w: significance level", ErrInvalidInput)
	ErrLowSampleSize   = errors.New("sample size too small for normal approximation")

	// Computation errors
	ErrDegenerateVariance = errors.New("pooled variance is zero")
)

// IsInputError reports whether err stems from malformed caller input.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrLowSampleSize)
}

// IsDegenerateError reports whether err is a zero pooled variance failure.
func IsDegenerateError(err error) bool {
	return errors.Is(err, ErrDegenerateVariance)
}
