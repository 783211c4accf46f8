package errors

import (
	"fmt"
	"math"

	"propztest/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Sample  int     // 1 or 2 when the error concerns one sample, 0 otherwise
	Value   float64 // offending value, NaN when there is none
	Cause   error
}

func (e *AppError) Error() string {
	msg := e.Message
	if e.Sample != 0 {
		if math.IsNaN(e.Value) {
			msg = fmt.Sprintf("sample %d: %s", e.Sample, e.Message)
		} else {
			msg = fmt.Sprintf("sample %d: %s (value=%g)", e.Sample, e.Message, e.Value)
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Value:   math.NaN(),
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Value:   math.NaN(),
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Value:   math.NaN(),
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeLowSampleSize      = "LOW_SAMPLE_SIZE"
	CodeDegenerateVariance = "DEGENERATE_VARIANCE"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

// InvalidInput reports a malformed argument that is not tied to one sample.
func InvalidInput(message string, cause error) *AppError {
	if cause == nil {
		cause = core.ErrInvalidInput
	}
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
		Value:   math.NaN(),
		Cause:   cause,
	}
}

// InvalidSample reports a malformed sample descriptor.
func InvalidSample(sample int, value float64, message string, cause error) *AppError {
	if cause == nil {
		cause = core.ErrMalformedSample
	}
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
		Sample:  sample,
		Value:   value,
		Cause:   cause,
	}
}

// MissingSample reports an absent sample descriptor.
func MissingSample(sample int) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: "sample is required",
		Sample:  sample,
		Value:   math.NaN(),
		Cause:   core.ErrMissingSample,
	}
}

func LowSampleSize(sample int, n int, min int) *AppError {
	return &AppError{
		Code:    CodeLowSampleSize,
		Message: fmt.Sprintf("n observations must be at least %d", min),
		Sample:  sample,
		Value:   float64(n),
		Cause:   core.ErrLowSampleSize,
	}
}

// DegenerateVariance reports a zero pooled standard error.
func DegenerateVariance(pooledP float64) *AppError {
	return &AppError{
		Code:    CodeDegenerateVariance,
		Message: fmt.Sprintf("z-statistic undefined for pooled proportion %g", pooledP),
		Value:   math.NaN(),
		Cause:   core.ErrDegenerateVariance,
	}
}
