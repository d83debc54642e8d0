// Package errors provides typed errors for the batch planner
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// ErrConfig indicates a configuration error
	ErrConfig ErrorType = iota
	// ErrEstimation indicates an unusable token estimate
	ErrEstimation
	// ErrRead indicates a file content read failure
	ErrRead
	// ErrBoundary indicates a boundary detection failure
	ErrBoundary
	// ErrSizeMismatch indicates a file that fits no configured size bucket
	ErrSizeMismatch
	// ErrValidation indicates an invalid batch or input
	ErrValidation
)

// PlannerError is the base error type for all batch-planner errors
type PlannerError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error returns the error message
func (e *PlannerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", errorTypeString(e.Type), e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", errorTypeString(e.Type), e.Message)
}

// Unwrap returns the underlying cause
func (e *PlannerError) Unwrap() error {
	return e.Cause
}

// New creates a new PlannerError
func New(errType ErrorType, message string, cause error) *PlannerError {
	return &PlannerError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *PlannerError) WithContext(key string, value interface{}) *PlannerError {
	e.Context[key] = value
	return e
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	var perr *PlannerError
	if err == nil {
		return false
	}
	if errors.As(err, &perr) {
		return perr.Type == errType
	}
	return false
}

// IsRecoverable returns true if the error is recovered locally via the
// fallback path instead of failing a file's placement.
func IsRecoverable(err error) bool {
	var perr *PlannerError
	if !errors.As(err, &perr) {
		return false
	}

	switch perr.Type {
	case ErrRead, ErrBoundary:
		// Both degrade to equal-segment chunking
		return true
	default:
		return false
	}
}

// ExcludesFile returns true if the error removes a single file from
// planning rather than aborting the run.
func ExcludesFile(err error) bool {
	var perr *PlannerError
	if !errors.As(err, &perr) {
		return false
	}

	switch perr.Type {
	case ErrEstimation, ErrSizeMismatch:
		return true
	default:
		return false
	}
}

func errorTypeString(et ErrorType) string {
	switch et {
	case ErrConfig:
		return "CONFIG"
	case ErrEstimation:
		return "ESTIMATION"
	case ErrRead:
		return "READ"
	case ErrBoundary:
		return "BOUNDARY"
	case ErrSizeMismatch:
		return "SIZE_MISMATCH"
	case ErrValidation:
		return "VALIDATION"
	default:
		return "UNKNOWN"
	}
}

// Convenience functions for common errors

// ConfigError creates a configuration error
func ConfigError(message string, cause error) *PlannerError {
	return New(ErrConfig, message, cause)
}

// EstimationError creates an estimation error
func EstimationError(message string, cause error) *PlannerError {
	return New(ErrEstimation, message, cause)
}

// ReadError creates a content read error
func ReadError(message string, cause error) *PlannerError {
	return New(ErrRead, message, cause)
}

// BoundaryError creates a boundary detection error
func BoundaryError(message string, cause error) *PlannerError {
	return New(ErrBoundary, message, cause)
}

// SizeMismatchError creates a size bucket mismatch error
func SizeMismatchError(message string, cause error) *PlannerError {
	return New(ErrSizeMismatch, message, cause)
}

// ValidationError creates a validation error
func ValidationError(message string, cause error) *PlannerError {
	return New(ErrValidation, message, cause)
}
