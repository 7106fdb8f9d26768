package biddingerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Repository-level errors
var (
	ErrNotFound        = errors.New("not found")
	ErrAuctionNotFound = fmt.Errorf("auction %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrUserExists      = errors.New("user already exists")

	// ErrStorageUnavailable marks transient persistence failures
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// business logic errors
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidBidder      = errors.New("invalid bidder")
	ErrInvalidAmount      = errors.New("invalid bid amount")
	ErrAuctionClosed      = errors.New("auction is closed")
	ErrBidTooLow          = errors.New("bid amount too low")
	ErrAggregationFailed  = errors.New("statistics aggregation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// FieldError describes one rejected input field
type FieldError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ValidationError carries every field that failed validation.
// It matches ErrValidation under errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Issue)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field, issue string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Issue: issue}}}
}

// IsRetryable reports whether the caller may resubmit the same request
// (or a higher amount) and expect a different outcome.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrBidTooLow),
		errors.Is(err, ErrAggregationFailed),
		errors.Is(err, ErrStorageUnavailable):
		return true
	default:
		return false
	}
}
