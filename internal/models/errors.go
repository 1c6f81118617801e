package models

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ErrNoData is returned when a price provider has no bars for any requested
// ticker over the requested range.
var ErrNoData = errors.New("no price data for requested range")

// ProviderError wraps a failure talking to an upstream market data provider.
type ProviderError struct {
	Provider string
	Ticker   string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Ticker == "" {
		return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s provider (%s): %v", e.Provider, e.Ticker, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
