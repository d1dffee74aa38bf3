package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the provider-facing taxonomy. Callers match with
// errors.Is without knowing which provider served the request.
var (
	ErrInvalidVIN   = errors.New("invalid VIN")
	ErrVINLength    = errors.New("VIN must be exactly 17 characters")
	ErrVINCharset   = errors.New("VIN may not contain the letters I, O, or Q")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("VIN not found")
	ErrUpstream     = errors.New("upstream provider error")
	ErrNetwork      = errors.New("network failure")
	ErrDecode       = errors.New("unreadable provider response")
)

// ValidationError wraps a sentinel with the offending input.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}

// ProviderError is the single error type raised at the facade boundary. Kind
// is always one of the taxonomy sentinels above so callers can pattern-match.
type ProviderError struct {
	Provider ProviderName
	Kind     error
	Detail   string
	Cause    error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s: %s", e.Provider, e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the taxonomy sentinel and the underlying cause.
func (e *ProviderError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// NewProviderError creates a ProviderError.
func NewProviderError(provider ProviderName, kind error, detail string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Detail: detail, Cause: cause}
}

// UserHint returns the taxonomy-appropriate single-line hint shown to the end
// user when a decode fails. Full upstream detail stays server-side.
func UserHint(err error) string {
	switch {
	case errors.Is(err, ErrVINLength):
		return "A VIN is exactly 17 characters long."
	case errors.Is(err, ErrVINCharset):
		return "A VIN never contains the letters I, O, or Q."
	case errors.Is(err, ErrInvalidVIN):
		return "That doesn't look like a valid VIN."
	case errors.Is(err, ErrUnauthorized):
		return "Sorry, the provider rejected the request. Check your API key."
	case errors.Is(err, ErrNotFound):
		return "Sorry, no data was found for that VIN."
	case errors.Is(err, ErrNetwork):
		return "Sorry, the provider could not be reached. Please try again."
	case errors.Is(err, ErrDecode), errors.Is(err, ErrUpstream):
		return "Sorry, the provider returned an unexpected response. Please try again later."
	default:
		return "Sorry, something went wrong. Please try again."
	}
}
