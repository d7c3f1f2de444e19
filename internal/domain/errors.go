package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEditInFlight    = errors.New("an edit is already in flight")
	ErrNoResult        = errors.New("no result available")
)

// ErrorKind classifies an edit failure. Kinds double as stable API codes.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindTransport     ErrorKind = "transport"
	KindRateLimit     ErrorKind = "rate_limit"
	KindSafetyBlock   ErrorKind = "safety_block"
	KindRefusal       ErrorKind = "refusal"
	KindEmptyResponse ErrorKind = "empty_response"
	KindProvider      ErrorKind = "provider"
	KindDecode        ErrorKind = "decode"
	KindRaster        ErrorKind = "raster"
)

// EditError is the single failure type crossing component boundaries.
// Message is human-readable; for safety blocks and refusals it carries the
// provider's wording verbatim.
type EditError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *EditError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *EditError) Unwrap() error {
	return e.Cause
}

// Transient reports whether an unmodified retry could plausibly succeed.
func (e *EditError) Transient() bool {
	return e.Kind == KindTransport || e.Kind == KindRateLimit
}

// Validation builds a validation-kind error.
func Validation(message string) *EditError {
	return &EditError{Kind: KindValidation, Message: message}
}

// Transport builds a transport-kind error wrapping the network cause.
func Transport(message string, cause error) *EditError {
	return &EditError{Kind: KindTransport, Message: message, Cause: cause}
}

// RateLimit builds a rate-limit-kind error.
func RateLimit(message string) *EditError {
	return &EditError{Kind: KindRateLimit, Message: message}
}

// SafetyBlock builds a safety-block-kind error carrying the provider wording.
func SafetyBlock(message string) *EditError {
	return &EditError{Kind: KindSafetyBlock, Message: message}
}

// Refusal builds a refusal-kind error carrying the model's text reply.
func Refusal(text string) *EditError {
	return &EditError{Kind: KindRefusal, Message: text}
}

// EmptyResponse builds an empty-response-kind error.
func EmptyResponse(message string, cause error) *EditError {
	return &EditError{Kind: KindEmptyResponse, Message: message, Cause: cause}
}

// Provider builds a provider-kind error for structured upstream failures.
func Provider(message string, cause error) *EditError {
	return &EditError{Kind: KindProvider, Message: message, Cause: cause}
}

// Decode builds a decode-kind error for undecodable input images.
func Decode(message string, cause error) *EditError {
	return &EditError{Kind: KindDecode, Message: message, Cause: cause}
}

// Raster builds a raster-kind error for crop/encode failures.
func Raster(message string, cause error) *EditError {
	return &EditError{Kind: KindRaster, Message: message, Cause: cause}
}

// IsTransient reports whether err is an EditError of a transient kind.
func IsTransient(err error) bool {
	var editErr *EditError
	if errors.As(err, &editErr) {
		return editErr.Transient()
	}
	return false
}

// KindOf extracts the error kind, or empty when err is not an EditError.
func KindOf(err error) ErrorKind {
	var editErr *EditError
	if errors.As(err, &editErr) {
		return editErr.Kind
	}
	return ""
}
