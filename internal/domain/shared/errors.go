// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors. Always detected locally, before any network call,
	// and recoverable by the user correcting input.
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrInvalidFormat   = errors.New("invalid format")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrIncomplete      = errors.New("incomplete input")
	ErrUnknownStudent  = errors.New("student not on roster")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrSubmitInFlight  = errors.New("submission already in flight")
	ErrClosed          = errors.New("closed")

	// Authorization errors. Surfaced verbatim, never retried automatically.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// External service errors
	ErrNetwork            = errors.New("network error")
	ErrServer             = errors.New("server error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "marking", "session", "statistics"
	Op      string // Operation that failed, e.g., "Submit", "LoadForDate"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Session domain errors
var (
	ErrSessionNotFound      = NewDomainError("session", "Get", ErrNotFound, "class session not found")
	ErrSessionDeleted       = NewDomainError("session", "Fetch", ErrNotFound, "class session no longer exists on server")
	ErrInvalidSessionID     = NewDomainError("session", "Validate", ErrInvalidID, "invalid session ID")
	ErrDuplicateRosterEntry = NewDomainError("session", "Validate", ErrAlreadyExists, "duplicate student on roster")
	ErrSummaryMismatch      = NewDomainError("session", "ApplySummary", ErrInvalidInput, "summary counts do not add up to roster size")
)

// Marking domain errors
var (
	ErrMarkingNotOpen       = NewDomainError("marking", "Edit", ErrInvalidState, "marking session is not open for editing")
	ErrMarkingAlreadyOpened = NewDomainError("marking", "Open", ErrStateTransition, "marking session already opened")
	ErrMarkingClosed        = NewDomainError("marking", "Edit", ErrClosed, "marking session was closed")
	ErrMarkingSubmitting    = NewDomainError("marking", "Submit", ErrSubmitInFlight, "a submission for this session is already in flight")
	ErrMarkingCommitted     = NewDomainError("marking", "Edit", ErrInvalidState, "marking session already committed")
	ErrDecisionIncomplete   = NewDomainError("marking", "Validate", ErrIncomplete, "every roster student needs a status before submission")
	ErrStudentNotOnRoster   = NewDomainError("marking", "SetStatus", ErrUnknownStudent, "student is not on the session roster")
	ErrInvalidMarkingStatus = NewDomainError("marking", "Validate", ErrValidation, "unsupported attendance status")
	ErrNilSession           = NewDomainError("marking", "Open", ErrInvalidInput, "session cannot be nil")
)

// Statistics domain errors
var (
	ErrInvalidDateWindow = NewDomainError("statistics", "Validate", ErrInvalidInput, "invalid date window")
	ErrInvalidThreshold  = NewDomainError("statistics", "Validate", ErrValueOutOfRange, "threshold must be between 0 and 100")
)

// External service errors
var (
	ErrAPIUnavailable     = NewDomainError("institute", "Request", ErrServiceUnavailable, "institute API is unavailable")
	ErrAPITimeout         = NewDomainError("institute", "Request", ErrTimeout, "institute API request timeout")
	ErrAPIInvalidResponse = NewDomainError("institute", "Parse", ErrServer, "malformed response from institute API")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error. Validation errors
// must never be surfaced as a generic failure message.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrIncomplete) ||
		errors.Is(err, ErrUnknownStudent)
}

// IsAuthorization checks if the error is an authorization error.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrNetwork) ||
		errors.Is(err, ErrServer) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried without user input.
// Authorization and validation failures are never retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork) ||
		errors.Is(err, ErrServer) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}
