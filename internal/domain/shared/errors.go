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

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "exam", "activity", "achievement"
	Op      string // Operation that failed, e.g., "Submit", "Log"
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

// Exam domain errors
var (
	ErrExamNotFound      = NewDomainError("exam", "Find", ErrNotFound, "exam not found")
	ErrQuestionNotFound  = NewDomainError("exam", "FindQuestion", ErrNotFound, "question not found")
	ErrAttemptNotFound   = NewDomainError("exam", "FindAttempt", ErrNotFound, "attempt not found")
	ErrAttemptNotOwned   = NewDomainError("exam", "CheckOwner", ErrForbidden, "attempt belongs to another student")
	ErrAttemptCompleted  = NewDomainError("exam", "Submit", ErrStateTransition, "attempt already completed")
	ErrNoAnswers         = NewDomainError("exam", "Submit", ErrValidation, "at least one answer is required")
	ErrDuplicateAnswer   = NewDomainError("exam", "Submit", ErrValidation, "question answered more than once")
	ErrInvalidExamID     = NewDomainError("exam", "Validate", ErrInvalidID, "invalid exam ID")
	ErrInvalidAttemptID  = NewDomainError("exam", "Validate", ErrInvalidID, "invalid attempt ID")
	ErrInvalidQuestionID = NewDomainError("exam", "Validate", ErrInvalidID, "invalid question ID")
)

// Activity domain errors
var (
	ErrInvalidUserID  = NewDomainError("activity", "Validate", ErrInvalidID, "invalid user ID")
	ErrNegativeDelta  = NewDomainError("activity", "Validate", ErrNegativeValue, "activity deltas cannot be negative")
	ErrInvalidDate    = NewDomainError("activity", "Validate", ErrInvalidFormat, "date must be YYYY-MM-DD")
	ErrInvalidRange   = NewDomainError("activity", "Validate", ErrValueOutOfRange, "from must not be after to")
	ErrRecordNotFound = NewDomainError("activity", "Find", ErrNotFound, "activity record not found")
)

// Achievement domain errors
var (
	ErrDefinitionNotFound     = NewDomainError("achievement", "Find", ErrNotFound, "achievement definition not found")
	ErrUnknownRequirementType = NewDomainError("achievement", "Validate", ErrInvalidInput, "unknown requirement type")
	ErrInvalidDefinition      = NewDomainError("achievement", "Validate", ErrValidation, "invalid achievement definition")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is a uniqueness or state conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrStateTransition) ||
		errors.Is(err, ErrConcurrentModification)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsForbidden checks if the error is an authorization failure.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsUnauthorized checks if the error is an authentication failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
