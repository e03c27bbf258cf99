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
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation    = errors.New("validation error")
	ErrInvalidID     = errors.New("invalid ID")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrNegativeValue = errors.New("value cannot be negative")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrPrecondition    = errors.New("precondition not satisfied")

	// Authorization errors
	ErrAnonymous = errors.New("anonymous user")
	ErrForbidden = errors.New("forbidden")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")

	// Economy errors
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "course", "progress", "wallet"
	Op      string // Operation that failed, e.g., "CompleteLesson"
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

// Course domain errors
var (
	ErrCourseNotFound      = NewDomainError("course", "Find", ErrNotFound, "course not found")
	ErrBlockNotFound       = NewDomainError("course", "FindBlock", ErrNotFound, "block not found")
	ErrLessonNotFound      = NewDomainError("course", "FindLesson", ErrNotFound, "lesson not found")
	ErrTestNotFound        = NewDomainError("course", "FindTest", ErrNotFound, "test not found")
	ErrInvalidCourseID     = NewDomainError("course", "Validate", ErrInvalidID, "invalid course ID")
	ErrInvalidBlockID      = NewDomainError("course", "Validate", ErrInvalidID, "invalid block ID")
	ErrInvalidLessonID     = NewDomainError("course", "Validate", ErrInvalidID, "invalid lesson ID")
	ErrAlreadySubscribed   = NewDomainError("course", "Subscribe", ErrAlreadyExists, "already subscribed to course")
	ErrAnonymousEnrollment = NewDomainError("course", "Subscribe", ErrAnonymous, "anonymous user cannot enroll")
)

// Progress domain errors
var (
	ErrBlockLocked       = NewDomainError("progress", "Open", ErrPrecondition, "previous block is not finished")
	ErrLessonLocked      = NewDomainError("progress", "Open", ErrPrecondition, "previous lesson is not completed")
	ErrTestLocked        = NewDomainError("progress", "Open", ErrPrecondition, "block lessons are not completed")
	ErrNoActiveBlock     = NewDomainError("progress", "Open", ErrPrecondition, "no active block id known")
	ErrAnonymousProgress = NewDomainError("progress", "Write", ErrAnonymous, "anonymous user cannot record progress")
)

// Quiz domain errors
var (
	ErrQuizNotLoading      = NewDomainError("quiz", "Start", ErrInvalidState, "quiz already started")
	ErrQuizNotInProgress   = NewDomainError("quiz", "Answer", ErrInvalidState, "quiz is not in progress")
	ErrQuizNotRevealed     = NewDomainError("quiz", "Next", ErrInvalidState, "no answer revealed yet")
	ErrQuizNotFinished     = NewDomainError("quiz", "Result", ErrInvalidState, "quiz is not finished")
	ErrQuizAlreadyPassed   = NewDomainError("quiz", "Restart", ErrInvalidState, "passed quiz cannot be restarted")
	ErrQuizEmptyQuestions  = NewDomainError("quiz", "Start", ErrEmptyValue, "quiz has no questions")
	ErrQuizAnswerNotInSet  = NewDomainError("quiz", "Answer", ErrInvalidInput, "answer does not belong to current question")
	ErrQuizResultSubmitted = NewDomainError("quiz", "Submit", ErrStateTransition, "quiz result already submitted")
)

// Wallet domain errors
var (
	ErrWalletInsufficientFunds = NewDomainError("wallet", "Purchase", ErrInsufficientFunds, "balance is lower than effective price")
	ErrInvalidAmount           = NewDomainError("wallet", "Validate", ErrInvalidInput, "amount must be a positive integer")
	ErrAnonymousWallet         = NewDomainError("wallet", "Write", ErrAnonymous, "anonymous user has no wallet")
)

// External service errors
var (
	ErrLearnAPIUnavailable     = NewDomainError("learn", "Request", ErrServiceUnavailable, "learning platform API is unavailable")
	ErrLearnAPIRateLimited     = NewDomainError("learn", "Request", ErrRateLimited, "learning platform API rate limit exceeded")
	ErrLearnAPITimeout         = NewDomainError("learn", "Request", ErrTimeout, "learning platform API request timeout")
	ErrLearnAPIInvalidResponse = NewDomainError("learn", "Parse", ErrExternalService, "invalid response from learning platform API")
	ErrInitDataInvalid         = NewDomainError("telegram", "Verify", ErrForbidden, "init data signature mismatch")
	ErrInitDataExpired         = NewDomainError("telegram", "Verify", ErrForbidden, "init data is too old")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue)
}

// IsInsufficientFunds checks if the error is an affordability failure.
// Distinct from a write failure: no remote write was attempted.
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

// IsAnonymous checks if the error is caused by a missing user identity.
func IsAnonymous(err error) bool {
	return errors.Is(err, ErrAnonymous)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}
