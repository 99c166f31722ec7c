package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Common error types that can be used across the application
var (
	ErrNotFound               = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists          = new(ErrCodeAlreadyExists, "resource already exists")
	ErrVersionConflict        = new(ErrCodeVersionConflict, "version conflict")
	ErrValidation             = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation       = new(ErrCodeInvalidOperation, "invalid operation")
	ErrPermissionDenied       = new(ErrCodePermissionDenied, "permission denied")
	ErrImmutableState         = new(ErrCodeImmutableState, "resource is in a final state")
	ErrInviteAlreadyProcessed = new(ErrCodeInviteAlreadyProcessed, "invite already processed")
	ErrDatabase               = new(ErrCodeDatabase, "database error")
	ErrSystem                 = new(ErrCodeSystemError, "system error")

	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrDatabase:               http.StatusInternalServerError,
		ErrNotFound:               http.StatusNotFound,
		ErrAlreadyExists:          http.StatusConflict,
		ErrVersionConflict:        http.StatusConflict,
		ErrImmutableState:         http.StatusConflict,
		ErrInviteAlreadyProcessed: http.StatusConflict,
		ErrValidation:             http.StatusBadRequest,
		ErrInvalidOperation:       http.StatusBadRequest,
		ErrPermissionDenied:       http.StatusForbidden,
		ErrSystem:                 http.StatusInternalServerError,
	}

	// checked in order so the most specific code wins
	codeOrder = []*InternalError{
		ErrInviteAlreadyProcessed,
		ErrImmutableState,
		ErrVersionConflict,
		ErrAlreadyExists,
		ErrNotFound,
		ErrPermissionDenied,
		ErrValidation,
		ErrInvalidOperation,
		ErrDatabase,
		ErrSystem,
	}
)

const (
	ErrCodeSystemError            = "system_error"
	ErrCodeNotFound               = "not_found"
	ErrCodeAlreadyExists          = "already_exists"
	ErrCodeVersionConflict        = "version_conflict"
	ErrCodeValidation             = "validation_error"
	ErrCodeInvalidOperation       = "invalid_operation"
	ErrCodePermissionDenied       = "permission_denied"
	ErrCodeImmutableState         = "immutable_state"
	ErrCodeInviteAlreadyProcessed = "invite_already_processed"
	ErrCodeDatabase               = "database_error"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err, reference error) bool {
	return errors.Is(err, reference)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsVersionConflict checks if an error is a version conflict error
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsConflict reports whether the caller can recover by retrying with a fresh read.
// Duplicate resources and concurrent modification both qualify.
func IsConflict(err error) bool {
	return IsAlreadyExists(err) || IsVersionConflict(err)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsPermissionDenied checks if an error is a permission denied error
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsImmutableState checks if a mutation was attempted on a finalized resource
func IsImmutableState(err error) bool {
	return errors.Is(err, ErrImmutableState)
}

// IsInviteAlreadyProcessed checks if an invite was already answered or expired
func IsInviteAlreadyProcessed(err error) bool {
	return errors.Is(err, ErrInviteAlreadyProcessed)
}

// HTTPStatusFromErr maps the most specific sentinel of the error to a status
func HTTPStatusFromErr(err error) int {
	for _, e := range codeOrder {
		if errors.Is(err, e) {
			return statusCodeMap[e]
		}
	}
	return http.StatusInternalServerError
}

// CodeFromErr returns the machine readable code of the most specific sentinel the error is marked with
func CodeFromErr(err error) string {
	for _, e := range codeOrder {
		if errors.Is(err, e) {
			return e.Code
		}
	}
	return ErrCodeSystemError
}
