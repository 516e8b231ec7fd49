package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Error kinds raised by the membership engine. Every error returned across a
// package boundary is marked with exactly one of these.
var (
	ErrNotFound          = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists     = new(ErrCodeAlreadyExists, "resource already exists")
	ErrConflict          = new(ErrCodeConflict, "conflict")
	ErrValidation        = new(ErrCodeValidation, "validation error")
	ErrInvalidTransition = new(ErrCodeInvalidTransition, "invalid membership transition")
	ErrInvalidPackage    = new(ErrCodeInvalidPackage, "invalid package")
	ErrInvalidCommission = new(ErrCodeInvalidCommission, "invalid commission")
	ErrPartiallyApplied  = new(ErrCodePartiallyApplied, "operation partially applied")
	ErrDatabase          = new(ErrCodeDatabase, "database error")
	ErrSystem            = new(ErrCodeSystemError, "system error")

	// checked in order, the first match wins
	statusCodes = []struct {
		err    error
		status int
	}{
		{ErrPartiallyApplied, http.StatusInternalServerError},
		{ErrNotFound, http.StatusNotFound},
		{ErrAlreadyExists, http.StatusConflict},
		{ErrConflict, http.StatusConflict},
		{ErrInvalidTransition, http.StatusConflict},
		{ErrValidation, http.StatusBadRequest},
		{ErrInvalidPackage, http.StatusUnprocessableEntity},
		{ErrInvalidCommission, http.StatusUnprocessableEntity},
		{ErrDatabase, http.StatusInternalServerError},
		{ErrSystem, http.StatusInternalServerError},
	}
)

const (
	ErrCodeSystemError       = "system_error"
	ErrCodeNotFound          = "not_found"
	ErrCodeAlreadyExists     = "already_exists"
	ErrCodeConflict          = "conflict"
	ErrCodeValidation        = "validation_error"
	ErrCodeInvalidTransition = "invalid_transition"
	ErrCodeInvalidPackage    = "invalid_package"
	ErrCodeInvalidCommission = "invalid_commission"
	ErrCodePartiallyApplied  = "partially_applied"
	ErrCodeDatabase          = "database_error"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
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

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

func IsInvalidPackage(err error) bool {
	return errors.Is(err, ErrInvalidPackage)
}

func IsInvalidCommission(err error) bool {
	return errors.Is(err, ErrInvalidCommission)
}

// IsPartiallyApplied reports a saga whose compensation did not complete.
// Such errors need manual review.
func IsPartiallyApplied(err error) bool {
	return errors.Is(err, ErrPartiallyApplied)
}

func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

func HTTPStatusFromErr(err error) int {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return sc.status
		}
	}
	return http.StatusInternalServerError
}
