// Package apierr maps domain failures to HTTP responses.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a conditional create hits an existing record.
	ErrAlreadyExists = errors.New("already exists")
	// ErrForbidden is returned when a record belongs to another user.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized is returned for missing, invalid, expired or revoked credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrQuotaExceeded is returned when a free account has used all its recommendations.
	ErrQuotaExceeded = errors.New("free recommendation limit reached")
	// ErrValidation is returned when request input is malformed.
	ErrValidation = errors.New("validation error")
)

// Error is an error with an HTTP status, a machine readable code and optional field messages.
type Error struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error.
func New(status int, code, message string, err error) *Error {
	return &Error{Status: status, Code: code, Message: message, Err: err}
}

// Validation creates a 400 error carrying per-field messages.
func Validation(message string, fields map[string]string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: message,
		Fields:  fields,
		Err:     ErrValidation,
	}
}

// BadRequest creates a 400 error.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, "BAD_REQUEST", message, ErrValidation)
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return New(http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", err)
}

// From maps any error to an *Error. Unknown errors become 500s.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return New(http.StatusNotFound, "NOT_FOUND", err.Error(), err)
	case errors.Is(err, ErrAlreadyExists):
		return New(http.StatusConflict, "CONFLICT", err.Error(), err)
	case errors.Is(err, ErrForbidden):
		return New(http.StatusForbidden, "FORBIDDEN", err.Error(), err)
	case errors.Is(err, ErrUnauthorized):
		return New(http.StatusUnauthorized, "UNAUTHORIZED", err.Error(), err)
	case errors.Is(err, ErrQuotaExceeded):
		return New(http.StatusForbidden, "SUBSCRIPTION_REQUIRED", err.Error(), err)
	case errors.Is(err, ErrValidation):
		return New(http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), err)
	default:
		return Internal(err)
	}
}
