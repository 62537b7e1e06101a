package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a fault with an HTTP status. Validation and authorization
// failures are raised before any mutation; conflicts map to duplicate
// answers and nicknames; everything unexpected is internal.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewValidation(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

func NewAuthorization(message string) *Error {
	return &Error{Status: http.StatusForbidden, Message: message}
}

func NewNotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

func NewConflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Message: message}
}

func NewExternal(message string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message, Err: err}
}

func NewInternal(message string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message, Err: err}
}

// StatusOf returns the HTTP status for err, defaulting to 500.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the client-facing message for err.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return http.StatusText(http.StatusInternalServerError)
}

func IsStatus(err error, status int) bool {
	return StatusOf(err) == status
}
