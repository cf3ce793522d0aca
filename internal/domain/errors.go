package domain

import (
	"fmt"
	"net/http"
)

// Two error kinds cross the service boundary. A ClientError carries a stable
// user-facing message plus the HTTP status it maps to. A ServerError wraps
// the underlying cause, which is logged but never shown to callers.

type ClientError struct {
	Message string
	Code    int
}

func (e *ClientError) Error() string { return e.Message }

func NewClientError(format string, args ...interface{}) *ClientError {
	return &ClientError{Message: fmt.Sprintf(format, args...), Code: http.StatusBadRequest}
}

func NewNotFoundError(format string, args ...interface{}) *ClientError {
	return &ClientError{Message: fmt.Sprintf(format, args...), Code: http.StatusNotFound}
}

type ServerError struct {
	Message string
	Err     error
}

func (e *ServerError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ServerError) Unwrap() error { return e.Err }

func NewServerError(message string, err error) *ServerError {
	return &ServerError{Message: message, Err: err}
}
