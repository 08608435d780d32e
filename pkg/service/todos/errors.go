package todos

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/storacha/todos/pkg/auth"
	"github.com/storacha/todos/pkg/store"
)

var (
	// ErrStorageUnavailable wraps failures of the item store.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrBlobStoreUnavailable wraps failures issuing attachment URLs.
	ErrBlobStoreUnavailable = errors.New("blob store unavailable")
	// ErrBadRequest is returned when a request is missing a required value or
	// has a malformed one.
	ErrBadRequest = errors.New("bad request")
)

// Error is an error that occurred handling a request, carrying the status
// code and a message that is safe to return to the client.
type Error struct {
	Operation     string
	Message       string
	ClientMessage string
	Code          int
	Err           error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code
func (e *Error) StatusCode() int {
	return e.Code
}

// PublicMessage returns a message safe for client consumption
func (e *Error) PublicMessage() string {
	if e.ClientMessage != "" {
		return e.ClientMessage
	}
	return http.StatusText(e.Code)
}

func NewError(operation string, message string, err error, code int) *Error {
	return &Error{
		Operation:     operation,
		Message:       message,
		ClientMessage: message,
		Code:          code,
		Err:           err,
	}
}

// WithPublicMessage sets a client-safe message
func (e *Error) WithPublicMessage(message string) *Error {
	e.ClientMessage = message
	return e
}

// classify maps a failure from the service or identity extractor onto the
// status code returned to the client.
func classify(operation string, err error) *Error {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return NewError(operation, "unauthenticated", err, http.StatusUnauthorized)
	case errors.Is(err, ErrBadRequest), errors.Is(err, store.ErrMissingUserID):
		return NewError(operation, "bad request", err, http.StatusBadRequest).WithPublicMessage(err.Error())
	case errors.Is(err, store.ErrNotFound):
		return NewError(operation, "todo not found", err, http.StatusNotFound)
	case errors.Is(err, ErrStorageUnavailable):
		return NewError(operation, "storage unavailable", err, http.StatusBadGateway)
	case errors.Is(err, ErrBlobStoreUnavailable):
		return NewError(operation, "blob store unavailable", err, http.StatusInternalServerError)
	default:
		return NewError(operation, "internal error", err, http.StatusInternalServerError)
	}
}
