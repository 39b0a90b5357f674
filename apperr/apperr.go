// Package apperr defines the application error taxonomy shared by the
// router, the auth layer, and controllers. Errors carry the HTTP status
// the translator should use plus an optional structured data payload;
// everything else surfacing from a request is treated as internal.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds for errors.Is checks.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConfiguration = errors.New("configuration")
	ErrInternal      = errors.New("internal")
)

// Error is a typed application error. Status is the HTTP status the error
// translator responds with; configuration errors have no status because
// they abort router assembly before any request is served.
type Error struct {
	Status  int
	Message string
	Data    any

	kind  error
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the wrapped cause to errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// Is matches the error's kind sentinel.
func (e *Error) Is(target error) bool { return target == e.kind }

// WithData attaches a structured payload rendered inside the error
// envelope's data field.
func (e *Error) WithData(data any) *Error {
	e.Data = data
	return e
}

// WithCause records the underlying error for logs and errors.Is chains
// without leaking it to clients.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// New builds a typed error with an arbitrary declared status. Controllers
// use it for domain failures outside the fixed taxonomy (404, 409, 422...).
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Unauthorized marks a missing or invalid bearer token.
func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message, kind: ErrUnauthorized}
}

// Forbidden marks a valid token with insufficient scope.
func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Message: message, kind: ErrForbidden}
}

// Internal marks a failure surfaced as a 500 with a controlled message,
// as opposed to untyped errors which get the translator's generic body.
func Internal(message string) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message, kind: ErrInternal}
}

// Config marks a route table that cannot be built. Raised at assembly time
// only; aborts router construction and never reaches a client.
func Config(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), kind: ErrConfiguration}
}
