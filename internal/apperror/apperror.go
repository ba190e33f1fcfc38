// Package apperror defines the error kinds shared by the access control and
// entitlement packages and their mapping onto HTTP status codes.
package apperror

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation marks a malformed request body or id. Never mutates state.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown plan, user, role, permission or subscription.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated marks a request without valid credentials or session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden marks a principal failing a role, permission or account gate.
	ErrForbidden = errors.New("forbidden")
	// ErrCorrelation marks a webhook event that cannot be tied to a local user.
	ErrCorrelation = errors.New("event correlation failed")
	// ErrUpstreamLookup marks a failed best-effort read from the payment provider.
	ErrUpstreamLookup = errors.New("upstream lookup failed")
)

// Error is a classified error carrying a machine readable code.
type Error struct {
	Kind    error
	Code    string
	Message string
	cause   error
}

// New returns an error of the given kind.
func New(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap returns an error of the given kind caused by err.
func Wrap(kind error, code string, err error, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, cause: err}
}

// Validation is a shortcut for New(ErrValidation, "VALIDATION_FAILED", message).
func Validation(message string) *Error {
	return New(ErrValidation, CodeValidation, message)
}

// NotFound is a shortcut for New(ErrNotFound, "NOT_FOUND", message).
func NotFound(message string) *Error {
	return New(ErrNotFound, CodeNotFound, message)
}

const (
	// CodeValidation is the default code of validation errors.
	CodeValidation = "VALIDATION_FAILED"
	// CodeNotFound is the default code of not found errors.
	CodeNotFound = "NOT_FOUND"
	// CodeUnauthenticated is the default code of unauthenticated errors.
	CodeUnauthenticated = "UNAUTHENTICATED"
	// CodeForbidden is the default code of forbidden errors.
	CodeForbidden = "FORBIDDEN"
	// CodeInternal is used for unclassified errors.
	CodeInternal = "INTERNAL"
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}

	if e.cause != nil {
		return msg + ": " + e.cause.Error()
	}

	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2) //nolint:mnd
	if e.Kind != nil {
		out = append(out, e.Kind)
	}

	if e.cause != nil {
		out = append(out, e.cause)
	}

	return out
}

// Code returns the machine readable code of err, CodeInternal if it carries none.
func Code(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}

	switch {
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrUnauthenticated):
		return CodeUnauthenticated
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	default:
		return CodeInternal
	}
}

// HTTPStatus maps an error onto the status code returned to callers.
// Correlation failures answer 200 so the payment provider stops retrying.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrCorrelation):
		return http.StatusOK
	case errors.Is(err, ErrUpstreamLookup):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
