// Package apperror carries the error taxonomy shared by the services and the
// HTTP layer. Every error holds a kind, a short message that is safe to show
// to the client, and an internal cause that is logged but never returned.
//
// Never hand a raw store or Redis error to a controller. Classify it here.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindUnauthorized    Kind = "unauthorized"
	KindValidation      Kind = "validation"
	KindConflict        Kind = "conflict"
	KindNotFound        Kind = "not_found"
	KindTimeout         Kind = "timeout"
	KindOperationFailed Kind = "operation_failed"
)

type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`

	// Internal holds the underlying cause for logging. Never serialized.
	Internal error `json:"-"`
}

func (e *Error) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Kind, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Internal }

// Unauthorized is deliberately uniform: callers must not be able to tell
// which check (missing session, bad user id, missing admin flag, wrong
// password, failed token exchange) rejected them.
func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Message: "invalid credentials or session"}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Timeout() *Error {
	return &Error{Kind: KindTimeout, Message: "the operation timed out"}
}

// OperationFailed wraps any other store failure. The cause stays internal.
func OperationFailed(cause error) *Error {
	return &Error{Kind: KindOperationFailed, Message: "the operation could not be completed", Internal: cause}
}

// KindOf returns the kind of err, or KindOperationFailed for anything that is
// not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindOperationFailed
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// HTTPStatus maps an error onto the status code the controllers answer with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
