// Package apierr defines the hub's error kinds and their HTTP status
// mapping (§7). Errors are distinguished by behavior, not by type
// identity: callers type-assert via errors.As against *Error and switch
// on Kind.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one of the error behaviors named in §7.
type Kind string

const (
	// KindNotFound: referenced room, agent, task, or notification does
	// not exist.
	KindNotFound Kind = "not_found"
	// KindValidation: missing required field, unknown enum value,
	// malformed timestamp, path escape.
	KindValidation Kind = "validation"
	// KindStore: the persistence layer failed.
	KindStore Kind = "store"
)

// Error is a structured hub error carrying a Kind and a human message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// NotFound builds a not-found error.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation builds a validation error.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Store wraps a persistence-layer failure.
func Store(cause error, format string, args ...any) error {
	return &Error{Kind: KindStore, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// StatusCode maps an error to its HTTP-equivalent status code, per §7's
// kind table. Unrecognized errors map to 500.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindNotFound:
			return http.StatusNotFound
		case KindValidation:
			return http.StatusBadRequest
		case KindStore:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
