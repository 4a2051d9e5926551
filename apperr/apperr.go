// Package apperr classifies failures into the three kinds the action
// handlers answer differently: caller mistakes, broken collaborators and
// broken configuration.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind of failure
type Kind int

const (
	KindValidation Kind = iota + 1
	KindDependency
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDependency:
		return "dependency"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Field is set for validation errors and names
// the offending input.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("[%s] %s", e.Field, e.Message)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Public returns the message that is safe to hand back to the caller.
func (e *Error) Public() string {
	switch e.Kind {
	case KindValidation:
		if e.Field != "" {
			return fmt.Sprintf("[%s] %s", e.Field, e.Message)
		}
		return e.Message
	case KindDependency:
		return e.Message
	default:
		return "Internal server error"
	}
}

// Validation - user input was missing or malformed
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// Validationf wraps a sentinel so callers can still errors.Is against it.
func Validationf(field string, sentinel error, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...), Cause: sentinel}
}

// Dependency - a collaborator (backend, AI service, RPC) failed. message is
// what the caller sees; cause is only logged.
func Dependency(message string, cause error) *Error {
	return &Error{Kind: KindDependency, Message: message, Cause: cause}
}

// Configuration - the cluster table or process config is incomplete.
func Configuration(message string, cause error) *Error {
	return &Error{Kind: KindConfiguration, Message: message, Cause: cause}
}

// As extracts the classified error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	e, ok := As(err)
	return ok && e.Kind == KindValidation
}

// Status maps err to the HTTP status the handlers answer with.
func Status(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if e.Kind == KindValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the client-facing message for err.
func PublicMessage(err error) string {
	if e, ok := As(err); ok {
		return e.Public()
	}
	return "Internal server error"
}
