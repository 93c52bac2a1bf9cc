// Package apperr defines the three failure kinds surfaced at HTTP boundaries.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	// Validation is bad or missing client input.
	Validation Kind = iota + 1
	// Authentication is an invalid token or an absent session.
	Authentication
	// Upstream is a failure of the identity provider, document store, session store or AI provider.
	Upstream
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Authentication:
		return "authentication"
	case Upstream:
		return "upstream"
	}
	return "unknown"
}

// Error carries a user-facing Message and the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String() + ": " + e.Message
	}
	return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func NewValidation(msg string) *Error { return &Error{Kind: Validation, Message: msg} }

func NewAuthentication(msg string, cause error) *Error {
	return &Error{Kind: Authentication, Message: msg, Err: cause}
}

func NewUpstream(msg string, cause error) *Error {
	return &Error{Kind: Upstream, Message: msg, Err: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

// Status maps err to an HTTP status code. Errors without a kind are 500.
func Status(err error) int {
	switch KindOf(err) {
	case Validation:
		return http.StatusBadRequest
	case Authentication:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to show a client.
func PublicMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return "internal error"
}
