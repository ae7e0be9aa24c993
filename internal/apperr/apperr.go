// Package apperr is the error taxonomy shared by every operation. Each kind
// maps to exactly one HTTP status; system errors never leak their cause.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindSystem Kind = iota
	KindValidation
	KindConflict
	KindAuthorization
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	default:
		return "system"
	}
}

// Error carries a kind, a client-safe message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }

func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(msg string) error { return &Error{Kind: KindConflict, Msg: msg} }

func Conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Forbidden is used for both "missing" and "not yours" so callers cannot tell them apart.
func Forbidden(msg string) error { return &Error{Kind: KindAuthorization, Msg: msg} }

func NotFound(what string) error { return &Error{Kind: KindNotFound, Msg: what + " not found"} }

// System wraps an unexpected failure. The message shown to callers is opaque.
func System(op string, err error) error {
	return &Error{Kind: KindSystem, Msg: op, Err: err}
}

// KindOf returns the kind of err; untyped errors are system errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindSystem
}

// HTTPStatus maps err onto a response code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to put in a response body.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindSystem {
		return e.Msg
	}
	return "internal error"
}
