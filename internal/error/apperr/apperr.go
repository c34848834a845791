// Package apperr defines transport independent application errors. The domain
// and service layers return them; the HTTP layer maps them to status codes.
package apperr

import (
	"errors"
	"fmt"

	"accessible-env-backend/internal/error/code"
)

// Kind classifies an application error
type Kind string

const (
	KindValidation     Kind = "validation"
	KindUnauthorized   Kind = "unauthorized"
	KindForbidden      Kind = "forbidden"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindIntegrity      Kind = "integrity"
	KindInfrastructure Kind = "infrastructure"
)

// Error is a typed application error carrying a business code
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same code
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// New builds an error, falling back to the code's default message
func New(kind Kind, c int, message string) *Error {
	if message == "" {
		message = code.GetMessage(c)
	}
	return &Error{Kind: kind, Code: c, Message: message}
}

func Validation(c int, message string) *Error { return New(KindValidation, c, message) }

func Unauthorized(c int, message string) *Error { return New(KindUnauthorized, c, message) }

func Forbidden(c int, message string) *Error { return New(KindForbidden, c, message) }

func NotFound(c int, message string) *Error { return New(KindNotFound, c, message) }

func Conflict(c int, message string) *Error { return New(KindConflict, c, message) }

func Integrity(message string, err error) *Error {
	e := New(KindIntegrity, code.ErrIntegrity, message)
	e.Err = err
	return e
}

// Infrastructure wraps a failing dependency (database, cache, storage)
func Infrastructure(c int, err error) *Error {
	e := New(KindInfrastructure, c, "")
	e.Err = err
	return e
}

// As extracts an *Error from an error chain
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or infrastructure for foreign errors
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInfrastructure
}
