// Package apperr defines the error taxonomy shared by services and handlers:
// NotFound, Validation, Conflict and Storage. Storage errors wrap whatever the
// repository or blob collaborator returned and are never retried here.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindStorage
)

type Error struct {
	kind Kind
	msg  string
	err  error
	// Details carries structured context for validation rejections, e.g. the
	// full ClosureValidationResult, so callers can render what is missing.
	Details any
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Kind() Kind { return e.kind }

func NotFound(format string, args ...any) *Error {
	return &Error{kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return &Error{kind: KindValidation, msg: fmt.Sprintf(format, args...)}
}

// ValidationWith attaches structured details to a validation rejection.
func ValidationWith(details any, format string, args ...any) *Error {
	return &Error{kind: KindValidation, msg: fmt.Sprintf(format, args...), Details: details}
}

func Conflict(format string, args ...any) *Error {
	return &Error{kind: KindConflict, msg: fmt.Sprintf(format, args...)}
}

// Storage wraps an opaque repository/blob failure.
func Storage(err error, format string, args ...any) *Error {
	return &Error{kind: KindStorage, msg: fmt.Sprintf(format, args...), err: err}
}

// KindOf extracts the taxonomy kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsConflict(err error) bool   { return KindOf(err) == KindConflict }

// DetailsOf returns the structured details attached to err, if any.
func DetailsOf(err error) any {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}
