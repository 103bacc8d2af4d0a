package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrorKind classifies a service failure so handlers can pick a status code
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindInvalid
	KindForbidden
	KindConflict
)

// Error is a business-rule or lookup failure raised by a service
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound builds a KindNotFound error
func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// Invalid builds a KindInvalid error
func Invalid(code, message string) *Error {
	return &Error{Kind: KindInvalid, Code: code, Message: message}
}

// Forbidden builds a KindForbidden error
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: message}
}

// Conflict builds a KindConflict error
func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// Internal wraps an unexpected persistence failure
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: "DATABASE_ERROR", Message: message, Err: err}
}

// KindOf returns the kind of err, KindInternal for anything that is not an *Error
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// lookupError maps a gorm lookup failure to NotFound or Internal
func lookupError(err error, code, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(code, message)
	}
	return Internal("Failed to load record", err)
}
