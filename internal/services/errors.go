package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies client-facing failures
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindConflict
	KindNotFound
	KindUnauthorized
	KindForbidden
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	}
	return "unknown"
}

// Error is a business error the handlers translate into a status code.
// Anything that is not an *Error is treated as an infrastructure failure.
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]interface{}
}

func (e *Error) Error() string {
	return e.Message
}

// WithDetail attaches a structured detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ValidationError reports malformed input
func ValidationError(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

// ConflictError reports a business-rule violation such as a duplicate
func ConflictError(format string, args ...interface{}) *Error {
	return newError(KindConflict, format, args...)
}

// NotFoundError reports a missing referenced entity
func NotFoundError(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

// UnauthorizedError reports a failed authentication
func UnauthorizedError(format string, args ...interface{}) *Error {
	return newError(KindUnauthorized, format, args...)
}

// ForbiddenError reports a valid identity lacking the needed role or ownership
func ForbiddenError(format string, args ...interface{}) *Error {
	return newError(KindForbidden, format, args...)
}

// AsError extracts a business error from err
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is a business error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}
