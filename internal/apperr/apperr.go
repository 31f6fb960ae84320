// Package apperr defines the error kinds surfaced by the services and the
// translation of store errors into them.
package apperr

import (
	"errors" // Error checks
	"fmt"    // Message formatting

	"gorm.io/gorm" // GORM ORM library
)

// Kind classifies an application error.
type Kind int

const (
	Unexpected Kind = iota
	NotFound
	Conflict
	InsufficientStock
	ValidationFailed
	Unauthenticated
	PermissionDenied
)

var kindNames = map[Kind]string{
	Unexpected:        "unexpected",
	NotFound:          "not_found",
	Conflict:          "conflict",
	InsufficientStock: "insufficient_stock",
	ValidationFailed:  "validation_failed",
	Unauthenticated:   "unauthenticated",
	PermissionDenied:  "permission_denied",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Error is an error with a Kind and a caller-safe message.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string // per-field validation messages
	Err     error             // underlying cause, never shown to callers in production
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind when the target carries no message,
// so errors.Is(err, apperr.ErrNotFound) works for every not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Sentinels for errors.Is.
var (
	ErrNotFound          = &Error{Kind: NotFound}
	ErrConflict          = &Error{Kind: Conflict}
	ErrInsufficientStock = &Error{Kind: InsufficientStock}
	ErrValidation        = &Error{Kind: ValidationFailed}
	ErrUnauthenticated   = &Error{Kind: Unauthenticated}
	ErrPermissionDenied  = &Error{Kind: PermissionDenied}
	ErrUnexpected        = &Error{Kind: Unexpected}
)

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error { return New(NotFound, format, args...) }
func Conflictf(format string, args ...any) *Error { return New(Conflict, format, args...) }
func Invalidf(format string, args ...any) *Error  { return New(ValidationFailed, format, args...) }
func Deniedf(format string, args ...any) *Error   { return New(PermissionDenied, format, args...) }

// Invalid builds a validation error carrying per-field messages.
func Invalid(fields map[string]string) *Error {
	return &Error{Kind: ValidationFailed, Message: "Validation failed", Fields: fields}
}

// Wrap marks err as unexpected unless it already is an *Error.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: Unexpected, Message: message, Err: err}
}

// KindOf reports the Kind of err, Unexpected for foreign errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Unexpected
}

// FromDB translates gorm errors at the store boundary. notFound is the message
// used for missing rows, conflict the one for unique violations. The gorm
// handle must be opened with TranslateError so driver codes arrive as gorm
// sentinels.
func FromDB(err error, notFound, conflict string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: NotFound, Message: notFound}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: Conflict, Message: conflict, Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &Error{Kind: NotFound, Message: "Referenced resource not found", Err: err}
	}
	return Wrap(err, "database error")
}
