package core

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Kind classifies domain errors so transports can map them without knowing every sentinel.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalid
	KindInvalidID
	KindNotFound
	KindForbidden
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindInvalidID:
		return "invalid id"
	case KindNotFound:
		return "not found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is a classified domain error.
type Error struct {
	Kind    Kind
	Message string
}

func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrInvalidID = NewError(KindInvalidID, "invalid id")
	ErrNotFound  = NewError(KindNotFound, "not found")
	ErrForbidden = NewError(KindForbidden, "forbidden")
)

// KindOf reports the Kind of `err`, looking through wrapping.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	switch e := errors.Cause(err).(type) {
	case *Error:
		return e.Kind
	case *ValidationError, validator.ValidationErrors:
		return KindInvalid
	case kinder:
		return e.Kind()
	}
	return KindUnknown
}

type kinder interface {
	Kind() Kind
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// NewFieldError is shorthand for a ValidationError on a single field.
func NewFieldError(field, msg string) error {
	return NewValidationError(errors.New(field+": "+msg), FieldError{Field: field, Error: msg})
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		msgs = append(msgs, f.Field+": "+f.Error)
	}
	return strings.Join(msgs, "; ")
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
