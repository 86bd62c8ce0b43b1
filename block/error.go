package block

import (
	"log/slog"
	"strings"
)

// Predefined errors (sentinel values).
var (
	// ErrMalformedTemplate is returned when a format string ends with a
	// dangling sentinel or contains a sentinel followed by an unrecognized
	// directive byte.
	ErrMalformedTemplate = NewError("malformed template")

	// ErrArityMismatch is returned when the number of argument-consuming
	// directives in a format string differs from the number of arguments
	// supplied with it.
	ErrArityMismatch = NewError("argument count mismatch")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
	base  *Error      // Sentinel this error was derived from
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	e := &Error{msg: msg}
	e.base = e

	return e
}

// Error implements the error interface.
//
// Attributes are appended in key=value form so that the offending format
// text is visible without a structured logger.
func (e *Error) Error() string {
	part := make([]string, 0, 3)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	msg := strings.Join(part, ": ")

	if len(e.attrs) == 0 {
		return msg
	}

	var sb strings.Builder

	sb.WriteString(msg)
	sb.WriteString(" (")

	for i, a := range e.attrs {
		if i > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteString(a.String())
	}

	sb.WriteByte(')')

	return sb.String()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether e was derived from target by [Error.With] or
// [Error.Wrap].
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}

	return e == t || (e.base != nil && e.base == t.base)
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Attr returns the value of the attribute with the given key.
// If the key was added more than once, the last value wins.
func (e *Error) Attr(key string) (slog.Value, bool) {
	for i := len(e.attrs) - 1; i >= 0; i-- {
		if e.attrs[i].Key == key {
			return e.attrs[i].Value, true
		}
	}

	return slog.Value{}, false
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
		base:  e.base,
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
		base:  e.base,
	}
}
