package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so transport layers can map it to a status code.
type Kind int

const (
	// KindNotFound means an order, item, or payment id did not resolve.
	KindNotFound Kind = iota + 1
	// KindInvalidOperation means a business rule was violated (closed order,
	// double refund, discount over subtotal, and so on).
	KindInvalidOperation
	// KindValidation means the input itself was malformed (non-positive
	// amount, negative tip, missing fields).
	KindValidation
	// KindConflict means a concurrent write won; the caller may retry.
	KindConflict
)

// Error is the engine-wide error type. Services return it, handlers map it.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func InvalidOperation(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidOperation, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Wrap keeps the kind while attaching an underlying cause.
func Wrap(kind Kind, err error, msg string) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind, or zero when err is not an engine error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsNotFound(err error) bool         { return KindOf(err) == KindNotFound }
func IsInvalidOperation(err error) bool { return KindOf(err) == KindInvalidOperation }
func IsValidation(err error) bool       { return KindOf(err) == KindValidation }
func IsConflict(err error) bool         { return KindOf(err) == KindConflict }
