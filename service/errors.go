package service

import (
	"errors"
	"fmt"
)

// Kind is the stable category of a service failure. It is safe to expose to
// callers; the wrapped cause is not.
type Kind string

const (
	KindInvalidFormat        Kind = "INVALID_FORMAT"
	KindNotFound             Kind = "NOT_FOUND"
	KindStorageFailure       Kind = "STORAGE_FAILURE"
	KindURLResolutionFailure Kind = "URL_RESOLUTION_FAILURE"
	KindInternalFailure      Kind = "INTERNAL_FAILURE"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func invalidFormat(format string, args ...interface{}) *Error {
	return newError(KindInvalidFormat, nil, format, args...)
}

func notFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, nil, format, args...)
}

func internalFailure(err error, format string, args ...interface{}) *Error {
	return newError(KindInternalFailure, err, format, args...)
}

// KindOf returns the kind carried by err. Errors that did not originate in
// this package are reported as KindInternalFailure.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternalFailure
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the caller-safe message of err.
func Message(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	return "internal error"
}
