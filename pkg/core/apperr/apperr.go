// Package apperr classifies failures returned by the core services so that
// callers (CLI, HTTP) can decide how to surface them.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the category of a failure
type Kind string

const (
	// KindInvalidArgument covers malformed input the caller can correct
	KindInvalidArgument Kind = "INVALID_ARGUMENT"
	// KindNotFound covers missing leave, assignment or worker records
	KindNotFound Kind = "NOT_FOUND"
	// KindConflict covers overlapping or already-actioned leave
	KindConflict Kind = "CONFLICT"
	// KindUpstreamFailure covers solver process errors, timeouts and malformed output
	KindUpstreamFailure Kind = "UPSTREAM_FAILURE"
	// KindInternal covers storage and other unexpected failures
	KindInternal Kind = "INTERNAL"
)

// Error is a classified failure with a caller-facing message
type Error struct {
	Kind    Kind
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

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func InvalidArgument(format string, args ...any) *Error {
	return newError(KindInvalidArgument, nil, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, nil, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newError(KindConflict, nil, format, args...)
}

// Upstream wraps a failure of the external solver
func Upstream(err error, format string, args ...any) *Error {
	return newError(KindUpstreamFailure, err, format, args...)
}

// Internal wraps a storage or other unexpected failure
func Internal(err error, format string, args ...any) *Error {
	return newError(KindInternal, err, format, args...)
}

// KindOf returns the kind of the first classified error in err's chain.
// Unclassified errors are reported as KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsClientError reports whether the caller can correct the request and retry
func IsClientError(err error) bool {
	kind := KindOf(err)
	return kind == KindInvalidArgument || kind == KindConflict || kind == KindNotFound
}
