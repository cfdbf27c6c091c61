// Package apperr defines the error taxonomy shared across the agent
// runtime (spec §7). Every error surfaced to an HTTP caller carries a
// stable Kind and a human-readable message; callers distinguish kinds
// with errors.As, not string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how the caller should react to it.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindForbidden     Kind = "forbidden"
	KindTransient     Kind = "transient_provider"
	KindPermanent     Kind = "permanent_provider"
	KindDangling      Kind = "dangling_operation"
	KindCancelled     Kind = "cancelled"
	KindInternal      Kind = "internal"
)

// Error wraps a cause with a Kind and a short operator-facing message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error wrapping cause. The result always carries the
// given kind, even when cause is itself an *Error; to propagate an
// existing Kind unchanged, pass KindOf(cause) as kind.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind of err, defaulting to KindInternal when
// err is not an *Error (or wraps one).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsRetryable reports whether the transient-provider kind applies,
// i.e. the caller may retry with backoff (spec §7).
func IsRetryable(err error) bool {
	return KindOf(err) == KindTransient
}
