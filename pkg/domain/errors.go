package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error for transport mapping and retry policy.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindInvalidState Kind = "invalid_state"
	KindForbidden    Kind = "forbidden"
	KindUnauthorized Kind = "unauthorized"
	KindBusy         Kind = "busy"
)

// Error is the typed error shared by all domain and application layers.
// Infrastructure failures are wrapped with fmt.Errorf instead.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// WithDetail attaches a structured detail to the error and returns it.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewNotFoundError indicates a referenced entity does not exist.
func NewNotFoundError(resource, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", resource, id)}
}

// NewValidationError indicates caller input violates a stated constraint.
func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NewConflictError indicates the operation lost to a concurrent writer.
func NewConflictError(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// NewInvalidStateError indicates a transition attempted from a state that forbids it.
func NewInvalidStateError(current, attempted string) *Error {
	return &Error{
		Kind:    KindInvalidState,
		Message: fmt.Sprintf("cannot transition from %s to %s", current, attempted),
	}
}

// NewForbiddenError indicates the caller lacks the capability for the operation.
func NewForbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NewUnauthorizedError indicates the caller identity could not be established.
func NewUnauthorizedError(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// NewBusyError indicates lock or transaction contention timed out.
// The operation had no partial effect and is safe to retry with backoff.
func NewBusyError(message string) *Error {
	return &Error{Kind: KindBusy, Message: message}
}

// KindOf returns the Kind of err, or an empty Kind for non-domain errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsNotFound reports whether err is a not-found domain error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsValidation reports whether err is a validation domain error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsConflict reports whether err is a conflict domain error.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsInvalidState reports whether err is an invalid-state domain error.
func IsInvalidState(err error) bool { return KindOf(err) == KindInvalidState }

// IsBusy reports whether err is a contention-timeout domain error.
func IsBusy(err error) bool { return KindOf(err) == KindBusy }
