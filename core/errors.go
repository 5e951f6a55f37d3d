package core

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ConflictError signals a write that would violate a uniqueness rule:
// double-booking a slot, faculty or group, duplicating an exception for a
// date, or re-marking an already marked (student, session) pair.
type ConflictError struct {
	Resource string
	Err      error
}

func NewConflictError(resource string, err error) error {
	return &ConflictError{Resource: resource, Err: err}
}

func (err ConflictError) Error() string {
	if err.Err == nil {
		return err.Resource + " conflict"
	}
	return fmt.Sprintf("%s conflict: %v", err.Resource, err.Err)
}

func (err ConflictError) Unwrap() error { return err.Err }

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

// DeadlineExceededError signals a mark or edit attempted after its window.
type DeadlineExceededError struct {
	Op       string // "mark" | "edit"
	Deadline time.Time
}

func NewDeadlineExceededError(op string, deadline time.Time) error {
	return &DeadlineExceededError{Op: op, Deadline: deadline}
}

func (err DeadlineExceededError) Error() string {
	return fmt.Sprintf("%s deadline exceeded (was %s)", err.Op, err.Deadline.Format("2006-01-02"))
}

func IsDeadlineExceeded(err error) bool {
	_, ok := errors.Cause(err).(*DeadlineExceededError)
	return ok
}

// InvalidReferenceError signals a session reference that does not point to
// exactly one of a schedule slot or an extra class.
type InvalidReferenceError struct {
	Reason string
}

func NewInvalidReferenceError(reason string) error {
	return &InvalidReferenceError{Reason: reason}
}

func (err InvalidReferenceError) Error() string {
	return "invalid session reference: " + err.Reason
}

func IsInvalidReference(err error) bool {
	_, ok := errors.Cause(err).(*InvalidReferenceError)
	return ok
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
