package core

import (
	"errors"
	"fmt"
)

// Error kinds map one-to-one onto the outcomes a caller can act on.
// Anything else that bubbles up is an opaque internal failure.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrInvariant  = errors.New("invariant violation")
	ErrConflict   = errors.New("conflict")
)

// Error carries a user-facing message together with its kind sentinel so
// callers can branch with errors.Is and still surface the message verbatim.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// Validationf builds a ValidationError with a formatted message.
func Validationf(format string, args ...any) error {
	return &Error{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a NotFoundError. Ownership checks are folded into
// lookups, so "absent" and "not yours" produce the same error on purpose.
func NotFoundf(format string, args ...any) error {
	return &Error{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

// Invariantf builds an InvariantViolation: the operation would break a data
// invariant and is user-correctable, not a system fault.
func Invariantf(format string, args ...any) error {
	return &Error{kind: ErrInvariant, msg: fmt.Sprintf(format, args...)}
}

// Conflictf builds a ConflictError for concurrent-insert races. The loser
// of an idempotent insert should treat this as success and re-read.
func Conflictf(format string, args ...any) error {
	return &Error{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
