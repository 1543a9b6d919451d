// Package errs holds the error taxonomy shared by the business layer.
//
// Every business-rule failure is an *Error carrying one of the sentinel kinds
// below, so callers can branch with errors.Is and still show a message that
// tells the user what to fix.
package errs

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not found")
	ErrOverpayment    = errors.New("overpayment")
	ErrImmutableState = errors.New("immutable state")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrTimeout        = errors.New("timeout")

	// ErrNoPrincipal means the request reached the core without a resolved
	// tenant. That is a wiring bug upstream, not a user error.
	ErrNoPrincipal = errors.New("no principal in context")
)

type Error struct {
	Kind    error
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Kind }

func Validation(field, format string, args ...any) error {
	return &Error{Kind: ErrValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func Conflict(field, format string, args ...any) error {
	return &Error{Kind: ErrConflict, Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFound never says why the entity is missing: an id owned by another
// tenant reads exactly like an id that does not exist.
func NotFound(entity string) error {
	return &Error{Kind: ErrNotFound, Message: entity + " not found"}
}

func Overpayment(format string, args ...any) error {
	return &Error{Kind: ErrOverpayment, Message: fmt.Sprintf(format, args...)}
}

func Immutable(format string, args ...any) error {
	return &Error{Kind: ErrImmutableState, Message: fmt.Sprintf(format, args...)}
}

func InvalidStatus(field, format string, args ...any) error {
	return &Error{Kind: ErrInvalidStatus, Field: field, Message: fmt.Sprintf(format, args...)}
}

// FromContext turns a deadline overrun into ErrTimeout and leaves every other
// error untouched.
func FromContext(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
		return &Error{Kind: ErrTimeout, Message: "operation deadline exceeded"}
	}
	return err
}

// IsBusiness reports whether err belongs to the taxonomy (as opposed to an
// infrastructure failure).
func IsBusiness(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
