package ballot

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("ballot not found")
	ErrInvalidState = errors.New("operation not allowed in current ballot state")
	ErrValidation   = errors.New("invalid ballot input")
	// ErrUnavailable wraps transient storage failures. Every ballot and vote
	// operation is safe to retry when it is returned.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrStaleStatus is returned by repositories when a conditional write
	// matched zero rows because the stored status differs from the expected one.
	ErrStaleStatus = errors.New("ballot status changed")
)

// InvalidStateError reports an action attempted against a ballot whose
// current status does not permit it.
type InvalidStateError struct {
	Action  string
	Current Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s ballot in status %q", e.Action, e.Current)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Unavailable marks err as a transient storage failure.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
