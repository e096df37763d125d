package md

import (
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
)

// ValidationError reports a configuration rejected before any call reached
// the kernel. It matches errdefs.ErrInvalidArgument.
type ValidationError struct {
	Field  string
	Reason string
	Cause  error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid md %s: %v", e.Field, e.Cause)
	}
	return fmt.Sprintf("invalid md %s: %s", e.Field, e.Reason)
}

// Is reports ValidationError as an invalid argument.
func (e *ValidationError) Is(target error) bool {
	return target == errdefs.ErrInvalidArgument
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ErrDestroyed is returned by operations on a device that has already been
// detached.
var ErrDestroyed = fmt.Errorf("md device already detached: %w", errdefs.ErrFailedPrecondition)

// IsValidation reports whether err was caused by a local validation failure
// rather than the kernel.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
