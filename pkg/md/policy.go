package md

import (
	"fmt"

	"github.com/containerd/log"
)

// CleanupPolicy decides what a failed forced detach in Device.Release means.
//
// unwinding reports whether the enclosing function was already failing. A
// non-nil return is stored in Release's error pointer if that is still nil.
type CleanupPolicy interface {
	DetachFailed(d *Device, err error, unwinding bool) error
}

// StrictCleanup treats a device that cannot be detached as a fatal leak and
// panics, unless the scope is already unwinding, where the error is logged
// and dropped so the original failure is not masked.
type StrictCleanup struct{}

func (StrictCleanup) DetachFailed(d *Device, err error, unwinding bool) error {
	if unwinding {
		log.L.WithError(err).WithField("device", d.Name()).Warn("md: forced detach failed during unwind")
		return nil
	}
	panic(fmt.Errorf("md: forced detach of %s failed: %w", d.Name(), err))
}

// LenientCleanup logs a failed forced detach and returns it to the caller
// instead of panicking. The error is dropped while unwinding.
type LenientCleanup struct{}

func (LenientCleanup) DetachFailed(d *Device, err error, unwinding bool) error {
	log.L.WithError(err).WithField("device", d.Name()).WithField("unwinding", unwinding).Warn("md: forced detach failed")
	if unwinding {
		return nil
	}
	return err
}
