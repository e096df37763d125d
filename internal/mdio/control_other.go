//go:build !(freebsd && (amd64 || arm64 || riscv64 || ppc64 || ppc64le))

package mdio

import (
	"fmt"
	"runtime"

	"github.com/containerd/errdefs"
)

// Open is not supported on this platform.
func (c Control) Open() (Channel, error) {
	return nil, fmt.Errorf("md(4) on %s/%s: %w", runtime.GOOS, runtime.GOARCH, errdefs.ErrNotImplemented)
}

// ReadGeometry is not supported on this platform.
func ReadGeometry(path string) (*Geometry, error) {
	return nil, fmt.Errorf("md(4) on %s/%s: %w", runtime.GOOS, runtime.GOARCH, errdefs.ErrNotImplemented)
}
