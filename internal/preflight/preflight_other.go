//go:build !freebsd

package preflight

import "github.com/containerd/errdefs"

// MinRelease is the oldest supported FreeBSD release.
const MinRelease = "13.0"

// Check runs all preflight checks.
// On non-FreeBSD platforms, this returns ErrNotImplemented.
func Check() error {
	return errdefs.ErrNotImplemented
}

// Release returns the running kernel release.
func Release() (string, error) {
	return "", errdefs.ErrNotImplemented
}

// CheckRelease checks that the running release is at least minRelease.
func CheckRelease(minRelease string) error {
	return errdefs.ErrNotImplemented
}

// CheckControlNode checks that path is the md control node.
func CheckControlNode(path string) error {
	return errdefs.ErrNotImplemented
}

// Available reports whether the running kernel provides f.
func Available(f Feature) bool {
	return false
}
