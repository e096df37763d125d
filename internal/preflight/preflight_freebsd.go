//go:build freebsd

package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/spin-stack/mdconfig/internal/mdio"
)

// MinRelease is the oldest supported FreeBSD release.
const MinRelease = "13.0"

// Check runs all preflight checks and returns an error if any fail.
// This should be called early in main() to fail fast.
func Check() error {
	if err := CheckRelease(MinRelease); err != nil {
		return err
	}
	return CheckControlNode(mdio.ControlPath)
}

// Release returns the running kernel release (e.g., "14.1-RELEASE-p5").
func Release() (string, error) {
	var uname unix.Utsname
	if err := unix.Uname(&uname); err != nil {
		return "", fmt.Errorf("uname failed: %w", err)
	}
	return unix.ByteSliceToString(uname.Release[:]), nil
}

// CheckRelease checks that the running release is at least minRelease.
func CheckRelease(minRelease string) error {
	current, err := Release()
	if err != nil {
		return err
	}

	cmp, err := CompareVersions(current, minRelease)
	if err != nil {
		return fmt.Errorf("failed to compare versions: %w", err)
	}
	if cmp < 0 {
		return fmt.Errorf("FreeBSD release %s is older than required %s", current, minRelease)
	}
	return nil
}

// CheckControlNode checks that path is a character device, i.e. that md(4)
// is loaded.
func CheckControlNode(path string) error {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("md control node %s not found, please run: kldload md", path)
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFCHR {
		return fmt.Errorf("%s is not a character device", path)
	}
	return nil
}

// Available reports whether the running kernel provides f.
func Available(f Feature) bool {
	release, err := Release()
	if err != nil {
		return false
	}
	return f.Supports(release)
}
