// Package preflight provides system requirement checks for md(4) users.
package preflight

import (
	"fmt"
	"strconv"
	"strings"
)

// parseVersion parses a release string into major, minor, patch components.
// Handles FreeBSD releases like "14.1-RELEASE-p5" and "15.0-CURRENT" as well
// as dotted versions like "13.2.1".
func parseVersion(version string) (major, minor, patch int, err error) {
	// Remove any suffix after the version numbers (e.g., "-RELEASE", "-p5")
	version, _, _ = strings.Cut(version, "-")

	nums := strings.Split(version, ".")
	if len(nums) < 2 {
		return 0, 0, 0, fmt.Errorf("invalid version format: %s", version)
	}

	major, err = strconv.Atoi(nums[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid major version: %s", nums[0])
	}

	minor, err = strconv.Atoi(nums[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid minor version: %s", nums[1])
	}

	if len(nums) >= 3 {
		patchStr := nums[2]
		for i, c := range patchStr {
			if c < '0' || c > '9' {
				patchStr = patchStr[:i]
				break
			}
		}
		if patchStr != "" {
			patch, _ = strconv.Atoi(patchStr)
		}
	}

	return major, minor, patch, nil
}

// CompareVersions compares two version strings.
// Returns -1 if v1 < v2, 0 if v1 == v2, 1 if v1 > v2.
func CompareVersions(v1, v2 string) (int, error) {
	maj1, min1, pat1, err := parseVersion(v1)
	if err != nil {
		return 0, err
	}

	maj2, min2, pat2, err := parseVersion(v2)
	if err != nil {
		return 0, err
	}

	for _, p := range [][2]int{{maj1, maj2}, {min1, min2}, {pat1, pat2}} {
		switch {
		case p[0] < p[1]:
			return -1, nil
		case p[0] > p[1]:
			return 1, nil
		}
	}
	return 0, nil
}

// Feature is a driver capability that depends on the FreeBSD release.
type Feature struct {
	Name       string
	MinRelease string
}

var (
	// MustDealloc is the mustdealloc option for file-backed disks.
	MustDealloc = Feature{Name: "mustdealloc", MinRelease: "14.0"}
	// OptionReporting is MDIOCQUERY reporting per-disk options such as
	// async, cache and readonly.
	OptionReporting = Feature{Name: "option reporting", MinRelease: "15.0"}
)

// Supports reports whether release provides f.
func (f Feature) Supports(release string) bool {
	cmp, err := CompareVersions(release, f.MinRelease)
	return err == nil && cmp >= 0
}
