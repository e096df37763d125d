//go:build freebsd && (amd64 || arm64 || riscv64 || ppc64 || ppc64le)

package mdio

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Open opens the control node read-write.
func (c Control) Open() (Channel, error) {
	fd, err := unix.Open(c.Path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", c.Path, err)
	}
	return &fdChannel{fd: fd, path: c.Path}, nil
}

type fdChannel struct {
	fd   int
	path string
}

func (c *fdChannel) Attach(r *Record) error { return c.ioctl("MDIOCATTACH", ReqAttach, r) }
func (c *fdChannel) Detach(r *Record) error { return c.ioctl("MDIOCDETACH", ReqDetach, r) }
func (c *fdChannel) Query(r *Record) error  { return c.ioctl("MDIOCQUERY", ReqQuery, r) }
func (c *fdChannel) Resize(r *Record) error { return c.ioctl("MDIOCRESIZE", ReqResize, r) }

func (c *fdChannel) Close() error {
	return unix.Close(c.fd)
}

func (c *fdChannel) ioctl(name string, req uint32, r *Record) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(c.fd), uintptr(req), uintptr(unsafe.Pointer(r)))
	// The kernel dereferences the file and label buffers during the call.
	runtime.KeepAlive(r.File)
	runtime.KeepAlive(r.Label)
	if errno != 0 {
		return fmt.Errorf("%s failed on %s: %w", name, c.path, errno)
	}
	return nil
}

// ReadGeometry opens the device node at path read-only and reports its size
// and firmware geometry.
func ReadGeometry(path string) (*Geometry, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer unix.Close(fd)

	var g Geometry
	for _, q := range []struct {
		name string
		req  uint32
		arg  unsafe.Pointer
	}{
		{"DIOCGMEDIASIZE", ReqMediaSize, unsafe.Pointer(&g.MediaSize)},
		{"DIOCGSECTORSIZE", ReqSectorSize, unsafe.Pointer(&g.SectorSize)},
		{"DIOCGFWSECTORS", ReqFwSectors, unsafe.Pointer(&g.FwSectors)},
		{"DIOCGFWHEADS", ReqFwHeads, unsafe.Pointer(&g.FwHeads)},
	} {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(q.req), uintptr(q.arg))
		if errno != 0 {
			return nil, fmt.Errorf("%s failed for %s: %w", q.name, path, errno)
		}
	}
	return &g, nil
}
