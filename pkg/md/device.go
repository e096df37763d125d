package md

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/containerd/log"

	"github.com/spin-stack/mdconfig/internal/mdio"
)

// Device is an attached memory disk such as /dev/md0. It represents the
// kernel attachment, not an open file; open Path to do I/O.
//
// A Device must be detached exactly once, by TryDestroy, Close or Release.
// If it becomes unreachable while still attached it is force-detached in the
// background and the leak is logged.
type Device struct {
	name   string
	path   string
	unit   uint32
	ctl    mdio.Opener
	policy CleanupPolicy

	mu        sync.Mutex
	destroyed bool
	leak      runtime.Cleanup
}

func newDevice(unit uint32, ctl mdio.Opener, policy CleanupPolicy) *Device {
	name := fmt.Sprintf("%s%d", mdio.DevicePrefix, unit)
	d := &Device{
		name:   name,
		path:   filepath.Join(mdio.DeviceDir, name),
		unit:   unit,
		ctl:    ctl,
		policy: policy,
	}
	d.leak = runtime.AddCleanup(d, detachLeaked, leaked{name: name, unit: unit, ctl: ctl})
	return d
}

// Name returns the device name, e.g. "md0".
func (d *Device) Name() string { return d.name }

// Path returns the device node, e.g. "/dev/md0".
func (d *Device) Path() string { return d.path }

// Unit returns the unit number, e.g. the 0 in "md0".
func (d *Device) Unit() uint32 { return d.unit }

func (d *Device) String() string { return d.name }

// Destroyed reports whether the device has been detached through this handle.
func (d *Device) Destroyed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed
}

// Resize changes the device size to size bytes. Shrinking requires force and
// may discard data; without it the kernel rejects the request.
func (d *Device) Resize(size int64, force bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return ErrDestroyed
	}

	ch, err := d.ctl.Open()
	if err != nil {
		return err
	}
	defer ch.Close()

	r := mdio.NewRecord(d.unit)
	r.MediaSize = size
	if force {
		r.Options = Options(OptForce).pack()
	}
	if err := ch.Resize(r); err != nil {
		return fmt.Errorf("failed to resize %s to %d bytes: %w", d.name, size, err)
	}
	log.L.WithField("device", d.name).WithField("size", size).Debug("md: resized")
	return nil
}

// TryDestroy detaches the device unless it is in use. On success the handle
// is spent. On failure, typically unix.EBUSY because another process holds
// the device open, the handle is left attached and may be retried.
func (d *Device) TryDestroy() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return ErrDestroyed
	}
	return d.detach(false)
}

// Close forcibly detaches the device, even while other processes hold it
// open. Closing a detached device is a no-op.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return nil
	}
	return d.detach(true)
}

// Release forcibly detaches the device at the end of a scope. It must be
// deferred directly, with a pointer to the enclosing function's error:
//
//	defer dev.Release(&err)
//
// If the detach fails, the device's CleanupPolicy decides the outcome. The
// policy is told the scope is unwinding when *errp is non-nil or a panic is
// in flight; a panic is re-raised after cleanup. errp may be nil.
func (d *Device) Release(errp *error) {
	r := recover()
	unwinding := r != nil || (errp != nil && *errp != nil)
	if err := d.Close(); err != nil {
		if perr := d.policy.DetachFailed(d, err, unwinding); perr != nil && errp != nil && *errp == nil {
			*errp = perr
		}
	}
	if r != nil {
		panic(r)
	}
}

// detach must be called with d.mu held.
func (d *Device) detach(force bool) error {
	if err := detach(d.ctl, d.unit, force); err != nil {
		return fmt.Errorf("failed to detach %s: %w", d.name, err)
	}
	d.destroyed = true
	d.leak.Stop()
	log.L.WithField("device", d.name).WithField("force", force).Debug("md: detached")
	return nil
}

func detach(ctl mdio.Opener, unit uint32, force bool) error {
	ch, err := ctl.Open()
	if err != nil {
		return err
	}
	defer ch.Close()

	r := mdio.NewRecord(unit)
	if force {
		r.Options = Options(OptForce).pack()
	}
	return ch.Detach(r)
}

type leaked struct {
	name string
	unit uint32
	ctl  mdio.Opener
}

func detachLeaked(l leaked) {
	if err := detach(l.ctl, l.unit, true); err != nil {
		log.L.WithError(err).WithField("device", l.name).Error("md: failed to detach unreleased device")
		return
	}
	log.L.WithField("device", l.name).Warn("md: detached unreleased device")
}

// Info describes an attached device as reported by the kernel.
type Info struct {
	Name       string
	Unit       uint32
	Kind       Kind
	Size       int64
	SectorSize uint32
	Options    OptionSet
	File       string // backing file, file-backed disks only
	Label      string
}

// Info queries the kernel for the device's current configuration.
func (d *Device) Info() (*Info, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return nil, ErrDestroyed
	}

	ch, err := d.ctl.Open()
	if err != nil {
		return nil, err
	}
	defer ch.Close()

	file := make([]byte, mdio.PathMax)
	label := make([]byte, mdio.PathMax)
	r := mdio.NewRecord(d.unit)
	r.SetFile(file)
	r.SetLabel(label)
	if err := ch.Query(r); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", d.name, err)
	}
	return &Info{
		Name:       d.name,
		Unit:       r.Unit,
		Kind:       Kind(r.Type),
		Size:       r.MediaSize,
		SectorSize: r.SectorSize,
		Options:    unpack(r.Options),
		File:       mdio.Decode(file),
		Label:      mdio.Decode(label),
	}, nil
}

// Geometry is the disk geometry the device node reports.
type Geometry struct {
	MediaSize       int64
	SectorSize      uint32
	SectorsPerTrack uint32
	Heads           uint32
}

// Geometry opens the device node and reads its size and firmware geometry.
// The node is briefly held open, so a concurrent TryDestroy may see EBUSY.
func (d *Device) Geometry() (*Geometry, error) {
	if d.Destroyed() {
		return nil, ErrDestroyed
	}
	g, err := mdio.ReadGeometry(d.path)
	if err != nil {
		return nil, err
	}
	return &Geometry{
		MediaSize:       g.MediaSize,
		SectorSize:      g.SectorSize,
		SectorsPerTrack: g.FwSectors,
		Heads:           g.FwHeads,
	}, nil
}
