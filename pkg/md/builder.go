package md

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/containerd/log"

	"github.com/spin-stack/mdconfig/internal/mdio"
)

// baseOptions are set on every new configuration.
var baseOptions = Options(OptAutoUnit, OptCompress)

// Builder accumulates the configuration of a memory disk. Modifiers only
// record values; everything is validated by Create.
type Builder struct {
	kind       Kind
	file       string
	size       int64
	sectorSize uint32
	fwHeads    int32
	fwSectors  int32
	label      *string
	unit       uint32
	options    OptionSet
	policy     CleanupPolicy
	ctl        mdio.Opener
}

func newBuilder(kind Kind) *Builder {
	return &Builder{
		kind:    kind,
		options: baseOptions,
		policy:  StrictCleanup{},
		ctl:     mdio.Default,
	}
}

// NewMemory configures a disk of size bytes backed by kernel memory.
func NewMemory(size int64) *Builder {
	b := newBuilder(KindMemory)
	b.size = size
	return b
}

// NewSwap configures a disk of size bytes backed by swap-eligible memory.
// Unlike NewMemory, its pages may be pushed out to swap under memory pressure.
func NewSwap(size int64) *Builder {
	b := newBuilder(KindSwap)
	b.size = size
	b.options = b.options.With(OptCluster)
	return b
}

// NewNull configures a disk of size bytes that discards writes and reads as
// zeros. No memory is consumed.
func NewNull(size int64) *Builder {
	b := newBuilder(KindNull)
	b.size = size
	return b
}

// NewFile configures a disk backed by the file at path. The disk takes the
// file's size at Create time unless Size overrides it.
func NewFile(path string) *Builder {
	b := newBuilder(KindFile)
	b.file = path
	b.options = b.options.With(OptCluster)
	return b
}

// Kind returns the backing store.
func (b *Builder) Kind() Kind { return b.kind }

// Options returns the options that Create will request.
func (b *Builder) Options() OptionSet { return b.options }

// Size sets the disk size in bytes. For file-backed disks it overrides the
// file's size.
func (b *Builder) Size(size int64) *Builder {
	b.size = size
	return b
}

// SectorSize sets the sector size in bytes. Zero selects the driver default.
func (b *Builder) SectorSize(n uint32) *Builder {
	b.sectorSize = n
	return b
}

// HeadsPerCylinder sets the synthetic geometry's head count. The kernel
// ignores it unless SectorsPerTrack is also set.
func (b *Builder) HeadsPerCylinder(heads int32) *Builder {
	b.fwHeads = heads
	return b
}

// SectorsPerTrack sets the synthetic geometry's sectors per track. The kernel
// ignores it unless HeadsPerCylinder is also set.
func (b *Builder) SectorsPerTrack(sectors int32) *Builder {
	b.fwSectors = sectors
	return b
}

// Label associates a free-form string with the disk, as reported by
// mdconfig -lv.
func (b *Builder) Label(label string) *Builder {
	b.label = &label
	return b
}

// Unit requests a specific unit number instead of the next free one.
func (b *Builder) Unit(unit uint32) *Builder {
	b.unit = unit
	b.options = b.options.Without(OptAutoUnit)
	return b
}

// Async avoids IO_SYNC on file-backed disks, at the risk of deadlocking the
// kernel under memory pressure.
func (b *Builder) Async(on bool) *Builder { return b.toggle(OptAsync, on) }

// Cache enables caching of file-backed disk data in the buffer cache.
func (b *Builder) Cache(on bool) *Builder { return b.toggle(OptCache, on) }

// Compress enables compression of memory-backed disks.
func (b *Builder) Compress(on bool) *Builder { return b.toggle(OptCompress, on) }

// MustDealloc makes BIO_DELETE fail on file-backed disks whose file system
// cannot punch holes, instead of zero-filling. Requires FreeBSD 14.
func (b *Builder) MustDealloc(on bool) *Builder { return b.toggle(OptMustDealloc, on) }

// Reserve allocates all backing storage up front.
func (b *Builder) Reserve(on bool) *Builder { return b.toggle(OptReserve, on) }

// ReadOnly attaches the disk read-only.
func (b *Builder) ReadOnly(on bool) *Builder { return b.toggle(OptReadOnly, on) }

// Verify opens the backing file of a file-backed disk with O_VERIFY.
func (b *Builder) Verify(on bool) *Builder { return b.toggle(OptVerify, on) }

func (b *Builder) toggle(o Option, on bool) *Builder {
	b.options = b.options.Toggle(o, on)
	return b
}

// CleanupPolicy sets the policy Device.Release applies when its forced detach
// fails. The default is StrictCleanup.
func (b *Builder) CleanupPolicy(p CleanupPolicy) *Builder {
	b.policy = p
	return b
}

// ControlPath uses the md control node at path instead of /dev/mdctl.
func (b *Builder) ControlPath(path string) *Builder {
	b.ctl = mdio.Control{Path: path}
	return b
}

func (b *Builder) validate() error {
	if b.size < 0 {
		return invalid("size", fmt.Sprintf("negative size %d", b.size))
	}
	switch b.kind {
	case KindMemory, KindSwap, KindNull:
		if b.size == 0 {
			return invalid("size", fmt.Sprintf("%s disk requires a size", b.kind))
		}
	case KindFile:
		if b.file == "" {
			return invalid("file", "file-backed disk requires a path")
		}
	default:
		return invalid("type", fmt.Sprintf("cannot create %s disk", b.kind))
	}
	return nil
}

// record builds the attach record for a disk of size bytes backed by file.
func (b *Builder) record(file string, size int64) (*mdio.Record, error) {
	r := mdio.NewRecord(b.unit)
	r.Type = uint32(b.kind)
	r.MediaSize = size
	r.SectorSize = b.sectorSize
	r.Options = b.options.pack()
	r.FwHeads = b.fwHeads
	r.FwSectors = b.fwSectors

	if b.kind == KindFile {
		buf, err := mdio.Encode("file", file, mdio.PathMax)
		if err != nil {
			return nil, &ValidationError{Field: "file", Cause: err}
		}
		r.SetFile(buf)
	}
	if b.label != nil {
		buf, err := mdio.Encode("label", *b.label, mdio.PathMax)
		if err != nil {
			return nil, &ValidationError{Field: "label", Cause: err}
		}
		r.SetLabel(buf)
	}
	return r, nil
}

// Create attaches the configured disk and returns its handle.
//
// For file-backed disks the path is made absolute and, without a Size
// override, the file's current length becomes the disk size. Oversized or
// malformed file and label strings fail with a ValidationError before the
// kernel is called. Kernel failures wrap the reported unix.Errno.
func (b *Builder) Create() (*Device, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	ch, err := b.ctl.Open()
	if err != nil {
		return nil, err
	}
	defer ch.Close()

	file, size := b.file, b.size
	if b.kind == KindFile {
		if file, err = filepath.Abs(b.file); err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", b.file, err)
		}
		fi, err := os.Stat(file)
		if err != nil {
			return nil, fmt.Errorf("failed to stat backing file: %w", err)
		}
		if size == 0 {
			size = fi.Size()
		}
	}

	if (b.fwHeads == 0) != (b.fwSectors == 0) {
		log.L.WithField("heads", b.fwHeads).WithField("sectors", b.fwSectors).
			Debug("md: synthetic geometry needs both heads and sectors, kernel will ignore it")
	}

	r, err := b.record(file, size)
	if err != nil {
		return nil, err
	}
	if err := ch.Attach(r); err != nil {
		return nil, fmt.Errorf("failed to attach %s disk: %w", b.kind, err)
	}

	dev := newDevice(r.Unit, b.ctl, b.policy)
	log.L.WithFields(log.Fields{
		"device":  dev.name,
		"kind":    b.kind.String(),
		"size":    size,
		"options": b.options.String(),
	}).Debug("md: attached")
	return dev, nil
}
