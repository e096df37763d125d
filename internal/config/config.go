// Package config loads memory disk descriptions for mdctl from a TOML file
// and the environment.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/spin-stack/mdconfig/pkg/md"
)

// Device describes a memory disk to attach. Every field can be overridden
// by the environment variable named in its tag.
type Device struct {
	Type       string   `toml:"type" env:"MDCTL_TYPE" env-default:"malloc" env-description:"Backing store: malloc, swap, null or vnode."`
	Size       string   `toml:"size" env:"MDCTL_SIZE" env-description:"Disk size, e.g. 64MiB. Optional for vnode disks."`
	File       string   `toml:"file" env:"MDCTL_FILE" env-description:"Backing file for vnode disks."`
	SectorSize uint32   `toml:"sector_size" env:"MDCTL_SECTOR_SIZE" env-description:"Sector size in bytes, 0 for the driver default."`
	Heads      int32    `toml:"heads" env:"MDCTL_HEADS" env-description:"Synthetic heads per cylinder."`
	Sectors    int32    `toml:"sectors" env:"MDCTL_SECTORS" env-description:"Synthetic sectors per track."`
	Label      string   `toml:"label" env:"MDCTL_LABEL" env-description:"Free-form label, or \"auto\" for a generated one."`
	Unit       string   `toml:"unit" env:"MDCTL_UNIT" env-description:"Unit number, empty to auto-assign."`
	Options    []string `toml:"options" env:"MDCTL_OPTIONS" env-separator:"," env-description:"Options to set: async, cache, compress, mustdealloc, readonly, reserve, verify. Prefix with no to clear."`

	Detach struct {
		Timeout  time.Duration `toml:"timeout" env:"MDCTL_DETACH_TIMEOUT" env-default:"10s" env-description:"How long to wait for a busy disk before forcing detach."`
		Interval time.Duration `toml:"interval" env:"MDCTL_DETACH_INTERVAL" env-default:"100ms" env-description:"Delay between detach attempts."`
	} `toml:"detach"`
}

// Load reads the device description from path, if not empty, and then
// applies the environment.
func Load(path string) (*Device, error) {
	var cfg Device
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &cfg, nil
}

// Usage describes the environment variables Load understands.
func Usage() string {
	var cfg Device
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}

// ParseSize parses a human readable byte count such as "64MiB" or "1G".
func ParseSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > 1<<63-1 {
		return 0, fmt.Errorf("size %q overflows", s)
	}
	return int64(n), nil
}

// Builder turns the description into an md.Builder. label is used when
// the description asks for a generated label.
func (d *Device) Builder(label func() string) (*md.Builder, error) {
	kind, err := md.ParseKind(d.Type)
	if err != nil {
		return nil, err
	}

	var size int64
	if d.Size != "" {
		if size, err = ParseSize(d.Size); err != nil {
			return nil, err
		}
	}

	var b *md.Builder
	switch kind {
	case md.KindMemory:
		b = md.NewMemory(size)
	case md.KindSwap:
		b = md.NewSwap(size)
	case md.KindNull:
		b = md.NewNull(size)
	case md.KindFile:
		b = md.NewFile(d.File).Size(size)
	default:
		return nil, fmt.Errorf("cannot create %s disk", kind)
	}

	b.SectorSize(d.SectorSize).HeadsPerCylinder(d.Heads).SectorsPerTrack(d.Sectors)
	switch d.Label {
	case "":
	case "auto":
		b.Label(label())
	default:
		b.Label(d.Label)
	}
	if d.Unit != "" {
		unit, err := strconv.ParseUint(d.Unit, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid unit %q: %w", d.Unit, err)
		}
		b.Unit(uint32(unit))
	}
	for _, name := range d.Options {
		if err := applyOption(b, name); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func applyOption(b *md.Builder, name string) error {
	on := true
	if rest, ok := strings.CutPrefix(name, "no"); ok {
		on, name = false, rest
	}
	opt, err := md.ParseOption(name)
	if err != nil {
		return err
	}
	switch opt {
	case md.OptAsync:
		b.Async(on)
	case md.OptCache:
		b.Cache(on)
	case md.OptCompress:
		b.Compress(on)
	case md.OptMustDealloc:
		b.MustDealloc(on)
	case md.OptReadOnly:
		b.ReadOnly(on)
	case md.OptReserve:
		b.Reserve(on)
	case md.OptVerify:
		b.Verify(on)
	default:
		return fmt.Errorf("option %s cannot be set directly", opt)
	}
	return nil
}
