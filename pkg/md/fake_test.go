package md

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/spin-stack/mdconfig/internal/mdio"
)

type fakeDisk struct {
	typ        uint32
	size       int64
	sectorSize uint32
	options    uint32
	heads      int32
	sectors    int32
	file       string
	label      string
}

// fakeKernel emulates the md driver behind the control node.
type fakeKernel struct {
	mu        sync.Mutex
	openErr   error
	detachErr error
	units     map[uint32]*fakeDisk
	busy      map[uint32]bool
	attached  []mdio.Record
	opens     int
	closes    int
}

func newFakeKernel() *fakeKernel {
	return &fakeKernel{
		units: make(map[uint32]*fakeDisk),
		busy:  make(map[uint32]bool),
	}
}

func (k *fakeKernel) Open() (mdio.Channel, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.openErr != nil {
		return nil, k.openErr
	}
	k.opens++
	return &fakeChannel{k: k}, nil
}

func (k *fakeKernel) setBusy(unit uint32, busy bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.busy[unit] = busy
}

func (k *fakeKernel) failDetach(err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.detachErr = err
}

func (k *fakeKernel) disk(unit uint32) (fakeDisk, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	d, ok := k.units[unit]
	if !ok {
		return fakeDisk{}, false
	}
	return *d, true
}

func (k *fakeKernel) openCount() (opens, closes int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.opens, k.closes
}

type fakeChannel struct {
	k *fakeKernel
}

func (c *fakeChannel) Attach(r *mdio.Record) error {
	k := c.k
	k.mu.Lock()
	defer k.mu.Unlock()
	k.attached = append(k.attached, *r)

	if r.Version != mdio.Version || r.MediaSize <= 0 {
		return unix.EINVAL
	}
	if r.Type == mdio.TypeVnode && r.FileName() == "" {
		return unix.EINVAL
	}
	if r.Options&mdio.OptAutoUnit != 0 {
		r.Unit = 0
		for k.units[r.Unit] != nil {
			r.Unit++
		}
	} else if k.units[r.Unit] != nil {
		return unix.EBUSY
	}
	k.units[r.Unit] = &fakeDisk{
		typ:        r.Type,
		size:       r.MediaSize,
		sectorSize: r.SectorSize,
		options:    r.Options &^ mdio.OptAutoUnit,
		heads:      r.FwHeads,
		sectors:    r.FwSectors,
		file:       r.FileName(),
		label:      r.LabelName(),
	}
	return nil
}

func (c *fakeChannel) Detach(r *mdio.Record) error {
	k := c.k
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.units[r.Unit] == nil {
		return unix.ENOENT
	}
	force := r.Options&mdio.OptForce != 0
	if force && k.detachErr != nil {
		return k.detachErr
	}
	if k.busy[r.Unit] && !force {
		return unix.EBUSY
	}
	delete(k.units, r.Unit)
	delete(k.busy, r.Unit)
	return nil
}

func (c *fakeChannel) Query(r *mdio.Record) error {
	k := c.k
	k.mu.Lock()
	defer k.mu.Unlock()
	d := k.units[r.Unit]
	if d == nil {
		return unix.ENOENT
	}
	r.Type = d.typ
	r.MediaSize = d.size
	r.SectorSize = d.sectorSize
	r.Options = d.options
	copyOut(r.Label, d.label)
	if d.typ == mdio.TypeVnode {
		copyOut(r.File, d.file)
	}
	return nil
}

func (c *fakeChannel) Resize(r *mdio.Record) error {
	k := c.k
	k.mu.Lock()
	defer k.mu.Unlock()
	d := k.units[r.Unit]
	if d == nil {
		return unix.ENOENT
	}
	if r.MediaSize < d.size && r.Options&mdio.OptForce == 0 {
		return unix.EDOM
	}
	d.size = r.MediaSize
	return nil
}

func (c *fakeChannel) Close() error {
	c.k.mu.Lock()
	defer c.k.mu.Unlock()
	c.k.closes++
	return nil
}

func copyOut(p *byte, s string) {
	if p == nil {
		return
	}
	buf := unsafe.Slice(p, mdio.PathMax)
	n := copy(buf[:mdio.PathMax-1], s)
	buf[n] = 0
}

// withKernel points b at k.
func withKernel(b *Builder, k *fakeKernel) *Builder {
	b.ctl = k
	return b
}
