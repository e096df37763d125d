package mdio

import (
	"bytes"
	"fmt"
	"unsafe"

	"github.com/containerd/errdefs"
)

// Record is the md_ioctl structure from <sys/mdioctl.h>.
//
// File and Label point at caller-owned buffers of PathMax bytes. The layout
// matches the kernel on 64-bit platforms only.
type Record struct {
	Version    uint32
	Unit       uint32
	Type       uint32
	File       *byte
	MediaSize  int64
	SectorSize uint32
	Options    uint32
	Base       uint64
	FwHeads    int32
	FwSectors  int32
	Label      *byte
	Pad        [NPad]int32
}

// RecordSize is the size of Record in bytes (448 on 64-bit platforms).
const RecordSize = unsafe.Sizeof(Record{})

// NewRecord returns a zeroed record addressed to unit with the current
// layout version.
func NewRecord(unit uint32) *Record {
	return &Record{Version: Version, Unit: unit}
}

// SetFile points the record's file field at buf.
func (r *Record) SetFile(buf []byte) {
	r.File = bufPtr(buf)
}

// SetLabel points the record's label field at buf.
func (r *Record) SetLabel(buf []byte) {
	r.Label = bufPtr(buf)
}

// FileName reads the NUL-terminated string the file field points at.
func (r *Record) FileName() string {
	return readPtr(r.File)
}

// LabelName reads the NUL-terminated string the label field points at.
func (r *Record) LabelName() string {
	return readPtr(r.Label)
}

func bufPtr(buf []byte) *byte {
	if len(buf) == 0 {
		return nil
	}
	return &buf[0]
}

func readPtr(p *byte) string {
	if p == nil {
		return ""
	}
	return Decode(unsafe.Slice(p, PathMax))
}

// FieldError reports a string that cannot be stored in a fixed-capacity
// kernel buffer.
type FieldError struct {
	Field string // record field, e.g. "file" or "label"
	Len   int    // length of the rejected value in bytes
	Cap   int    // buffer capacity including the terminator
	NUL   bool   // value contains an embedded NUL byte
}

func (e *FieldError) Error() string {
	if e.NUL {
		return fmt.Sprintf("%s contains a NUL byte", e.Field)
	}
	return fmt.Sprintf("%s is %d bytes, exceeds %d byte buffer (including terminator)", e.Field, e.Len, e.Cap)
}

// Is reports FieldError as an invalid argument.
func (e *FieldError) Is(target error) bool {
	return target == errdefs.ErrInvalidArgument
}

// Encode copies s into a new NUL-padded buffer of n bytes. It fails if s
// plus its terminator does not fit, or if s contains a NUL byte.
func Encode(field, s string, n int) ([]byte, error) {
	if bytes.IndexByte([]byte(s), 0) >= 0 {
		return nil, &FieldError{Field: field, Len: len(s), Cap: n, NUL: true}
	}
	if len(s)+1 > n {
		return nil, &FieldError{Field: field, Len: len(s), Cap: n}
	}
	buf := make([]byte, n)
	copy(buf, s)
	return buf, nil
}

// Decode returns the bytes of buf up to the first NUL.
func Decode(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		return string(buf[:i])
	}
	return string(buf)
}
