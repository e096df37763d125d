package mdio

import (
	"errors"
	"strings"
	"testing"
	"unsafe"

	"github.com/containerd/errdefs"
)

func is64Bit() bool {
	return unsafe.Sizeof(uintptr(0)) == 8
}

func TestRecordLayout(t *testing.T) {
	if !is64Bit() {
		t.Skip("md_ioctl layout is only mirrored on 64-bit platforms")
	}

	var r Record
	offsets := []struct {
		field string
		got   uintptr
		want  uintptr
	}{
		{"md_version", unsafe.Offsetof(r.Version), 0},
		{"md_unit", unsafe.Offsetof(r.Unit), 4},
		{"md_type", unsafe.Offsetof(r.Type), 8},
		{"md_file", unsafe.Offsetof(r.File), 16},
		{"md_mediasize", unsafe.Offsetof(r.MediaSize), 24},
		{"md_sectorsize", unsafe.Offsetof(r.SectorSize), 32},
		{"md_options", unsafe.Offsetof(r.Options), 36},
		{"md_base", unsafe.Offsetof(r.Base), 40},
		{"md_fwheads", unsafe.Offsetof(r.FwHeads), 48},
		{"md_fwsectors", unsafe.Offsetof(r.FwSectors), 52},
		{"md_label", unsafe.Offsetof(r.Label), 56},
		{"md_pad", unsafe.Offsetof(r.Pad), 64},
	}
	for _, o := range offsets {
		if o.got != o.want {
			t.Errorf("offset of %s: got %d, want %d", o.field, o.got, o.want)
		}
	}
	if RecordSize != 448 {
		t.Errorf("sizeof(struct md_ioctl): got %d, want 448", RecordSize)
	}
}

func TestRequestNumbers(t *testing.T) {
	if !is64Bit() {
		t.Skip("md_ioctl layout is only mirrored on 64-bit platforms")
	}

	tests := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"MDIOCATTACH", ReqAttach, 0xc1c06d00},
		{"MDIOCDETACH", ReqDetach, 0xc1c06d01},
		{"MDIOCQUERY", ReqQuery, 0xc1c06d02},
		{"MDIOCRESIZE", ReqResize, 0xc1c06d04},
		{"DIOCGSECTORSIZE", ReqSectorSize, 0x40046480},
		{"DIOCGMEDIASIZE", ReqMediaSize, 0x40086481},
		{"DIOCGFWSECTORS", ReqFwSectors, 0x40046482},
		{"DIOCGFWHEADS", ReqFwHeads, 0x40046483},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("%s: got %#x, want %#x", tc.name, tc.got, tc.want)
		}
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		n       int
		wantErr bool
		wantNUL bool
	}{
		{name: "empty", input: "", n: 8},
		{name: "short", input: "foo", n: 8},
		{name: "exactly fits with terminator", input: "1234567", n: 8},
		{name: "no room for terminator", input: "12345678", n: 8, wantErr: true},
		{name: "too long", input: strings.Repeat("x", PathMax), n: PathMax, wantErr: true},
		{name: "max label", input: strings.Repeat("x", PathMax-1), n: PathMax},
		{name: "embedded NUL", input: "a\x00b", n: 8, wantErr: true, wantNUL: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf, err := Encode("label", tc.input, tc.n)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error encoding %q into %d bytes", tc.input, tc.n)
				}
				if !errors.Is(err, errdefs.ErrInvalidArgument) {
					t.Errorf("expected invalid argument, got %v", err)
				}
				var fe *FieldError
				if !errors.As(err, &fe) {
					t.Fatalf("expected *FieldError, got %T", err)
				}
				if fe.NUL != tc.wantNUL {
					t.Errorf("NUL: got %v, want %v", fe.NUL, tc.wantNUL)
				}
				if !strings.Contains(err.Error(), "label") {
					t.Errorf("error should name the field: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if len(buf) != tc.n {
				t.Fatalf("buffer length: got %d, want %d", len(buf), tc.n)
			}
			for i := len(tc.input); i < len(buf); i++ {
				if buf[i] != 0 {
					t.Fatalf("byte %d not zero padded: %#x", i, buf[i])
				}
			}
			if got := Decode(buf); got != tc.input {
				t.Errorf("Decode: got %q, want %q", got, tc.input)
			}
		})
	}
}

func TestDecodeUnterminated(t *testing.T) {
	if got := Decode([]byte("abc")); got != "abc" {
		t.Errorf("got %q, want %q", got, "abc")
	}
}

func TestRecordBuffers(t *testing.T) {
	r := NewRecord(7)
	if r.Version != Version || r.Unit != 7 {
		t.Fatalf("unexpected record header: version=%d unit=%d", r.Version, r.Unit)
	}
	if r.FileName() != "" || r.LabelName() != "" {
		t.Fatal("expected empty names for nil buffers")
	}

	file, err := Encode("file", "/tmp/disk.img", PathMax)
	if err != nil {
		t.Fatal(err)
	}
	label, err := Encode("label", "scratch", PathMax)
	if err != nil {
		t.Fatal(err)
	}
	r.SetFile(file)
	r.SetLabel(label)

	if got := r.FileName(); got != "/tmp/disk.img" {
		t.Errorf("FileName: got %q", got)
	}
	if got := r.LabelName(); got != "scratch" {
		t.Errorf("LabelName: got %q", got)
	}

	r.SetLabel(nil)
	if r.Label != nil {
		t.Error("SetLabel(nil) should clear the pointer")
	}
}
