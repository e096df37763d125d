package md

import (
	"errors"
	"testing"

	"github.com/containerd/errdefs"

	"github.com/spin-stack/mdconfig/internal/mdio"
)

func TestOptionSetPack(t *testing.T) {
	tests := []struct {
		name string
		set  OptionSet
		want uint32
	}{
		{"empty", OptionSet{}, 0},
		{"base", baseOptions, mdio.OptAutoUnit | mdio.OptCompress},
		{"cluster reserve", Options(OptCluster, OptReserve), mdio.OptCluster | mdio.OptReserve},
		{"vnode flags", Options(OptAsync, OptCache, OptVerify, OptMustDealloc), mdio.OptAsync | mdio.OptCache | mdio.OptVerify | mdio.OptMustDealloc},
		{"force", Options(OptForce), mdio.OptForce},
		{"readonly", Options(OptReadOnly), mdio.OptReadOnly},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.set.pack(); got != tc.want {
				t.Errorf("pack() = %#x, want %#x", got, tc.want)
			}
			if got := unpack(tc.want); got != tc.set {
				t.Errorf("unpack(%#x) = %v, want %v", tc.want, got, tc.set)
			}
		})
	}
}

func TestOptionSetEveryBitDistinct(t *testing.T) {
	seen := make(map[uint32]Option)
	for o := Option(0); o < numOptions; o++ {
		bit := Options(o).pack()
		if bit == 0 || bit&(bit-1) != 0 {
			t.Errorf("%s packs to %#x, want a single bit", o, bit)
		}
		if prev, ok := seen[bit]; ok {
			t.Errorf("%s and %s share bit %#x", o, prev, bit)
		}
		seen[bit] = o
	}
}

func TestOptionSetOperations(t *testing.T) {
	s := Options(OptAsync)
	if !s.Has(OptAsync) || s.Has(OptCache) {
		t.Fatalf("unexpected membership in %v", s)
	}

	s = s.Toggle(OptCache, true).Toggle(OptAsync, false)
	if s.Has(OptAsync) || !s.Has(OptCache) {
		t.Fatalf("Toggle did not update set: %v", s)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}

	// Removing an absent option is a no-op.
	if got := s.Without(OptVerify); got != s {
		t.Errorf("Without(absent) changed the set: %v", got)
	}

	if got := (OptionSet{}).String(); got != "-" {
		t.Errorf("empty set String() = %q, want %q", got, "-")
	}
	if got := Options(OptReserve, OptCluster, OptAsync).String(); got != "async,cluster,reserve" {
		t.Errorf("String() = %q", got)
	}
}

func TestUnpackDropsUnknownBits(t *testing.T) {
	if got := unpack(0x8000_0000 | mdio.OptReadOnly); got != Options(OptReadOnly) {
		t.Errorf("unpack kept unknown bits: %v", got)
	}
}

func TestParseOption(t *testing.T) {
	for o := Option(0); o < numOptions; o++ {
		got, err := ParseOption(o.String())
		if err != nil {
			t.Fatalf("ParseOption(%q): %v", o.String(), err)
		}
		if got != o {
			t.Errorf("ParseOption(%q) = %v, want %v", o.String(), got, o)
		}
	}

	_, err := ParseOption("turbo")
	if !errors.Is(err, errdefs.ErrInvalidArgument) {
		t.Errorf("expected invalid argument for unknown option, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"malloc": KindMemory,
		"memory": KindMemory,
		"swap":   KindSwap,
		"null":   KindNull,
		"vnode":  KindFile,
		"file":   KindFile,
	}
	for in, want := range tests {
		got, err := ParseKind(in)
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseKind(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseKind("ramdisk"); !IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if got := Kind(42).String(); got != "unknown(42)" {
		t.Errorf("unexpected String for unknown kind: %q", got)
	}
}
