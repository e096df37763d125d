package md

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/spin-stack/mdconfig/internal/mdio"
)

// Option is a single md(4) option flag.
type Option uint8

// Options, in the order they are printed.
const (
	OptAsync Option = iota
	OptAutoUnit
	OptCache
	OptCluster
	OptCompress
	OptForce
	OptMustDealloc
	OptReadOnly
	OptReserve
	OptVerify
	numOptions
)

var optionInfo = [numOptions]struct {
	name string
	bit  uint32
}{
	OptAsync:       {"async", mdio.OptAsync},
	OptAutoUnit:    {"autounit", mdio.OptAutoUnit},
	OptCache:       {"cache", mdio.OptCache},
	OptCluster:     {"cluster", mdio.OptCluster},
	OptCompress:    {"compress", mdio.OptCompress},
	OptForce:       {"force", mdio.OptForce},
	OptMustDealloc: {"mustdealloc", mdio.OptMustDealloc},
	OptReadOnly:    {"readonly", mdio.OptReadOnly},
	OptReserve:     {"reserve", mdio.OptReserve},
	OptVerify:      {"verify", mdio.OptVerify},
}

func (o Option) String() string {
	if o < numOptions {
		return optionInfo[o].name
	}
	return fmt.Sprintf("option(%d)", uint8(o))
}

// ParseOption parses an option name as printed by Option.String.
func ParseOption(s string) (Option, error) {
	for o := Option(0); o < numOptions; o++ {
		if optionInfo[o].name == s {
			return o, nil
		}
	}
	return 0, invalid("option", fmt.Sprintf("unknown option %q", s))
}

// OptionSet is a set of options. The zero value is empty.
type OptionSet struct {
	set uint16
}

// Options returns a set holding opts.
func Options(opts ...Option) OptionSet {
	var s OptionSet
	for _, o := range opts {
		s = s.With(o)
	}
	return s
}

// With returns s with o added.
func (s OptionSet) With(o Option) OptionSet {
	s.set |= 1 << o
	return s
}

// Without returns s with o removed.
func (s OptionSet) Without(o Option) OptionSet {
	s.set &^= 1 << o
	return s
}

// Toggle adds o if on is true and removes it otherwise.
func (s OptionSet) Toggle(o Option, on bool) OptionSet {
	if on {
		return s.With(o)
	}
	return s.Without(o)
}

// Has reports whether o is in s.
func (s OptionSet) Has(o Option) bool {
	return s.set&(1<<o) != 0
}

// Len returns the number of options in s.
func (s OptionSet) Len() int {
	return bits.OnesCount16(s.set)
}

// List returns the options in s in order.
func (s OptionSet) List() []Option {
	var out []Option
	for o := Option(0); o < numOptions; o++ {
		if s.Has(o) {
			out = append(out, o)
		}
	}
	return out
}

// String joins option names with commas, or returns "-" for an empty set.
func (s OptionSet) String() string {
	opts := s.List()
	if len(opts) == 0 {
		return "-"
	}
	names := make([]string, len(opts))
	for i, o := range opts {
		names[i] = o.String()
	}
	return strings.Join(names, ",")
}

// pack encodes s as md_options bits.
func (s OptionSet) pack() uint32 {
	var v uint32
	for _, o := range s.List() {
		v |= optionInfo[o].bit
	}
	return v
}

// unpack decodes md_options bits. Unknown bits are dropped.
func unpack(v uint32) OptionSet {
	var s OptionSet
	for o := Option(0); o < numOptions; o++ {
		if v&optionInfo[o].bit != 0 {
			s = s.With(o)
		}
	}
	return s
}
