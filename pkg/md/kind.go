package md

import (
	"fmt"

	"github.com/spin-stack/mdconfig/internal/mdio"
)

// Kind is the backing store of a memory disk.
type Kind uint32

const (
	// KindMemory is backed by anonymous kernel memory (malloc).
	KindMemory Kind = mdio.TypeMalloc
	// KindPreload is a disk image loaded by the boot loader. It can be
	// reported by Info but not created.
	KindPreload Kind = mdio.TypePreload
	// KindFile is backed by a regular file (vnode).
	KindFile Kind = mdio.TypeVnode
	// KindSwap is backed by swap-eligible memory.
	KindSwap Kind = mdio.TypeSwap
	// KindNull discards writes and reads as zeros.
	KindNull Kind = mdio.TypeNull
)

// String returns the name mdconfig(8) uses for the kind.
func (k Kind) String() string {
	switch k {
	case KindMemory:
		return "malloc"
	case KindPreload:
		return "preload"
	case KindFile:
		return "vnode"
	case KindSwap:
		return "swap"
	case KindNull:
		return "null"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(k))
	}
}

// ParseKind parses a kind name. Both the mdconfig(8) names and "memory" and
// "file" are accepted.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "malloc", "memory":
		return KindMemory, nil
	case "vnode", "file":
		return KindFile, nil
	case "swap":
		return KindSwap, nil
	case "null":
		return KindNull, nil
	case "preload":
		return KindPreload, nil
	}
	return 0, invalid("type", fmt.Sprintf("unknown backing store %q", s))
}
