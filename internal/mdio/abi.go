// Package mdio provides the FreeBSD md(4) control ABI: the md_ioctl record,
// its option bits, and the ioctl requests used to attach, detach, query and
// resize memory disks.
package mdio

// md(4) constants from <sys/mdioctl.h>
const (
	// Version is the md_ioctl structure layout version.
	Version = 0
	// NPad is the number of int32 padding words at the end of md_ioctl.
	NPad = 96

	// ControlPath is the well-known md control node.
	ControlPath = "/dev/mdctl"
	// DeviceDir is the directory md device nodes appear in.
	DeviceDir = "/dev"
	// DevicePrefix is the driver name, e.g. the "md" in /dev/md0.
	DevicePrefix = "md"

	// PathMax is the capacity of the file and label buffers, PATH_MAX on FreeBSD.
	PathMax = 1024
)

// Backing store types (enum md_types).
const (
	TypeMalloc  = 0
	TypePreload = 1
	TypeVnode   = 2
	TypeSwap    = 3
	TypeNull    = 4
)

// md_options bits.
const (
	OptCluster     = 0x01
	OptReserve     = 0x02
	OptAutoUnit    = 0x04
	OptReadOnly    = 0x08
	OptCompress    = 0x10
	OptForce       = 0x20
	OptAsync       = 0x40
	OptVerify      = 0x80
	OptCache       = 0x100
	OptMustDealloc = 0x200
)

// ioctl direction bits and parameter mask from <sys/ioccom.h>
const (
	iocOut       = 0x40000000
	iocIn        = 0x80000000
	iocInOut     = iocIn | iocOut
	iocParamMask = 0x1fff
)

// ioc mirrors the _IOC macro.
func ioc(inout uint32, group byte, num uint8, size uintptr) uint32 {
	return inout | (uint32(size)&iocParamMask)<<16 | uint32(group)<<8 | uint32(num)
}

// iowr mirrors _IOWR.
func iowr(group byte, num uint8, size uintptr) uint32 {
	return ioc(iocInOut, group, num, size)
}

// ior mirrors _IOR.
func ior(group byte, num uint8, size uintptr) uint32 {
	return ioc(iocOut, group, num, size)
}

// Request numbers. The md requests are sized by RecordSize, so they are only
// meaningful on platforms where Record matches the kernel layout.
var (
	ReqAttach = iowr('m', 0, RecordSize)
	ReqDetach = iowr('m', 1, RecordSize)
	ReqQuery  = iowr('m', 2, RecordSize)
	ReqResize = iowr('m', 4, RecordSize)

	ReqMediaSize  = ior('d', 129, 8) // DIOCGMEDIASIZE, off_t
	ReqSectorSize = ior('d', 128, 4) // DIOCGSECTORSIZE, u_int
	ReqFwSectors  = ior('d', 130, 4) // DIOCGFWSECTORS, u_int
	ReqFwHeads    = ior('d', 131, 4) // DIOCGFWHEADS, u_int
)
