package mdio

// Channel is an open md control node. Each request passes the record by
// reference and the kernel may rewrite it.
type Channel interface {
	Attach(r *Record) error
	Detach(r *Record) error
	Query(r *Record) error
	Resize(r *Record) error
	Close() error
}

// Opener opens control channels.
type Opener interface {
	Open() (Channel, error)
}

// Control opens the md control node at Path. It holds no descriptor; every
// Open returns a fresh channel.
type Control struct {
	Path string
}

// Default is the control node of the running kernel.
var Default = Control{Path: ControlPath}

// Geometry is what the disk ioctls report for an attached device node.
type Geometry struct {
	MediaSize  int64
	SectorSize uint32
	FwSectors  uint32
	FwHeads    uint32
}
