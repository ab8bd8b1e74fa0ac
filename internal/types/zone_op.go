package types

import "fmt"

// ZoneOp is a zone condition transition applied to a range of zones.
type ZoneOp uint32

const (
	ZoneOpReset  ZoneOp = 0x01
	ZoneOpOpen   ZoneOp = 0x02
	ZoneOpClose  ZoneOp = 0x03
	ZoneOpFinish ZoneOp = 0x04
)

func (op ZoneOp) String() string {
	switch op {
	case ZoneOpReset:
		return "reset"
	case ZoneOpOpen:
		return "open"
	case ZoneOpClose:
		return "close"
	case ZoneOpFinish:
		return "finish"
	}
	return fmt.Sprintf("op(0x%x)", uint32(op))
}

// Valid reports whether op is one of the four range commands.
func (op ZoneOp) Valid() bool {
	return op >= ZoneOpReset && op <= ZoneOpFinish
}

// Capabilities is the set of commands negotiated with a device when a session
// is opened.
type Capabilities struct {
	Reset  bool `json:"reset" yaml:"reset"`
	Open   bool `json:"open" yaml:"open"`
	Close  bool `json:"close" yaml:"close"`
	Finish bool `json:"finish" yaml:"finish"`

	// ZoneCapacity is set when zone reports carry a capacity distinct from
	// the zone length.
	ZoneCapacity bool `json:"zone_capacity" yaml:"zone_capacity"`
}

// AllCapabilities returns a capability set with every command available.
func AllCapabilities() Capabilities {
	return Capabilities{Reset: true, Open: true, Close: true, Finish: true, ZoneCapacity: true}
}

// Supports reports whether the device accepts op.
func (c Capabilities) Supports(op ZoneOp) bool {
	switch op {
	case ZoneOpReset:
		return c.Reset
	case ZoneOpOpen:
		return c.Open
	case ZoneOpClose:
		return c.Close
	case ZoneOpFinish:
		return c.Finish
	}
	return false
}
