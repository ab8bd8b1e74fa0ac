// Package types holds the zoned block device data model: device geometry,
// zone descriptors and the raw structures exchanged with the kernel.
package types

// SectorShift converts between 512-byte sectors and bytes.
const SectorShift = 9

// SectorSize is the fixed unit in which the kernel expresses zone positions.
const SectorSize = 1 << SectorShift

// ZoneType identifies the write model of a zone.
type ZoneType uint32

const (
	// ZoneTypeConventional zones have no write pointer and accept random writes.
	ZoneTypeConventional ZoneType = 0x1
	// ZoneTypeSeqWriteRequired zones must be written at the write pointer.
	ZoneTypeSeqWriteRequired ZoneType = 0x2
	// ZoneTypeSeqWritePreferred zones should be written at the write pointer.
	ZoneTypeSeqWritePreferred ZoneType = 0x3
)

// ZoneCondition is the lifecycle state of a zone.
type ZoneCondition uint32

const (
	ZoneCondNotWP    ZoneCondition = 0x0
	ZoneCondEmpty    ZoneCondition = 0x1
	ZoneCondImpOpen  ZoneCondition = 0x2
	ZoneCondExpOpen  ZoneCondition = 0x3
	ZoneCondClosed   ZoneCondition = 0x4
	ZoneCondReadOnly ZoneCondition = 0xD
	ZoneCondFull     ZoneCondition = 0xE
	ZoneCondOffline  ZoneCondition = 0xF
)

// ZoneFlags is the set of advisory zone attributes reported by the device.
type ZoneFlags uint32

const (
	// ZoneFlagResetRecommended is set when the device asks for a write pointer reset.
	ZoneFlagResetRecommended ZoneFlags = 1 << 0
	// ZoneFlagNonSeqResources is set when the zone uses non-sequential write resources.
	ZoneFlagNonSeqResources ZoneFlags = 1 << 1
)

// ResetRecommended reports whether the reset-recommended flag is set.
func (f ZoneFlags) ResetRecommended() bool { return f&ZoneFlagResetRecommended != 0 }

// NonSeqResources reports whether the non-sequential-resources flag is set.
func (f ZoneFlags) NonSeqResources() bool { return f&ZoneFlagNonSeqResources != 0 }

// Zone is a zone descriptor with all positions expressed in bytes.
type Zone struct {
	Start    uint64        `json:"start" yaml:"start"`
	Len      uint64        `json:"len" yaml:"len"`
	Capacity uint64        `json:"capacity" yaml:"capacity"`
	WP       uint64        `json:"wp" yaml:"wp"`
	Flags    ZoneFlags     `json:"flags" yaml:"flags"`
	Type     ZoneType      `json:"type" yaml:"type"`
	Cond     ZoneCondition `json:"cond" yaml:"cond"`
}

// End returns the byte offset following the zone.
func (z *Zone) End() uint64 { return z.Start + z.Len }

func (z *Zone) IsConventional() bool { return z.Type == ZoneTypeConventional }

// IsSequential reports whether the zone has a write pointer.
func (z *Zone) IsSequential() bool {
	return z.Type == ZoneTypeSeqWriteRequired || z.Type == ZoneTypeSeqWritePreferred
}

func (z *Zone) IsEmpty() bool    { return z.Cond == ZoneCondEmpty }
func (z *Zone) IsImpOpen() bool  { return z.Cond == ZoneCondImpOpen }
func (z *Zone) IsExpOpen() bool  { return z.Cond == ZoneCondExpOpen }
func (z *Zone) IsClosed() bool   { return z.Cond == ZoneCondClosed }
func (z *Zone) IsFull() bool     { return z.Cond == ZoneCondFull }
func (z *Zone) IsReadOnly() bool { return z.Cond == ZoneCondReadOnly }
func (z *Zone) IsOffline() bool  { return z.Cond == ZoneCondOffline }

// IsOpen reports whether the zone holds an open resource.
func (z *Zone) IsOpen() bool { return z.IsImpOpen() || z.IsExpOpen() }

// IsActive reports whether the zone holds an active resource (open or closed).
func (z *Zone) IsActive() bool { return z.IsOpen() || z.IsClosed() }

// DataEnd returns the end offset of the valid data held by the zone: the write
// pointer for a sequential zone that is not full, the end of the writable
// capacity otherwise.
func (z *Zone) DataEnd() uint64 {
	if z.IsSequential() && !z.IsFull() {
		return z.WP
	}
	return z.Start + z.Capacity
}

func (t ZoneType) String() string { return t.Name(false) }

// Name returns the long name, or the short name when short is set.
func (t ZoneType) Name(short bool) string {
	switch t {
	case ZoneTypeConventional:
		return pick(short, "conventional", "cnv")
	case ZoneTypeSeqWriteRequired:
		return pick(short, "seq-write-required", "swr")
	case ZoneTypeSeqWritePreferred:
		return pick(short, "seq-write-preferred", "swp")
	}
	return pick(short, "unknown", "???")
}

func (c ZoneCondition) String() string { return c.Name(false) }

// Name returns the long name, or the short name when short is set.
func (c ZoneCondition) Name(short bool) string {
	switch c {
	case ZoneCondNotWP:
		return pick(short, "not-write-pointer", "nw")
	case ZoneCondEmpty:
		return pick(short, "empty", "em")
	case ZoneCondFull:
		return pick(short, "full", "fu")
	case ZoneCondImpOpen:
		return pick(short, "open-implicit", "oi")
	case ZoneCondExpOpen:
		return pick(short, "open-explicit", "oe")
	case ZoneCondClosed:
		return pick(short, "closed", "cl")
	case ZoneCondReadOnly:
		return pick(short, "read-only", "ro")
	case ZoneCondOffline:
		return pick(short, "offline", "ol")
	}
	return pick(short, "unknown", "??")
}

func pick(short bool, long, abbr string) string {
	if short {
		return abbr
	}
	return long
}
