package types

// BlkZone mirrors struct blk_zone from linux/blkzoned.h. Positions are in
// 512B sectors.
type BlkZone struct {
	Start    uint64
	Len      uint64
	WP       uint64
	Type     uint8
	Cond     uint8
	NonSeq   uint8
	Reset    uint8
	Capacity uint64
}

// Size of the raw kernel structures.
const (
	BlkZoneSize       = 64
	BlkZoneReportSize = 16
)

// BlkZoneRepCapacity is set in blk_zone_report.flags when zone capacity is valid.
const BlkZoneRepCapacity = 1 << 0

// BlkZoneReport is one chunk of zones returned by a report query.
type BlkZoneReport struct {
	Flags uint32
	Zones []BlkZone
}

// HasCapacity reports whether the zone capacity fields are meaningful.
func (r *BlkZoneReport) HasCapacity() bool {
	return r.Flags&BlkZoneRepCapacity != 0
}

// Zone converts a raw kernel zone into a byte based descriptor. Without a
// valid capacity field the capacity equals the zone length.
func (bz *BlkZone) Zone(hasCapacity bool) Zone {
	z := Zone{
		Start: bz.Start << SectorShift,
		Len:   bz.Len << SectorShift,
		WP:    bz.WP << SectorShift,
		Type:  ZoneType(bz.Type),
		Cond:  ZoneCondition(bz.Cond),
	}
	if hasCapacity {
		z.Capacity = bz.Capacity << SectorShift
	} else {
		z.Capacity = z.Len
	}
	if bz.Reset != 0 {
		z.Flags |= ZoneFlagResetRecommended
	}
	if bz.NonSeq != 0 {
		z.Flags |= ZoneFlagNonSeqResources
	}
	return z
}
