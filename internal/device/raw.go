package device

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-zbd/internal/types"
)

// MaxReportZones bounds the zones requested from the kernel in one report.
const MaxReportZones = 8192

// newReportBuffer allocates a blk_zone_report header followed by room for
// nrZones blk_zone entries and fills in the query.
func newReportBuffer(sector uint64, nrZones uint32) []byte {
	buf := make([]byte, types.BlkZoneReportSize+int(nrZones)*types.BlkZoneSize)
	binary.NativeEndian.PutUint64(buf[0:8], sector)
	binary.NativeEndian.PutUint32(buf[8:12], nrZones)
	return buf
}

// parseReportBuffer decodes a blk_zone_report filled in by the kernel.
func parseReportBuffer(buf []byte) (*types.BlkZoneReport, error) {
	if len(buf) < types.BlkZoneReportSize {
		return nil, fmt.Errorf("zone report buffer too small: %d bytes", len(buf))
	}

	nrZones := binary.NativeEndian.Uint32(buf[8:12])
	rep := &types.BlkZoneReport{
		Flags: binary.NativeEndian.Uint32(buf[12:16]),
	}

	room := (len(buf) - types.BlkZoneReportSize) / types.BlkZoneSize
	if int(nrZones) > room {
		return nil, fmt.Errorf("zone report claims %d zones, buffer holds %d", nrZones, room)
	}

	rep.Zones = make([]types.BlkZone, nrZones)
	for i := range rep.Zones {
		off := types.BlkZoneReportSize + i*types.BlkZoneSize
		rep.Zones[i] = parseBlkZone(buf[off : off+types.BlkZoneSize])
	}

	return rep, nil
}

// parseBlkZone decodes one 64-byte struct blk_zone.
func parseBlkZone(data []byte) types.BlkZone {
	return types.BlkZone{
		Start:    binary.NativeEndian.Uint64(data[0:8]),
		Len:      binary.NativeEndian.Uint64(data[8:16]),
		WP:       binary.NativeEndian.Uint64(data[16:24]),
		Type:     data[24],
		Cond:     data[25],
		NonSeq:   data[26],
		Reset:    data[27],
		Capacity: binary.NativeEndian.Uint64(data[32:40]),
	}
}

// putBlkZone encodes one struct blk_zone. Used to build synthetic reports.
func putBlkZone(data []byte, bz *types.BlkZone) {
	binary.NativeEndian.PutUint64(data[0:8], bz.Start)
	binary.NativeEndian.PutUint64(data[8:16], bz.Len)
	binary.NativeEndian.PutUint64(data[16:24], bz.WP)
	data[24] = bz.Type
	data[25] = bz.Cond
	data[26] = bz.NonSeq
	data[27] = bz.Reset
	binary.NativeEndian.PutUint64(data[32:40], bz.Capacity)
}

// rangeBuffer encodes a struct blk_zone_range.
func rangeBuffer(sector, nrSectors uint64) [16]byte {
	var buf [16]byte
	binary.NativeEndian.PutUint64(buf[0:8], sector)
	binary.NativeEndian.PutUint64(buf[8:16], nrSectors)
	return buf
}
