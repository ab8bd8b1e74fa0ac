// Package zones implements the zone management core: byte range to zone
// range translation, paged zone reports and zone range commands.
package zones

import (
	"fmt"

	"github.com/deploymenttheory/go-zbd/internal/types"
)

// SectorRange is a half-open range of 512B sectors.
type SectorRange struct {
	Start uint64
	End   uint64
}

// Empty reports whether the range addresses no zone.
func (r SectorRange) Empty() bool { return r.Start >= r.End }

// Sectors returns the range length.
func (r SectorRange) Sectors() uint64 {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start
}

// CheckAlignment rejects negative or non 512B aligned offsets and lengths.
func CheckAlignment(offset, length int64) error {
	if offset < 0 || length < 0 {
		return fmt.Errorf("%w: negative offset %d or length %d", types.ErrAlignment, offset, length)
	}
	if offset%types.SectorSize != 0 || length%types.SectorSize != 0 {
		return fmt.Errorf("%w: offset %d, length %d", types.ErrAlignment, offset, length)
	}
	return nil
}

// Translate maps the byte range [offset, offset+length) to the range of
// sectors of the zones it touches, clipped to the device capacity. A zero
// length means up to the end of the device. An offset past the last zone
// yields the zero range.
func Translate(info *types.DeviceInfo, offset, length int64) (SectorRange, error) {
	if err := CheckAlignment(offset, length); err != nil {
		return SectorRange{}, err
	}

	ofst := uint64(offset)
	size := uint64(length)
	if size == 0 {
		size = info.Capacity()
	}

	mask := info.ZoneSize - 1
	end := ((ofst + size + mask) &^ mask) >> types.SectorShift
	if end > info.NrSectors {
		end = info.NrSectors
	}

	start := (ofst &^ mask) >> types.SectorShift
	if start >= info.NrSectors {
		return SectorRange{}, nil
	}

	return SectorRange{Start: start, End: end}, nil
}

// ZoneIndexRange returns the half-open range of zone numbers touched by
// [offset, offset+length). A zero length means up to the end of the device.
func ZoneIndexRange(info *types.DeviceInfo, offset, length int64) (zstart, zend uint32, err error) {
	if err := CheckAlignment(offset, length); err != nil {
		return 0, 0, err
	}

	ofst := uint64(offset)
	size := uint64(length)
	if size == 0 {
		size = info.Capacity()
	}

	first := ofst / info.ZoneSize
	last := (ofst + size + info.ZoneSize - 1) / info.ZoneSize
	nrZones := uint64(info.NrZones)

	return uint32(min(first, nrZones)), uint32(min(last, nrZones)), nil
}
