// Package snapshot encodes zone state snapshots in the zbd dump format and
// moves zone data between a device and a dump data file.
//
// A zone information dump is a 192 byte header followed by one 64 byte
// record per zone of the device. The header holds the 128 byte device
// information block and the range [zstart, zend) of zones whose data was
// saved. All fields are little endian.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-zbd/internal/types"
)

// On-disk sizes.
const (
	InfoSize       = 128
	HeaderSize     = 192
	ZoneRecordSize = 64
)

// Snapshot is the zone state of a whole device and the range of zones whose
// data accompanies it.
type Snapshot struct {
	Info types.DeviceInfo

	// ZoneStart and ZoneEnd bound the zones covered by the data file.
	ZoneStart uint32
	ZoneEnd   uint32

	// Zones holds every zone of the device in ascending start order.
	Zones []types.Zone
}

// Covered returns the zones of [ZoneStart, ZoneEnd).
func (s *Snapshot) Covered() []types.Zone {
	return s.Zones[s.ZoneStart:s.ZoneEnd]
}

// Validate checks the structural invariants of the snapshot.
func (s *Snapshot) Validate() error {
	if err := s.Info.Validate(); err != nil {
		return fmt.Errorf("%w: %w", types.ErrInvalidDump, err)
	}
	if uint32(len(s.Zones)) != s.Info.NrZones {
		return fmt.Errorf("%w: %d zone records for %d zones",
			types.ErrInvalidDump, len(s.Zones), s.Info.NrZones)
	}
	if s.ZoneStart > s.ZoneEnd || s.ZoneEnd > s.Info.NrZones {
		return fmt.Errorf("%w: zone range [%d, %d) outside %d zones",
			types.ErrInvalidDump, s.ZoneStart, s.ZoneEnd, s.Info.NrZones)
	}

	var next uint64
	for i := range s.Zones {
		if err := checkZone(&s.Zones[i], next); err != nil {
			return fmt.Errorf("%w: zone %d: %w", types.ErrInvalidDump, i, err)
		}
		next = s.Zones[i].End()
	}
	if next != s.Info.Capacity() {
		return fmt.Errorf("%w: zones end at %d, device capacity is %d",
			types.ErrInvalidDump, next, s.Info.Capacity())
	}
	return nil
}

// checkZone verifies a zone record starting at start. Only the write pointer
// of sequential zones that are neither full, read-only nor offline is used,
// so only that write pointer is checked.
func checkZone(z *types.Zone, start uint64) error {
	if z.Start != start {
		return fmt.Errorf("starts at %d instead of %d", z.Start, start)
	}
	if z.Len == 0 || z.Capacity > z.Len {
		return fmt.Errorf("invalid length %d or capacity %d", z.Len, z.Capacity)
	}
	if (z.Len|z.Capacity)%types.SectorSize != 0 {
		return fmt.Errorf("length %d or capacity %d not sector aligned", z.Len, z.Capacity)
	}

	switch z.Type {
	case types.ZoneTypeConventional:
		switch z.Cond {
		case types.ZoneCondNotWP, types.ZoneCondReadOnly, types.ZoneCondOffline:
			return nil
		}
	case types.ZoneTypeSeqWriteRequired, types.ZoneTypeSeqWritePreferred:
		switch z.Cond {
		case types.ZoneCondFull, types.ZoneCondReadOnly, types.ZoneCondOffline:
			return nil
		case types.ZoneCondEmpty, types.ZoneCondImpOpen, types.ZoneCondExpOpen, types.ZoneCondClosed:
			if z.WP < z.Start || z.WP > z.Start+z.Capacity || z.WP%types.SectorSize != 0 {
				return fmt.Errorf("write pointer %d outside [%d, %d]", z.WP, z.Start, z.Start+z.Capacity)
			}
			return nil
		}
	default:
		return fmt.Errorf("unknown zone type 0x%x", uint32(z.Type))
	}
	return fmt.Errorf("%s zone cannot be %s", z.Type.Name(true), z.Cond)
}

// MarshalBinary encodes the snapshot in the dump file format.
func (s *Snapshot) MarshalBinary() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	buf := make([]byte, HeaderSize+len(s.Zones)*ZoneRecordSize)
	putInfo(buf[:InfoSize], &s.Info)
	binary.LittleEndian.PutUint32(buf[128:132], s.ZoneStart)
	binary.LittleEndian.PutUint32(buf[132:136], s.ZoneEnd)

	for i := range s.Zones {
		off := HeaderSize + i*ZoneRecordSize
		putZone(buf[off:off+ZoneRecordSize], &s.Zones[i])
	}
	return buf, nil
}

// Decode parses a zone information dump.
func Decode(data []byte) (*Snapshot, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the %d byte header",
			types.ErrInvalidDump, len(data), HeaderSize)
	}

	s := &Snapshot{
		Info:      parseInfo(data[:InfoSize]),
		ZoneStart: binary.LittleEndian.Uint32(data[128:132]),
		ZoneEnd:   binary.LittleEndian.Uint32(data[132:136]),
	}

	payload := uint64(len(data) - HeaderSize)
	if payload != uint64(s.Info.NrZones)*ZoneRecordSize {
		return nil, fmt.Errorf("%w: %d bytes of zone records for %d zones",
			types.ErrInvalidDump, payload, s.Info.NrZones)
	}

	s.Zones = make([]types.Zone, s.Info.NrZones)
	for i := range s.Zones {
		off := HeaderSize + i*ZoneRecordSize
		s.Zones[i] = parseZone(data[off : off+ZoneRecordSize])
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func putInfo(b []byte, info *types.DeviceInfo) {
	vendor := info.VendorID
	if len(vendor) > types.VendorIDLength-1 {
		vendor = vendor[:types.VendorIDLength-1]
	}
	copy(b[0:types.VendorIDLength], vendor)

	binary.LittleEndian.PutUint64(b[32:40], info.NrSectors)
	binary.LittleEndian.PutUint64(b[40:48], info.NrLBlocks)
	binary.LittleEndian.PutUint64(b[48:56], info.NrPBlocks)
	binary.LittleEndian.PutUint64(b[56:64], info.ZoneSize)
	binary.LittleEndian.PutUint32(b[64:68], info.ZoneSectors)
	binary.LittleEndian.PutUint32(b[68:72], info.LBlockSize)
	binary.LittleEndian.PutUint32(b[72:76], info.PBlockSize)
	binary.LittleEndian.PutUint32(b[76:80], info.NrZones)
	binary.LittleEndian.PutUint32(b[80:84], info.MaxOpenZones)
	binary.LittleEndian.PutUint32(b[84:88], info.MaxActiveZones)
	binary.LittleEndian.PutUint32(b[88:92], uint32(info.Model))
}

func parseInfo(b []byte) types.DeviceInfo {
	vendor := b[0:types.VendorIDLength]
	if i := bytes.IndexByte(vendor, 0); i >= 0 {
		vendor = vendor[:i]
	}

	return types.DeviceInfo{
		VendorID:       string(vendor),
		NrSectors:      binary.LittleEndian.Uint64(b[32:40]),
		NrLBlocks:      binary.LittleEndian.Uint64(b[40:48]),
		NrPBlocks:      binary.LittleEndian.Uint64(b[48:56]),
		ZoneSize:       binary.LittleEndian.Uint64(b[56:64]),
		ZoneSectors:    binary.LittleEndian.Uint32(b[64:68]),
		LBlockSize:     binary.LittleEndian.Uint32(b[68:72]),
		PBlockSize:     binary.LittleEndian.Uint32(b[72:76]),
		NrZones:        binary.LittleEndian.Uint32(b[76:80]),
		MaxOpenZones:   binary.LittleEndian.Uint32(b[80:84]),
		MaxActiveZones: binary.LittleEndian.Uint32(b[84:88]),
		Model:          types.DeviceModel(binary.LittleEndian.Uint32(b[88:92])),
	}
}

func putZone(b []byte, z *types.Zone) {
	binary.LittleEndian.PutUint64(b[0:8], z.Start)
	binary.LittleEndian.PutUint64(b[8:16], z.Len)
	binary.LittleEndian.PutUint64(b[16:24], z.Capacity)
	binary.LittleEndian.PutUint64(b[24:32], z.WP)
	binary.LittleEndian.PutUint32(b[32:36], uint32(z.Flags))
	binary.LittleEndian.PutUint32(b[36:40], uint32(z.Type))
	binary.LittleEndian.PutUint32(b[40:44], uint32(z.Cond))
}

func parseZone(b []byte) types.Zone {
	return types.Zone{
		Start:    binary.LittleEndian.Uint64(b[0:8]),
		Len:      binary.LittleEndian.Uint64(b[8:16]),
		Capacity: binary.LittleEndian.Uint64(b[16:24]),
		WP:       binary.LittleEndian.Uint64(b[24:32]),
		Flags:    types.ZoneFlags(binary.LittleEndian.Uint32(b[32:36])),
		Type:     types.ZoneType(binary.LittleEndian.Uint32(b[36:40])),
		Cond:     types.ZoneCondition(binary.LittleEndian.Uint32(b[40:44])),
	}
}
