package types

import (
	"fmt"
	"math/bits"
)

// DeviceModel is the zone model of a block device.
type DeviceModel uint32

const (
	DeviceModelHostManaged DeviceModel = 1
	DeviceModelHostAware   DeviceModel = 2
	DeviceModelNotZoned    DeviceModel = 3
)

func (m DeviceModel) String() string { return m.Name(false) }

// Name returns the long or short name of the zone model.
func (m DeviceModel) Name(short bool) string {
	switch m {
	case DeviceModelHostManaged:
		return pick(short, "host-managed", "HM")
	case DeviceModelHostAware:
		return pick(short, "host-aware", "HA")
	case DeviceModelNotZoned:
		return pick(short, "not-zoned", "NZ")
	}
	return pick(short, "unknown", "??")
}

// IsZoned reports whether the model describes a zoned device.
func (m DeviceModel) IsZoned() bool {
	return m == DeviceModelHostManaged || m == DeviceModelHostAware
}

// VendorIDLength is the size of the vendor identification field.
const VendorIDLength = 32

// LimitUnknown marks an open or active zone limit the device did not report.
const LimitUnknown uint32 = 0xFFFFFFFF

// DeviceInfo is the geometry of a zoned device, captured when a session is
// opened and immutable afterwards.
type DeviceInfo struct {
	VendorID string `json:"vendor_id" yaml:"vendor_id"`

	// NrSectors is the capacity in 512B sectors.
	NrSectors uint64 `json:"nr_sectors" yaml:"nr_sectors"`
	NrLBlocks uint64 `json:"nr_lblocks" yaml:"nr_lblocks"`
	NrPBlocks uint64 `json:"nr_pblocks" yaml:"nr_pblocks"`

	// ZoneSize is in bytes, ZoneSectors in 512B sectors.
	ZoneSize    uint64 `json:"zone_size" yaml:"zone_size"`
	ZoneSectors uint32 `json:"zone_sectors" yaml:"zone_sectors"`

	LBlockSize uint32 `json:"lblock_size" yaml:"lblock_size"`
	PBlockSize uint32 `json:"pblock_size" yaml:"pblock_size"`
	NrZones    uint32 `json:"nr_zones" yaml:"nr_zones"`

	// MaxOpenZones and MaxActiveZones are 0 when unlimited and
	// LimitUnknown when not reported.
	MaxOpenZones   uint32 `json:"max_nr_open_zones" yaml:"max_nr_open_zones"`
	MaxActiveZones uint32 `json:"max_nr_active_zones" yaml:"max_nr_active_zones"`

	Model DeviceModel `json:"model" yaml:"model"`
}

// Capacity returns the device capacity in bytes.
func (di DeviceInfo) Capacity() uint64 {
	return di.NrSectors << SectorShift
}

// Validate checks the geometry invariants every component relies on.
func (di *DeviceInfo) Validate() error {
	if !di.Model.IsZoned() {
		return fmt.Errorf("%w: model %s", ErrNotZoned, di.Model)
	}
	if di.NrSectors == 0 {
		return fmt.Errorf("invalid device capacity: 0 sectors")
	}
	if di.LBlockSize == 0 || di.PBlockSize == 0 {
		return fmt.Errorf("invalid block sizes: logical %d, physical %d", di.LBlockSize, di.PBlockSize)
	}
	if di.ZoneSectors == 0 || bits.OnesCount32(di.ZoneSectors) != 1 {
		return fmt.Errorf("invalid zone size: %d sectors is not a power of two", di.ZoneSectors)
	}
	if di.ZoneSize != uint64(di.ZoneSectors)<<SectorShift {
		return fmt.Errorf("zone size %d B does not match %d sectors", di.ZoneSize, di.ZoneSectors)
	}
	if di.NrZones == 0 {
		return fmt.Errorf("invalid 0 number of zones")
	}
	if uint64(di.NrZones)*uint64(di.ZoneSectors) < di.NrSectors {
		return fmt.Errorf("%d zones of %d sectors do not cover %d sectors",
			di.NrZones, di.ZoneSectors, di.NrSectors)
	}
	return nil
}

// SameGeometry reports whether two devices have identical capacity, block
// sizes, zone size and zone count.
func (di *DeviceInfo) SameGeometry(o *DeviceInfo) bool {
	return di.NrSectors == o.NrSectors &&
		di.NrLBlocks == o.NrLBlocks &&
		di.NrPBlocks == o.NrPBlocks &&
		di.LBlockSize == o.LBlockSize &&
		di.PBlockSize == o.PBlockSize &&
		di.ZoneSize == o.ZoneSize &&
		di.ZoneSectors == o.ZoneSectors &&
		di.NrZones == o.NrZones
}
