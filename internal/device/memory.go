package device

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/deploymenttheory/go-zbd/internal/interfaces"
	"github.com/deploymenttheory/go-zbd/internal/types"
)

// MemoryConfig describes the geometry of an emulated zoned device. Sizes are
// in 512B sectors.
type MemoryConfig struct {
	Path     string
	VendorID string
	Model    types.DeviceModel

	NrSectors   uint64
	ZoneSectors uint32
	// ZoneCapacity defaults to ZoneSectors.
	ZoneCapacity uint32
	// NrConvZones conventional zones are placed at the start of the device.
	NrConvZones uint32

	LBlockSize uint32
	PBlockSize uint32

	MaxOpenZones   uint32
	MaxActiveZones uint32

	// Capabilities defaults to every command when nil.
	Capabilities *types.Capabilities
}

// FaultFunc is consulted before every command. A non-nil error fails the
// command with that error.
type FaultFunc func(op string, sector uint64) error

type memZone struct {
	start, len, capacity, wp uint64
	typ                      types.ZoneType
	cond                     types.ZoneCondition
	data                     []byte
}

// MemoryDevice emulates a zoned block device in memory. It follows the ZBC
// zone condition state machine: writes must land on the write pointer of
// sequential zones, writing an empty or closed zone opens it implicitly, and
// open and active zone limits are enforced.
type MemoryDevice struct {
	mu sync.Mutex

	path  string
	info  types.DeviceInfo
	caps  types.Capabilities
	zones []memZone

	fault  FaultFunc
	closed bool

	maxOpenSeen   int
	maxActiveSeen int
	syncs         int
}

var _ interfaces.ZonedDevice = (*MemoryDevice)(nil)

// blkZone returns the zone as the kernel reports it. Conventional zones
// report their write pointer at the zone end.
func (z *memZone) blkZone() types.BlkZone {
	bz := types.BlkZone{
		Start:    z.start,
		Len:      z.len,
		WP:       z.wp,
		Capacity: z.capacity,
		Type:     uint8(z.typ),
		Cond:     uint8(z.cond),
	}
	if z.typ == types.ZoneTypeConventional {
		bz.WP = z.start + z.len
	}
	return bz
}

// NewMemoryDevice creates an emulated device with every sequential zone empty.
func NewMemoryDevice(cfg MemoryConfig) (*MemoryDevice, error) {
	if cfg.Model == 0 {
		cfg.Model = types.DeviceModelHostManaged
	}
	if cfg.LBlockSize == 0 {
		cfg.LBlockSize = types.SectorSize
	}
	if cfg.PBlockSize == 0 {
		cfg.PBlockSize = cfg.LBlockSize
	}
	if cfg.ZoneCapacity == 0 || cfg.ZoneCapacity > cfg.ZoneSectors {
		cfg.ZoneCapacity = cfg.ZoneSectors
	}
	if cfg.VendorID == "" {
		cfg.VendorID = "go-zbd memory device"
	}
	if cfg.Path == "" {
		cfg.Path = "memory"
	}
	if cfg.ZoneSectors == 0 {
		return nil, fmt.Errorf("invalid 0 zone size")
	}

	zoneSectors := uint64(cfg.ZoneSectors)
	nrZones := (cfg.NrSectors + zoneSectors - 1) / zoneSectors

	caps := types.AllCapabilities()
	if cfg.Capabilities != nil {
		caps = *cfg.Capabilities
	}

	dev := &MemoryDevice{
		path: cfg.Path,
		caps: caps,
		info: types.DeviceInfo{
			VendorID:       cfg.VendorID,
			NrSectors:      cfg.NrSectors,
			NrLBlocks:      (cfg.NrSectors << types.SectorShift) / uint64(cfg.LBlockSize),
			NrPBlocks:      (cfg.NrSectors << types.SectorShift) / uint64(cfg.PBlockSize),
			ZoneSize:       zoneSectors << types.SectorShift,
			ZoneSectors:    cfg.ZoneSectors,
			LBlockSize:     cfg.LBlockSize,
			PBlockSize:     cfg.PBlockSize,
			NrZones:        uint32(nrZones),
			MaxOpenZones:   cfg.MaxOpenZones,
			MaxActiveZones: cfg.MaxActiveZones,
			Model:          cfg.Model,
		},
	}
	if err := dev.info.Validate(); err != nil {
		return nil, err
	}

	dev.zones = make([]memZone, nrZones)
	for i := range dev.zones {
		z := &dev.zones[i]
		z.start = uint64(i) * zoneSectors
		z.len = min(zoneSectors, cfg.NrSectors-z.start)
		z.capacity = min(uint64(cfg.ZoneCapacity), z.len)
		z.wp = z.start
		if uint32(i) < cfg.NrConvZones {
			z.typ = types.ZoneTypeConventional
			z.cond = types.ZoneCondNotWP
			z.capacity = z.len
		} else {
			z.typ = types.ZoneTypeSeqWriteRequired
			z.cond = types.ZoneCondEmpty
		}
	}

	return dev, nil
}

func (d *MemoryDevice) Path() string                     { return d.path }
func (d *MemoryDevice) Info() types.DeviceInfo           { return d.info }
func (d *MemoryDevice) Capabilities() types.Capabilities { return d.caps }

// SetFault installs a fault injection hook. Passing nil removes it.
func (d *MemoryDevice) SetFault(fn FaultFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fault = fn
}

func (d *MemoryDevice) check(op string, sector uint64) error {
	if d.closed {
		return os.ErrClosed
	}
	if d.fault != nil {
		if err := d.fault(op, sector); err != nil {
			return err
		}
	}
	return nil
}

// ReportZones reports at most nrZones zones starting with the zone holding sector.
func (d *MemoryDevice) ReportZones(sector uint64, nrZones uint32) (*types.BlkZoneReport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.check("report zones", sector); err != nil {
		return nil, commandError("report zones", sector, err)
	}

	rep := &types.BlkZoneReport{}
	if d.caps.ZoneCapacity {
		rep.Flags |= types.BlkZoneRepCapacity
	}
	if sector >= d.info.NrSectors {
		return rep, nil
	}

	first := sector / uint64(d.info.ZoneSectors)
	last := min(first+uint64(nrZones), uint64(len(d.zones)))
	for i := first; i < last; i++ {
		z := &d.zones[i]
		bz := z.blkZone()
		if !d.caps.ZoneCapacity {
			bz.Capacity = 0
		}
		rep.Zones = append(rep.Zones, bz)
	}
	return rep, nil
}

// ManageZones applies op to the zones of [sector, sector+nrSectors). The
// range must be zone aligned, except that it may end at the device capacity.
func (d *MemoryDevice) ManageZones(op types.ZoneOp, sector, nrSectors uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !op.Valid() {
		return fmt.Errorf("invalid zone operation %s", op)
	}
	if err := d.check(op.String(), sector); err != nil {
		return commandError(op.String(), sector, err)
	}
	if !d.caps.Supports(op) {
		return commandError(op.String(), sector, unix.EOPNOTSUPP)
	}

	zoneSectors := uint64(d.info.ZoneSectors)
	end := sector + nrSectors
	if sector%zoneSectors != 0 || end > d.info.NrSectors ||
		(end%zoneSectors != 0 && end != d.info.NrSectors) {
		return commandError(op.String(), sector, unix.EINVAL)
	}

	for i := sector / zoneSectors; i < uint64(len(d.zones)) && d.zones[i].start < end; i++ {
		if err := d.apply(op, &d.zones[i]); err != nil {
			return commandError(op.String(), d.zones[i].start, err)
		}
		d.track()
	}
	return nil
}

func (d *MemoryDevice) apply(op types.ZoneOp, z *memZone) error {
	if z.typ == types.ZoneTypeConventional {
		if op == types.ZoneOpReset {
			return nil
		}
		return unix.EINVAL
	}
	if z.cond == types.ZoneCondOffline || z.cond == types.ZoneCondReadOnly {
		return unix.EINVAL
	}

	switch op {
	case types.ZoneOpReset:
		z.cond = types.ZoneCondEmpty
		z.wp = z.start
		clear(z.data)

	case types.ZoneOpOpen:
		switch z.cond {
		case types.ZoneCondExpOpen, types.ZoneCondFull:
			return nil
		}
		if err := d.acquire(z); err != nil {
			return err
		}
		z.cond = types.ZoneCondExpOpen

	case types.ZoneOpClose:
		if z.cond != types.ZoneCondImpOpen && z.cond != types.ZoneCondExpOpen {
			return nil
		}
		if z.wp == z.start {
			z.cond = types.ZoneCondEmpty
		} else {
			z.cond = types.ZoneCondClosed
		}

	case types.ZoneOpFinish:
		z.cond = types.ZoneCondFull
		z.wp = z.start + z.capacity
	}
	return nil
}

// acquire takes the open resource, and the active resource when needed, for
// a zone about to be opened. An implicitly open zone is closed to make room
// when the open limit is reached.
func (d *MemoryDevice) acquire(z *memZone) error {
	if z.cond == types.ZoneCondImpOpen || z.cond == types.ZoneCondExpOpen {
		return nil
	}

	open, active := d.counts()
	if z.cond == types.ZoneCondEmpty && d.limited(d.info.MaxActiveZones) &&
		active >= int(d.info.MaxActiveZones) {
		return unix.EOVERFLOW
	}
	if d.limited(d.info.MaxOpenZones) && open >= int(d.info.MaxOpenZones) {
		victim := d.implicitlyOpen(z)
		if victim == nil {
			return unix.ETOOMANYREFS
		}
		victim.cond = types.ZoneCondClosed
		if victim.wp == victim.start {
			victim.cond = types.ZoneCondEmpty
		}
	}
	return nil
}

func (d *MemoryDevice) limited(limit uint32) bool {
	return limit != 0 && limit != types.LimitUnknown
}

func (d *MemoryDevice) implicitlyOpen(skip *memZone) *memZone {
	for i := range d.zones {
		if z := &d.zones[i]; z != skip && z.cond == types.ZoneCondImpOpen {
			return z
		}
	}
	return nil
}

func (d *MemoryDevice) counts() (open, active int) {
	for i := range d.zones {
		switch d.zones[i].cond {
		case types.ZoneCondImpOpen, types.ZoneCondExpOpen:
			open++
			active++
		case types.ZoneCondClosed:
			active++
		}
	}
	return open, active
}

func (d *MemoryDevice) track() {
	open, active := d.counts()
	d.maxOpenSeen = max(d.maxOpenSeen, open)
	d.maxActiveSeen = max(d.maxActiveSeen, active)
}

// WriteAt writes p at byte offset off. Writes to sequential zones must start
// at the zone write pointer and fit in the zone capacity.
func (d *MemoryDevice) WriteAt(p []byte, off int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if off < 0 || off%types.SectorSize != 0 || len(p)%types.SectorSize != 0 {
		return 0, &types.DeviceIOError{Op: "write", Sector: uint64(max(off, 0)) >> types.SectorShift, Err: unix.EINVAL}
	}
	sector := uint64(off) >> types.SectorShift
	if err := d.check("write", sector); err != nil {
		return 0, &types.DeviceIOError{Op: "write", Sector: sector, Err: err}
	}

	n := 0
	for n < len(p) {
		if sector >= d.info.NrSectors {
			return n, &types.DeviceIOError{Op: "write", Sector: sector, Err: unix.ENOSPC}
		}
		z := &d.zones[sector/uint64(d.info.ZoneSectors)]
		count := min(uint64(len(p)-n)>>types.SectorShift, z.start+z.len-sector)

		if err := d.prepareWrite(z, sector, count); err != nil {
			return n, &types.DeviceIOError{Op: "write", Sector: sector, Err: err}
		}

		if z.data == nil {
			z.data = make([]byte, z.len<<types.SectorShift)
		}
		zoff := (sector - z.start) << types.SectorShift
		copy(z.data[zoff:], p[n:n+int(count<<types.SectorShift)])

		if z.typ != types.ZoneTypeConventional {
			z.wp += count
			if z.wp == z.start+z.capacity {
				z.cond = types.ZoneCondFull
			}
		}
		d.track()

		n += int(count << types.SectorShift)
		sector += count
	}
	return n, nil
}

func (d *MemoryDevice) prepareWrite(z *memZone, sector, count uint64) error {
	switch z.cond {
	case types.ZoneCondOffline, types.ZoneCondReadOnly:
		return unix.EIO
	}
	if z.typ == types.ZoneTypeConventional {
		return nil
	}
	if z.cond == types.ZoneCondFull || sector != z.wp || sector+count > z.start+z.capacity {
		return unix.EIO
	}
	if err := d.acquire(z); err != nil {
		return err
	}
	if z.cond != types.ZoneCondExpOpen {
		z.cond = types.ZoneCondImpOpen
	}
	return nil
}

// ReadAt reads from byte offset off. Unwritten blocks read as zeroes.
func (d *MemoryDevice) ReadAt(p []byte, off int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if off < 0 {
		return 0, &types.DeviceIOError{Op: "read", Err: unix.EINVAL}
	}
	if err := d.check("read", uint64(off)>>types.SectorShift); err != nil {
		return 0, &types.DeviceIOError{Op: "read", Sector: uint64(off) >> types.SectorShift, Err: err}
	}

	capacity := int64(d.info.Capacity())
	n := 0
	for n < len(p) && off < capacity {
		z := &d.zones[uint64(off)/d.info.ZoneSize]
		zoff := off - int64(z.start<<types.SectorShift)
		chunk := min(int64(len(p)-n), int64(z.len<<types.SectorShift)-zoff)
		if z.data == nil {
			clear(p[n : n+int(chunk)])
		} else {
			copy(p[n:n+int(chunk)], z.data[zoff:zoff+chunk])
		}
		n += int(chunk)
		off += chunk
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (d *MemoryDevice) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check("sync", 0); err != nil {
		return &types.DeviceIOError{Op: "sync", Err: err}
	}
	d.syncs++
	return nil
}

func (d *MemoryDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return os.ErrClosed
	}
	d.closed = true
	return nil
}

// Zone returns the current descriptor of zone i in bytes.
func (d *MemoryDevice) Zone(i int) types.Zone {
	d.mu.Lock()
	defer d.mu.Unlock()
	bz := d.zones[i].blkZone()
	return bz.Zone(true)
}

// SetCondition forces zone i into cond with its write pointer at wp bytes
// from the zone start. It bypasses resource limits and is meant for
// building device states such as offline or read-only zones.
func (d *MemoryDevice) SetCondition(i int, cond types.ZoneCondition, wp uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	z := &d.zones[i]
	z.cond = cond
	z.wp = z.start + wp>>types.SectorShift
	if cond == types.ZoneCondFull {
		z.wp = z.start + z.capacity
	}
}

// ZoneLimitsSeen returns the highest number of open and active zones
// observed since the device was created or ResetLimitsSeen was called.
func (d *MemoryDevice) ZoneLimitsSeen() (open, active int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxOpenSeen, d.maxActiveSeen
}

func (d *MemoryDevice) ResetLimitsSeen() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.maxOpenSeen, d.maxActiveSeen = d.counts()
}

// Syncs returns how many times Sync succeeded.
func (d *MemoryDevice) Syncs() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.syncs
}
