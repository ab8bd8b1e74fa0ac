//go:build linux

package device

import (
	"fmt"
	"os"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/deploymenttheory/go-zbd/internal/interfaces"
	"github.com/deploymenttheory/go-zbd/internal/types"
)

// Block layer ioctls from linux/fs.h and linux/blkzoned.h.
const (
	blkSSZGet     = 0x1268     // _IO(0x12, 104)
	blkPBSZGet    = 0x127B     // _IO(0x12, 123)
	blkGetSize64  = 0x80081272 // _IOR(0x12, 114, size_t)
	blkReportZone = 0xC0101282 // _IOWR(0x12, 130, struct blk_zone_report)
	blkResetZone  = 0x40101283 // _IOW(0x12, 131, struct blk_zone_range)
	blkGetZoneSz  = 0x80041284 // _IOR(0x12, 132, __u32)
	blkGetNrZones = 0x80041285 // _IOR(0x12, 133, __u32)
	blkOpenZone   = 0x40101286 // _IOW(0x12, 134, struct blk_zone_range)
	blkCloseZone  = 0x40101287 // _IOW(0x12, 135, struct blk_zone_range)
	blkFinishZone = 0x40101288 // _IOW(0x12, 136, struct blk_zone_range)
)

// BlockDevice is a zoned block device driven through the kernel zoned
// block device ioctls.
type BlockDevice struct {
	file   *os.File
	path   string
	info   types.DeviceInfo
	caps   types.Capabilities
	logger *zap.Logger
}

var _ interfaces.ZonedDevice = (*BlockDevice)(nil)

// Open opens the zoned block device at path and reads its geometry.
func Open(path string, opts OpenOptions) (interfaces.ZonedDevice, error) {
	logger := opts.logger()

	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if fi.Mode()&os.ModeDevice == 0 || fi.Mode()&os.ModeCharDevice != 0 {
		return nil, fmt.Errorf("%w: %s is not a block device", types.ErrNotZoned, path)
	}

	flags := os.O_RDONLY
	if opts.Writable {
		flags = os.O_RDWR
	}
	if opts.Direct {
		flags |= unix.O_DIRECT
	}

	file, err := os.OpenFile(path, flags, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	dev := &BlockDevice{file: file, path: path, logger: logger}
	if err := dev.loadGeometry(); err != nil {
		file.Close()
		return nil, err
	}

	logger.Debug("opened zoned block device",
		zap.String("path", path),
		zap.Stringer("model", dev.info.Model),
		zap.Uint32("nr_zones", dev.info.NrZones),
		zap.Uint64("zone_size", dev.info.ZoneSize),
		zap.Bool("direct", opts.Direct))

	return dev, nil
}

func (d *BlockDevice) loadGeometry() error {
	dir, err := sysfsDir(d.path)
	if err != nil {
		return err
	}

	model, err := readModel(dir)
	if err != nil {
		return fmt.Errorf("failed to get zone model of %s: %w", d.path, err)
	}
	if !model.IsZoned() {
		return fmt.Errorf("%w: %s", types.ErrNotZoned, d.path)
	}

	var lblock, pblock, zoneSectors, nrZones uint32
	var size uint64
	if err := d.ioctl(blkSSZGet, unsafe.Pointer(&lblock)); err != nil {
		return fmt.Errorf("failed to get logical block size: %w", err)
	}
	if err := d.ioctl(blkPBSZGet, unsafe.Pointer(&pblock)); err != nil {
		return fmt.Errorf("failed to get physical block size: %w", err)
	}
	if err := d.ioctl(blkGetSize64, unsafe.Pointer(&size)); err != nil {
		return fmt.Errorf("failed to get capacity: %w", err)
	}

	if err := d.ioctl(blkGetZoneSz, unsafe.Pointer(&zoneSectors)); err != nil || zoneSectors == 0 {
		chunk, serr := readUintAttr(dir, "queue/chunk_sectors")
		if serr != nil {
			return fmt.Errorf("failed to get zone size: %w", serr)
		}
		zoneSectors = uint32(chunk)
	}
	if zoneSectors == 0 {
		return fmt.Errorf("invalid 0 zone size")
	}

	if err := d.ioctl(blkGetNrZones, unsafe.Pointer(&nrZones)); err != nil || nrZones == 0 {
		if n, serr := readUintAttr(dir, "queue/nr_zones"); serr == nil && n > 0 {
			nrZones = uint32(n)
		} else {
			nrSectors := size >> types.SectorShift
			nrZones = uint32((nrSectors + uint64(zoneSectors) - 1) / uint64(zoneSectors))
		}
	}

	var uts unix.Utsname
	release := ""
	if err := unix.Uname(&uts); err == nil {
		release = unix.ByteSliceToString(uts.Release[:])
	}

	d.caps = capabilitiesForRelease(release)
	d.info = types.DeviceInfo{
		VendorID:       readVendorID(dir),
		NrSectors:      size >> types.SectorShift,
		NrLBlocks:      size / uint64(lblock),
		NrPBlocks:      size / uint64(pblock),
		ZoneSize:       uint64(zoneSectors) << types.SectorShift,
		ZoneSectors:    zoneSectors,
		LBlockSize:     lblock,
		PBlockSize:     pblock,
		NrZones:        nrZones,
		MaxOpenZones:   readZoneLimit(dir, "queue/max_open_zones"),
		MaxActiveZones: readZoneLimit(dir, "queue/max_active_zones"),
		Model:          model,
	}

	if err := d.info.Validate(); err != nil {
		return fmt.Errorf("invalid geometry for %s: %w", d.path, err)
	}
	return nil
}

func (d *BlockDevice) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.file.Fd(), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// ReportZones issues a single BLKREPORTZONE query.
func (d *BlockDevice) ReportZones(sector uint64, nrZones uint32) (*types.BlkZoneReport, error) {
	if nrZones > MaxReportZones {
		nrZones = MaxReportZones
	}
	buf := newReportBuffer(sector, nrZones)
	if err := d.ioctl(blkReportZone, unsafe.Pointer(&buf[0])); err != nil {
		return nil, commandError("report zones", sector, err)
	}
	return parseReportBuffer(buf)
}

// ManageZones issues the range ioctl matching op.
func (d *BlockDevice) ManageZones(op types.ZoneOp, sector, nrSectors uint64) error {
	var req uintptr
	switch op {
	case types.ZoneOpReset:
		req = blkResetZone
	case types.ZoneOpOpen:
		req = blkOpenZone
	case types.ZoneOpClose:
		req = blkCloseZone
	case types.ZoneOpFinish:
		req = blkFinishZone
	default:
		return fmt.Errorf("invalid zone operation %s", op)
	}

	rng := rangeBuffer(sector, nrSectors)
	if err := d.ioctl(req, unsafe.Pointer(&rng[0])); err != nil {
		d.logger.Debug("zone operation failed",
			zap.Stringer("op", op),
			zap.Uint64("sector", sector),
			zap.Uint64("nr_sectors", nrSectors),
			zap.Error(err))
		return commandError(op.String(), sector, err)
	}
	return nil
}

func (d *BlockDevice) ReadAt(p []byte, off int64) (int, error) {
	n, err := d.file.ReadAt(p, off)
	return n, transferError("read", off, err)
}

func (d *BlockDevice) WriteAt(p []byte, off int64) (int, error) {
	n, err := d.file.WriteAt(p, off)
	return n, transferError("write", off, err)
}

func (d *BlockDevice) Sync() error {
	if err := unix.Fsync(int(d.file.Fd())); err != nil {
		return &types.DeviceIOError{Op: "sync", Err: err}
	}
	return nil
}

func (d *BlockDevice) Path() string                     { return d.path }
func (d *BlockDevice) Info() types.DeviceInfo           { return d.info }
func (d *BlockDevice) Capabilities() types.Capabilities { return d.caps }

func (d *BlockDevice) Close() error {
	return d.file.Close()
}
