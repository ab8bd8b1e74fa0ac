package snapshot

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-zbd/internal/device"
	"github.com/deploymenttheory/go-zbd/internal/interfaces"
	"github.com/deploymenttheory/go-zbd/internal/types"
	"github.com/deploymenttheory/go-zbd/internal/zones"
)

// Capture reports every zone of the device and records [zstart, zend) as
// the range covered by the data file.
func Capture(reporter *zones.Reporter, info types.DeviceInfo, zstart, zend uint32) (*Snapshot, error) {
	all, err := reporter.Report(0, 0, types.ReportAll, 0)
	if err != nil {
		return nil, fmt.Errorf("zone report failed: %w", err)
	}
	if uint32(len(all)) != info.NrZones {
		return nil, fmt.Errorf("invalid number of zones: expected %d, got %d", info.NrZones, len(all))
	}

	s := &Snapshot{Info: info, ZoneStart: zstart, ZoneEnd: zend, Zones: all}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ExtractData writes the data of the covered zones of s, read from src, to
// the data file at path. The file is sized to the device capacity so that
// every zone lives at its absolute device offset.
func ExtractData(path string, src io.ReaderAt, s *Snapshot, buf []byte) (nrZones int, nrBytes int64, err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, 0, fmt.Errorf("create zone data file %s failed: %w", path, err)
	}
	defer f.Close()

	if err := f.Truncate(int64(s.Info.Capacity())); err != nil {
		return 0, 0, fmt.Errorf("truncate zone data file %s failed: %w", path, err)
	}

	covered := s.Covered()
	for i := range covered {
		n, err := CopyZone(f, src, &covered[i], buf)
		if err != nil {
			return nrZones, nrBytes, fmt.Errorf("zone %d: %w", int(s.ZoneStart)+i, err)
		}
		if n > 0 {
			nrZones++
			nrBytes += n
		}
	}

	if err := f.Sync(); err != nil {
		return nrZones, nrBytes, fmt.Errorf("fsync zone data file %s failed: %w", path, err)
	}
	return nrZones, nrBytes, f.Close()
}

// DefaultBufferSize is the zone data transfer size.
const DefaultBufferSize = 1024 * 1024

// DumpResult summarizes a dump.
type DumpResult struct {
	Files       Files
	ZoneStart   uint32
	ZoneEnd     uint32
	DumpedZones int
	DumpedBytes int64
}

// Dumper saves the zone state and zone data of a device.
type Dumper struct {
	dev        interfaces.ZonedDevice
	reporter   *zones.Reporter
	bufferSize int
	logger     *zap.Logger
}

func NewDumper(dev interfaces.ZonedDevice, reporter *zones.Reporter, bufferSize int, logger *zap.Logger) *Dumper {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dumper{dev: dev, reporter: reporter, bufferSize: bufferSize, logger: logger}
}

// Dump saves the information of all zones and the data of the zones touched
// by [offset, offset+length). A zero length means up to the end of the device.
func (d *Dumper) Dump(offset, length int64, files Files) (*DumpResult, error) {
	info := d.dev.Info()

	zstart, zend, err := zones.ZoneIndexRange(&info, offset, length)
	if err != nil {
		return nil, err
	}

	s, err := Capture(d.reporter, info, zstart, zend)
	if err != nil {
		return nil, err
	}

	d.logger.Info("dumping zone data",
		zap.String("file", files.Data),
		zap.Uint32("zone_start", zstart),
		zap.Uint32("zone_end", zend))

	nrZones, nrBytes, err := ExtractData(files.Data, d.dev, s, device.AlignedBuffer(d.bufferSize))
	if err != nil {
		return nil, err
	}

	d.logger.Info("dumping zone information", zap.String("file", files.Info))
	if err := WriteInfoFile(files.Info, s); err != nil {
		return nil, err
	}

	return &DumpResult{
		Files:       files,
		ZoneStart:   zstart,
		ZoneEnd:     zend,
		DumpedZones: nrZones,
		DumpedBytes: nrBytes,
	}, nil
}

// Report filters the zones of a snapshot touched by [offset,
// offset+length), the way a device report would.
func (s *Snapshot) Report(offset, length int64, ro types.ReportOption) ([]types.Zone, error) {
	zstart, zend, err := zones.ZoneIndexRange(&s.Info, offset, length)
	if err != nil {
		return nil, err
	}

	var out []types.Zone
	for i := zstart; i < zend; i++ {
		if ro.Matches(&s.Zones[i]) {
			out = append(out, s.Zones[i])
		}
	}
	return out, nil
}
