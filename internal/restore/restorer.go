// Package restore replays a zone state snapshot onto a zoned device.
//
// Zones are restored one condition at a time: every sequential zone of the
// covered range is first reset, then conventional and full zones get their
// data back, then closed zones, explicitly open zones and last implicitly
// open zones. Besides the final state, the device only ever holds the one
// zone being written. Both are checked against the device limits before
// anything is written.
package restore

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-zbd/internal/device"
	"github.com/deploymenttheory/go-zbd/internal/interfaces"
	"github.com/deploymenttheory/go-zbd/internal/snapshot"
	"github.com/deploymenttheory/go-zbd/internal/types"
	"github.com/deploymenttheory/go-zbd/internal/zones"
)

// Restorer replays snapshots onto a device.
type Restorer struct {
	dev        interfaces.ZonedDevice
	reporter   *zones.Reporter
	dispatcher *zones.Dispatcher
	bufferSize int
	logger     *zap.Logger
}

func New(dev interfaces.ZonedDevice, reporter *zones.Reporter, dispatcher *zones.Dispatcher,
	bufferSize int, logger *zap.Logger) *Restorer {
	if bufferSize <= 0 {
		bufferSize = snapshot.DefaultBufferSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Restorer{
		dev:        dev,
		reporter:   reporter,
		dispatcher: dispatcher,
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// Stats summarizes a restore.
type Stats struct {
	ResetZones    int
	RestoredZones int
	RestoredBytes int64
	Projected     Resources
	Peak          Resources
}

// Check verifies that s can be restored onto the device from a data file of
// dataSize bytes, and returns the current zones of the device and the
// resources they will hold after the restore.
func (r *Restorer) Check(s *snapshot.Snapshot, dataSize int64) ([]types.Zone, Resources, error) {
	info := r.dev.Info()

	if err := s.Validate(); err != nil {
		return nil, Resources{}, err
	}

	if dataSize < 0 || uint64(dataSize) < info.Capacity() {
		return nil, Resources{}, fmt.Errorf("%w: zone data is %d bytes, device capacity is %d",
			types.ErrIncompatibleSnapshot, dataSize, info.Capacity())
	}

	target, err := r.reporter.Report(0, 0, types.ReportAll, 0)
	if err != nil {
		return nil, Resources{}, fmt.Errorf("zone report failed: %w", err)
	}

	if err := CheckCompatibility(s, &info, target); err != nil {
		return nil, Resources{}, err
	}

	proj := Project(s, target)
	peak := Peak(s, target)
	unchecked, err := CheckResources(peak, &info)
	if err != nil {
		return nil, proj, err
	}
	for _, name := range unchecked {
		r.logger.Warn("device does not report its zone limit, not checking it",
			zap.String("limit", name),
			zap.Int("open", peak.Open),
			zap.Int("active", peak.Active))
	}

	return target, proj, nil
}

type restorePass struct {
	name    string
	selects func(z *types.Zone) bool
	then    types.ZoneOp
}

var restorePasses = []restorePass{
	{
		name:    "conventional and full zones",
		selects: func(z *types.Zone) bool { return z.IsConventional() || z.IsFull() },
		then:    types.ZoneOpFinish,
	},
	{
		name:    "closed zones",
		selects: (*types.Zone).IsClosed,
		then:    types.ZoneOpClose,
	},
	{
		name:    "explicitly open zones",
		selects: (*types.Zone).IsExpOpen,
		then:    types.ZoneOpOpen,
	},
	{
		name:    "implicitly open zones",
		selects: (*types.Zone).IsImpOpen,
	},
}

// Restore replays s onto the device, reading zone data from data. All
// checks run before the device is modified. A failure after that leaves the
// covered zones in an undefined state.
func (r *Restorer) Restore(s *snapshot.Snapshot, data io.ReaderAt, dataSize int64) (*Stats, error) {
	target, proj, err := r.Check(s, dataSize)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Projected: proj, Peak: Peak(s, target)}

	r.logger.Info("restoring zones",
		zap.Uint32("zone_start", s.ZoneStart),
		zap.Uint32("zone_end", s.ZoneEnd),
		zap.Int("open", proj.Open),
		zap.Int("active", proj.Active))

	for i := s.ZoneStart; i < s.ZoneEnd; i++ {
		tz := &target[i]
		if tz.IsConventional() || tz.IsEmpty() || tz.IsOffline() {
			continue
		}
		r.logger.Debug("reset zone", zap.Uint32("zone", i), zap.Stringer("cond", tz.Cond))
		if err := r.dispatcher.Operate(types.ZoneOpReset, int64(tz.Start), int64(tz.Len)); err != nil {
			return stats, fmt.Errorf("reset zone %d failed: %w", i, err)
		}
		stats.ResetZones++
	}

	buf := device.AlignedBuffer(r.bufferSize)
	for _, p := range restorePasses {
		r.logger.Debug("restore pass", zap.String("pass", p.name))

		for i := s.ZoneStart; i < s.ZoneEnd; i++ {
			sz := &s.Zones[i]
			if sz.IsOffline() || !p.selects(sz) {
				continue
			}
			if err := r.restoreZone(i, sz, p.then, data, buf, stats); err != nil {
				return stats, err
			}
		}
	}

	if err := r.dev.Sync(); err != nil {
		return stats, fmt.Errorf("sync failed: %w", err)
	}

	r.logger.Info("restore complete",
		zap.Int("zones", stats.RestoredZones),
		zap.Int64("bytes", stats.RestoredBytes))

	return stats, nil
}

func (r *Restorer) restoreZone(i uint32, sz *types.Zone, then types.ZoneOp,
	data io.ReaderAt, buf []byte, stats *Stats) error {
	if sz.IsImpOpen() && sz.WP == sz.Start {
		return nil
	}

	n, err := snapshot.CopyZone(r.dev, data, sz, buf)
	if err != nil {
		return fmt.Errorf("restore zone %d data failed: %w", i, err)
	}

	switch {
	case then == 0:
	case then == types.ZoneOpFinish && !sz.IsSequential():
	case then == types.ZoneOpFinish && !r.dev.Capabilities().Finish:
		// Writing up to the zone capacity already made the zone full.
	default:
		if err := r.dispatcher.Operate(then, int64(sz.Start), int64(sz.Len)); err != nil {
			return fmt.Errorf("%s zone %d failed: %w", then, i, err)
		}
	}

	r.logger.Debug("restored zone",
		zap.Uint32("zone", i),
		zap.Stringer("cond", sz.Cond),
		zap.Int64("bytes", n))

	stats.RestoredZones++
	stats.RestoredBytes += n
	return nil
}
