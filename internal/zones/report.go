package zones

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-zbd/internal/device"
	"github.com/deploymenttheory/go-zbd/internal/interfaces"
	"github.com/deploymenttheory/go-zbd/internal/types"
)

// MaxReportResults is the largest zone array a single report may return.
const MaxReportResults = 1 << 22

// Reporter pages through the zone table of a device.
type Reporter struct {
	dev        interfaces.ZonedDevice
	chunkZones uint32
	logger     *zap.Logger
}

// NewReporter creates a reporter querying at most chunkZones zones per
// device request. A zero chunkZones uses the kernel ceiling.
func NewReporter(dev interfaces.ZonedDevice, chunkZones uint32, logger *zap.Logger) *Reporter {
	if chunkZones == 0 || chunkZones > device.MaxReportZones {
		chunkZones = device.MaxReportZones
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{dev: dev, chunkZones: chunkZones, logger: logger}
}

// Report returns the zones of [offset, offset+length) matching ro, at most
// maxZones of them. A zero maxZones returns every matching zone up to
// MaxReportResults.
func (r *Reporter) Report(offset, length int64, ro types.ReportOption, maxZones uint32) ([]types.Zone, error) {
	info := r.dev.Info()

	if maxZones > MaxReportResults {
		return nil, fmt.Errorf("%w: %d zones requested, limit is %d", types.ErrNoMemory, maxZones, MaxReportResults)
	}
	if maxZones == 0 {
		maxZones = min(info.NrZones, MaxReportResults)
	}

	rng, err := Translate(&info, offset, length)
	if err != nil {
		return nil, err
	}

	expected := rng.Sectors() / uint64(info.ZoneSectors)
	zones := make([]types.Zone, 0, min(uint64(maxZones), expected+1))
	if _, err := r.walk(rng, ro, maxZones, func(z *types.Zone) {
		zones = append(zones, *z)
	}); err != nil {
		return nil, err
	}
	return zones, nil
}

// Count returns the number of zones of [offset, offset+length) matching ro.
func (r *Reporter) Count(offset, length int64, ro types.ReportOption) (uint32, error) {
	info := r.dev.Info()
	rng, err := Translate(&info, offset, length)
	if err != nil {
		return 0, err
	}
	return r.walk(rng, ro, 0, nil)
}

// List counts the matching zones first and then fetches exactly that many.
func (r *Reporter) List(offset, length int64, ro types.ReportOption) ([]types.Zone, error) {
	n, err := r.Count(offset, length, ro)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return r.Report(offset, length, ro, n)
}

// walk queries the device chunk by chunk, each chunk starting at the end of
// the last zone returned by the previous one, and hands matching zones to fn.
// A zero maxZones means no limit.
func (r *Reporter) walk(rng SectorRange, ro types.ReportOption, maxZones uint32, fn func(*types.Zone)) (uint32, error) {
	chunk := r.chunkZones
	if maxZones != 0 && maxZones < chunk {
		chunk = maxZones
	}

	var n uint32
	sector := rng.Start
	for (maxZones == 0 || n < maxZones) && sector < rng.End {
		rep, err := r.dev.ReportZones(sector, chunk)
		if err != nil {
			return 0, err
		}

		r.logger.Debug("zone report chunk",
			zap.Uint64("sector", sector),
			zap.Int("zones", len(rep.Zones)))

		if len(rep.Zones) == 0 {
			break
		}

		for i := range rep.Zones {
			if (maxZones != 0 && n >= maxZones) || sector >= rng.End {
				break
			}

			bz := &rep.Zones[i]
			next := bz.Start + bz.Len
			if next <= sector {
				return 0, fmt.Errorf("zone report at sector %d did not advance (zone %d+%d)",
					sector, bz.Start, bz.Len)
			}

			z := bz.Zone(rep.HasCapacity())
			if ro.Matches(&z) {
				if fn != nil {
					fn(&z)
				}
				n++
			}
			sector = next
		}
	}

	return n, nil
}
