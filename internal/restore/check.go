package restore

import (
	"fmt"

	"github.com/deploymenttheory/go-zbd/internal/snapshot"
	"github.com/deploymenttheory/go-zbd/internal/types"
)

// Resources counts zones holding open and active resources. Active zones
// are the open zones plus the closed ones.
type Resources struct {
	Open   int
	Active int
}

func (r *Resources) add(cond types.ZoneCondition) {
	switch cond {
	case types.ZoneCondImpOpen, types.ZoneCondExpOpen:
		r.Open++
		r.Active++
	case types.ZoneCondClosed:
		r.Active++
	}
}

// Project returns the resources the target will hold once s is restored:
// zones of the covered range take their snapshot condition, the others
// keep their current condition.
func Project(s *snapshot.Snapshot, target []types.Zone) Resources {
	var res Resources
	for i := range target {
		if uint32(i) >= s.ZoneStart && uint32(i) < s.ZoneEnd {
			res.add(s.Zones[i].Cond)
		} else {
			res.add(target[i].Cond)
		}
	}
	return res
}

// Peak returns the highest resource use reached while s is restored. The
// data of a full or closed zone is written while the zone is implicitly
// open, on top of the resources held by the zones outside the covered range,
// before the zone is finished or closed.
func Peak(s *snapshot.Snapshot, target []types.Zone) Resources {
	var outside Resources
	for i := range target {
		if uint32(i) < s.ZoneStart || uint32(i) >= s.ZoneEnd {
			outside.add(target[i].Cond)
		}
	}

	peak := Project(s, target)
	for _, z := range s.Covered() {
		if !z.IsSequential() || z.DataEnd() == z.Start {
			continue
		}
		switch {
		case z.IsFull():
			peak.Open = max(peak.Open, outside.Open+1)
			peak.Active = max(peak.Active, outside.Active+1)
		case z.IsClosed():
			peak.Open = max(peak.Open, outside.Open+1)
		}
	}
	return peak
}

// CheckCompatibility verifies that s can be replayed on a device with the
// given geometry and current zones.
func CheckCompatibility(s *snapshot.Snapshot, info *types.DeviceInfo, target []types.Zone) error {
	if !s.Info.SameGeometry(info) {
		return fmt.Errorf("%w: device geometry differs from the dumped device", types.ErrIncompatibleSnapshot)
	}
	if uint32(len(target)) != info.NrZones || len(s.Zones) != len(target) {
		return fmt.Errorf("%w: %d zones reported, %d dumped",
			types.ErrIncompatibleSnapshot, len(target), len(s.Zones))
	}

	for i := range target {
		sz, tz := &s.Zones[i], &target[i]
		if sz.Type != tz.Type || sz.Start != tz.Start || sz.Len != tz.Len || sz.Capacity != tz.Capacity {
			return fmt.Errorf("%w: zone %d: dumped %s zone %d+%d (capacity %d), device has %s zone %d+%d (capacity %d)",
				types.ErrIncompatibleSnapshot, i,
				sz.Type.Name(true), sz.Start, sz.Len, sz.Capacity,
				tz.Type.Name(true), tz.Start, tz.Len, tz.Capacity)
		}
	}

	for i := s.ZoneStart; i < s.ZoneEnd; i++ {
		sz, tz := &s.Zones[i], &target[i]
		if tz.IsOffline() && !sz.IsOffline() {
			return fmt.Errorf("%w: zone %d is offline", types.ErrIncompatibleSnapshot, i)
		}
		if tz.IsReadOnly() {
			return fmt.Errorf("%w: zone %d is read-only", types.ErrIncompatibleSnapshot, i)
		}
		if sz.IsReadOnly() {
			return fmt.Errorf("%w: zone %d was read-only when dumped and has no data to restore",
				types.ErrIncompatibleSnapshot, i)
		}
	}
	return nil
}

// CheckResources rejects a restore whose resource needs exceed the device
// limits. A zero limit means no limit. It returns the limits that
// could not be checked because the device does not report them.
func CheckResources(need Resources, info *types.DeviceInfo) (unchecked []string, err error) {
	limits := []struct {
		name  string
		limit uint32
		need  int
	}{
		{"open", info.MaxOpenZones, need.Open},
		{"active", info.MaxActiveZones, need.Active},
	}

	for _, l := range limits {
		switch {
		case l.limit == types.LimitUnknown:
			unchecked = append(unchecked, l.name)
		case l.limit != 0 && uint32(l.need) > l.limit:
			return unchecked, fmt.Errorf("%w: restore needs %d %s zones, device allows %d",
				types.ErrResourceLimitExceeded, l.need, l.name, l.limit)
		}
	}
	return unchecked, nil
}
