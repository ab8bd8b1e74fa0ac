package report

import (
	"fmt"

	"github.com/deploymenttheory/go-zbd/internal/types"
	"github.com/deploymenttheory/go-zbd/pkg/app"
)

// Request represents a zone report request
type Request struct {
	// Path is a zoned block device or a zone information dump file.
	Path  string
	Range app.ZoneRange

	// Option is a short report option name such as "em" or "fu".
	Option string
	// Unit divides every position and size shown, "1" by default.
	Unit string

	CountOnly    bool
	CapacityOnly bool
	MaxZones     uint32
}

// Source of the reported zones.
const (
	SourceDevice = "device"
	SourceDump   = "dump"
)

// Response represents report results
type Response struct {
	Device DeviceInfo `json:"device" yaml:"device"`
	Source string     `json:"source" yaml:"source"`
	Option string     `json:"report_option" yaml:"report_option"`
	Unit   int64      `json:"unit" yaml:"unit"`

	Zones         []ZoneResult `json:"zones,omitempty" yaml:"zones,omitempty"`
	NrZones       int          `json:"nr_zones" yaml:"nr_zones"`
	TotalCapacity uint64       `json:"total_capacity" yaml:"total_capacity"`

	CountOnly    bool `json:"-" yaml:"-"`
	CapacityOnly bool `json:"-" yaml:"-"`
}

// DeviceInfo represents the geometry of the reported device
type DeviceInfo struct {
	Path             string `json:"path" yaml:"path"`
	types.DeviceInfo `yaml:",inline"`
}

// ZoneResult is one reported zone. Positions and sizes are in Response.Unit.
type ZoneResult struct {
	Number   uint64 `json:"zone" yaml:"zone"`
	Type     string `json:"type" yaml:"type"`
	Start    uint64 `json:"start" yaml:"start"`
	Len      uint64 `json:"len" yaml:"len"`
	Capacity uint64 `json:"capacity" yaml:"capacity"`
	WP       uint64 `json:"wp" yaml:"wp"`
	Cond     string `json:"cond" yaml:"cond"`
	NonSeq   bool   `json:"non_seq" yaml:"non_seq"`
	Reset    bool   `json:"reset" yaml:"reset"`

	zone types.Zone
}

func newZoneResult(z types.Zone, zoneSize uint64, unit int64) ZoneResult {
	u := uint64(unit)
	return ZoneResult{
		Number:   z.Start / zoneSize,
		Type:     z.Type.Name(true),
		Start:    z.Start / u,
		Len:      z.Len / u,
		Capacity: z.Capacity / u,
		WP:       z.WP / u,
		Cond:     z.Cond.Name(true),
		NonSeq:   z.Flags.NonSeqResources(),
		Reset:    z.Flags.ResetRecommended(),
		zone:     z,
	}
}

// Line formats the zone the way it is printed in a table report.
func (zr *ZoneResult) Line() string {
	z := &zr.zone
	switch {
	case z.IsConventional():
		return fmt.Sprintf("Zone %05d: %s, ofst %014d, len %014d, cap %014d",
			zr.Number, zr.Type, zr.Start, zr.Len, zr.Capacity)
	case z.IsSequential():
		return fmt.Sprintf("Zone %05d: %s, ofst %014d, len %014d, cap %014d, wp %014d, %s, non_seq %d, reset %d",
			zr.Number, zr.Type, zr.Start, zr.Len, zr.Capacity, zr.WP, zr.Cond, btoi(zr.NonSeq), btoi(zr.Reset))
	}
	return fmt.Sprintf("Zone %05d: unknown type 0x%x, ofst %014d, len %014d",
		zr.Number, uint32(z.Type), zr.Start, zr.Len)
}

// CSV formats the zone as a CSV record with numeric type and condition.
func (zr *ZoneResult) CSV() string {
	z := &zr.zone
	return fmt.Sprintf("%05d, %d, %014d, %014d, %014d, %014d, 0x%x, %d, %d",
		zr.Number, uint32(z.Type), zr.Start, zr.Len, zr.Capacity, zr.WP,
		uint32(z.Cond), btoi(zr.NonSeq), btoi(zr.Reset))
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
