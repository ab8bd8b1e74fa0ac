// File: internal/interfaces/zoned_device.go
package interfaces

import (
	"io"

	"github.com/deploymenttheory/go-zbd/internal/types"
)

// ZoneReporter queries zone state from a device.
type ZoneReporter interface {
	// ReportZones returns at most nrZones zones starting with the zone that
	// contains sector. An empty report means there are no zones past sector.
	ReportZones(sector uint64, nrZones uint32) (*types.BlkZoneReport, error)
}

// ZoneManager applies zone condition transitions.
type ZoneManager interface {
	// ManageZones applies op to every zone of the sector range
	// [sector, sector+nrSectors). Device rejections are returned as is.
	ManageZones(op types.ZoneOp, sector, nrSectors uint64) error
}

// ZonedDeviceInfo describes the device behind an open session.
type ZonedDeviceInfo interface {
	// Path returns the system path the device was opened from.
	Path() string

	// Info returns the geometry captured when the device was opened.
	Info() types.DeviceInfo

	// Capabilities returns the zone commands negotiated at open time.
	Capabilities() types.Capabilities
}

// ZonedDevice is the complete command set consumed by the zone management core.
type ZonedDevice interface {
	io.ReaderAt
	io.WriterAt
	ZoneReporter
	ZoneManager
	ZonedDeviceInfo

	// Sync flushes written data to stable storage.
	Sync() error

	io.Closer
}
