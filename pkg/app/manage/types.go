package manage

import (
	"github.com/deploymenttheory/go-zbd/internal/types"
	"github.com/deploymenttheory/go-zbd/pkg/app"
)

// OperationRequest asks for a zone condition transition over a range of zones
type OperationRequest struct {
	DevicePath string
	Op         types.ZoneOp
	Range      app.ZoneRange
}

// OperationResponse describes the zones an operation was applied to
type OperationResponse struct {
	Device    string `json:"device" yaml:"device"`
	Operation string `json:"operation" yaml:"operation"`
	Offset    int64  `json:"offset" yaml:"offset"`
	Length    int64  `json:"length" yaml:"length"`
	ZoneStart uint32 `json:"zone_start" yaml:"zone_start"`
	ZoneEnd   uint32 `json:"zone_end" yaml:"zone_end"`
}

// DumpRequest asks for a zone information and data dump
type DumpRequest struct {
	DevicePath string
	Range      app.ZoneRange
	Dir        string
	Prefix     string
}

// DumpResponse describes the dump files written
type DumpResponse struct {
	Device      string `json:"device" yaml:"device"`
	InfoFile    string `json:"info_file" yaml:"info_file"`
	DataFile    string `json:"data_file" yaml:"data_file"`
	ZoneStart   uint32 `json:"zone_start" yaml:"zone_start"`
	ZoneEnd     uint32 `json:"zone_end" yaml:"zone_end"`
	DumpedZones int    `json:"dumped_zones" yaml:"dumped_zones"`
	DumpedBytes int64  `json:"dumped_bytes" yaml:"dumped_bytes"`
}

// RestoreRequest asks for a dump to be replayed onto a device
type RestoreRequest struct {
	DevicePath string
	Dir        string
	Prefix     string
}

// RestoreResponse summarizes a restore
type RestoreResponse struct {
	Device        string `json:"device" yaml:"device"`
	InfoFile      string `json:"info_file" yaml:"info_file"`
	DataFile      string `json:"data_file" yaml:"data_file"`
	ResetZones    int    `json:"reset_zones" yaml:"reset_zones"`
	RestoredZones int    `json:"restored_zones" yaml:"restored_zones"`
	RestoredBytes int64  `json:"restored_bytes" yaml:"restored_bytes"`
	OpenZones     int    `json:"open_zones" yaml:"open_zones"`
	ActiveZones   int    `json:"active_zones" yaml:"active_zones"`
}
