package manage

import (
	"go.uber.org/zap"

	"github.com/deploymenttheory/go-zbd/internal/zones"
	"github.com/deploymenttheory/go-zbd/pkg/app"
)

// HandleOperation applies a zone operation to the zones of a device range
func HandleOperation(ctx *app.Context, req *OperationRequest) (*OperationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	offset, length, _ := parseRange(&req.Range)

	h, info, err := ctx.Sessions.Open(req.DevicePath, true)
	if err != nil {
		return nil, app.WrapError("open "+req.DevicePath+" failed", err)
	}
	defer ctx.Sessions.Close(h)

	resp := &OperationResponse{
		Device:    req.DevicePath,
		Operation: req.Op.String(),
		Offset:    offset,
	}

	length = clampRange(&info, offset, length)
	if length == 0 {
		ctx.Log("range is past the device capacity, nothing to do", zap.Int64("offset", offset))
		return resp, nil
	}
	if err := checkZoneAligned(&info, offset, length); err != nil {
		return nil, err
	}

	resp.Length = length
	if resp.ZoneStart, resp.ZoneEnd, err = zones.ZoneIndexRange(&info, offset, length); err != nil {
		return nil, app.WrapError("invalid zone range", err)
	}

	ctx.Log("zone operation",
		zap.String("op", resp.Operation),
		zap.Uint32("zone_start", resp.ZoneStart),
		zap.Uint32("zone_end", resp.ZoneEnd))

	if err := ctx.Sessions.Operate(h, req.Op, offset, length); err != nil {
		return nil, app.WrapError("zone operation failed", err)
	}
	return resp, nil
}

// HandleDump saves the zone information of a device and the data of the
// zones of a range
func HandleDump(ctx *app.Context, req *DumpRequest) (*DumpResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	offset, length, _ := parseRange(&req.Range)

	h, _, err := ctx.Sessions.Open(req.DevicePath, false)
	if err != nil {
		return nil, app.WrapError("open "+req.DevicePath+" failed", err)
	}
	defer ctx.Sessions.Close(h)

	files := ctx.Sessions.DumpFiles(req.DevicePath, req.Dir, req.Prefix)
	ctx.Log("dumping zones", zap.String("info", files.Info), zap.String("data", files.Data))

	res, err := ctx.Sessions.Dump(h, offset, length, files)
	if err != nil {
		return nil, app.WrapError("dump failed", err)
	}

	return &DumpResponse{
		Device:      req.DevicePath,
		InfoFile:    files.Info,
		DataFile:    files.Data,
		ZoneStart:   res.ZoneStart,
		ZoneEnd:     res.ZoneEnd,
		DumpedZones: res.DumpedZones,
		DumpedBytes: res.DumpedBytes,
	}, nil
}

// HandleRestore replays a dump onto a device
func HandleRestore(ctx *app.Context, req *RestoreRequest) (*RestoreResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	h, _, err := ctx.Sessions.Open(req.DevicePath, true)
	if err != nil {
		return nil, app.WrapError("open "+req.DevicePath+" failed", err)
	}
	defer ctx.Sessions.Close(h)

	files := ctx.Sessions.DumpFiles(req.DevicePath, req.Dir, req.Prefix)
	ctx.Log("restoring zones", zap.String("info", files.Info), zap.String("data", files.Data))

	stats, err := ctx.Sessions.Restore(h, files)
	if err != nil {
		return nil, app.WrapError("restore failed", err)
	}

	return &RestoreResponse{
		Device:        req.DevicePath,
		InfoFile:      files.Info,
		DataFile:      files.Data,
		ResetZones:    stats.ResetZones,
		RestoredZones: stats.RestoredZones,
		RestoredBytes: stats.RestoredBytes,
		OpenZones:     stats.Projected.Open,
		ActiveZones:   stats.Projected.Active,
	}, nil
}
