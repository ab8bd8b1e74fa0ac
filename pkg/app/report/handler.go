package report

import (
	"os"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-zbd/internal/services"
	"github.com/deploymenttheory/go-zbd/internal/types"
	"github.com/deploymenttheory/go-zbd/pkg/app"
)

// Handle processes a report request. Regular files are read as zone
// information dumps, anything else is opened as a zoned block device.
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	p, err := req.parse()
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(req.Path)
	if err != nil {
		return nil, app.NewError(app.ErrCodeDeviceAccess, "cannot access "+req.Path, err)
	}

	var (
		info   types.DeviceInfo
		zs     []types.Zone
		source string
	)
	if fi.Mode().IsRegular() {
		ctx.Log("reporting zones from dump file", zap.String("file", req.Path))
		source = SourceDump

		snap, dumped, err := services.ReportDump(req.Path, p.offset, p.length, p.option)
		if err != nil {
			return nil, app.WrapError("read zone information dump failed", err)
		}
		info, zs = snap.Info, dumped
		if req.MaxZones > 0 && len(zs) > int(req.MaxZones) {
			zs = zs[:req.MaxZones]
		}
	} else {
		ctx.Log("reporting zones", zap.String("device", req.Path), zap.Stringer("option", p.option))
		source = SourceDevice

		h, opened, err := ctx.Sessions.Open(req.Path, false)
		if err != nil {
			return nil, app.WrapError("open "+req.Path+" failed", err)
		}
		defer ctx.Sessions.Close(h)

		info = opened
		if zs, err = ctx.Sessions.Report(h, p.offset, p.length, p.option, req.MaxZones); err != nil {
			return nil, app.WrapError("zone report failed", err)
		}
	}

	if uint64(p.unit) > info.ZoneSize {
		return nil, app.NewError(app.ErrCodeInvalidInput, "unit is larger than the zone size", nil)
	}

	resp := &Response{
		Device:       DeviceInfo{Path: req.Path, DeviceInfo: info},
		Source:       source,
		Option:       p.option.String(),
		Unit:         p.unit,
		NrZones:      len(zs),
		CountOnly:    req.CountOnly,
		CapacityOnly: req.CapacityOnly,
	}
	for _, z := range zs {
		resp.TotalCapacity += z.Capacity / uint64(p.unit)
	}
	if !req.CountOnly && !req.CapacityOnly {
		resp.Zones = make([]ZoneResult, 0, len(zs))
		for _, z := range zs {
			resp.Zones = append(resp.Zones, newZoneResult(z, info.ZoneSize, p.unit))
		}
	}

	ctx.Log("report complete", zap.Int("zones", resp.NrZones))
	return resp, nil
}

// HandleInfo opens a device, or reads a dump file, and returns its geometry.
func HandleInfo(ctx *app.Context, path string) (*DeviceInfo, error) {
	if path == "" {
		return nil, app.NewError(app.ErrCodeInvalidInput, "device path is required", nil)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, app.NewError(app.ErrCodeDeviceAccess, "cannot access "+path, err)
	}

	if fi.Mode().IsRegular() {
		snap, _, err := services.ReportDump(path, 0, 0, types.ReportAll)
		if err != nil {
			return nil, app.WrapError("read zone information dump failed", err)
		}
		return &DeviceInfo{Path: path, DeviceInfo: snap.Info}, nil
	}

	h, info, err := ctx.Sessions.Open(path, false)
	if err != nil {
		return nil, app.WrapError("open "+path+" failed", err)
	}
	defer ctx.Sessions.Close(h)

	return &DeviceInfo{Path: path, DeviceInfo: info}, nil
}
