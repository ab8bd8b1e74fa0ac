package manage

import (
	"github.com/deploymenttheory/go-zbd/internal/types"
	"github.com/deploymenttheory/go-zbd/pkg/app"
)

// Validate validates an operation request
func (r *OperationRequest) Validate() error {
	if r.DevicePath == "" {
		return app.NewError(app.ErrCodeInvalidInput, "device path is required", nil)
	}
	if !r.Op.Valid() {
		return app.NewError(app.ErrCodeInvalidInput, "invalid zone operation "+r.Op.String(), nil)
	}
	_, _, err := parseRange(&r.Range)
	return err
}

// Validate validates a dump request
func (r *DumpRequest) Validate() error {
	if r.DevicePath == "" {
		return app.NewError(app.ErrCodeInvalidInput, "device path is required", nil)
	}
	_, _, err := parseRange(&r.Range)
	return err
}

// Validate validates a restore request
func (r *RestoreRequest) Validate() error {
	if r.DevicePath == "" {
		return app.NewError(app.ErrCodeInvalidInput, "device path is required", nil)
	}
	return nil
}

func parseRange(zr *app.ZoneRange) (offset, length int64, err error) {
	offset, length, err = zr.Parse()
	if err != nil {
		return 0, 0, app.NewError(app.ErrCodeInvalidInput, "invalid zone range", err)
	}
	if offset%types.SectorSize != 0 || length%types.SectorSize != 0 {
		return 0, 0, app.NewError(app.ErrCodeInvalidInput, "invalid unaligned offset/length", types.ErrAlignment)
	}
	return offset, length, nil
}

// clampRange limits [offset, offset+length) to the device capacity. A zero
// length selects everything up to the capacity.
func clampRange(info *types.DeviceInfo, offset, length int64) int64 {
	capacity := int64(info.Capacity())
	if offset >= capacity {
		return 0
	}
	if length == 0 || offset+length > capacity {
		length = capacity - offset
	}
	return length
}

// checkZoneAligned rejects ranges that do not start and end on zone
// boundaries, the device capacity counting as one. Zone commands issued from
// the command line must name whole zones.
func checkZoneAligned(info *types.DeviceInfo, offset, length int64) error {
	zs := int64(info.ZoneSize)
	end := offset + length
	if offset%zs != 0 || (end%zs != 0 && end != int64(info.Capacity())) {
		return app.NewError(app.ErrCodeInvalidInput, "invalid unaligned offset/length", types.ErrAlignment)
	}
	return nil
}
