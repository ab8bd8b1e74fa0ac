package report

import (
	"github.com/deploymenttheory/go-zbd/internal/types"
	"github.com/deploymenttheory/go-zbd/pkg/app"
)

// params is a validated request.
type params struct {
	offset int64
	length int64
	option types.ReportOption
	unit   int64
}

// Validate validates a report request
func (r *Request) Validate() error {
	_, err := r.parse()
	return err
}

func (r *Request) parse() (*params, error) {
	if r.Path == "" {
		return nil, app.NewError(app.ErrCodeInvalidInput, "device path is required", nil)
	}

	offset, length, err := r.Range.Parse()
	if err != nil {
		return nil, app.NewError(app.ErrCodeInvalidInput, "invalid zone range", err)
	}
	if offset%types.SectorSize != 0 || length%types.SectorSize != 0 {
		return nil, app.NewError(app.ErrCodeInvalidInput, "invalid unaligned offset/length", types.ErrAlignment)
	}

	ro, err := types.ParseReportOption(r.Option)
	if err != nil {
		return nil, app.NewError(app.ErrCodeInvalidInput, "invalid report option", err)
	}

	unit := int64(1)
	if r.Unit != "" {
		if unit, err = app.ParseSize(r.Unit); err != nil {
			return nil, app.NewError(app.ErrCodeInvalidInput, "invalid unit", err)
		}
	}
	if unit < 1 || (unit > 1 && unit%types.SectorSize != 0) {
		return nil, app.NewError(app.ErrCodeInvalidInput, "unit must be 1 or a multiple of 512", nil)
	}

	return &params{offset: offset, length: length, option: ro, unit: unit}, nil
}
