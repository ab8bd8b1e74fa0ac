package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-zbd/internal/config"
	"github.com/deploymenttheory/go-zbd/internal/device"
	"github.com/deploymenttheory/go-zbd/internal/interfaces"
	"github.com/deploymenttheory/go-zbd/internal/types"
	"github.com/deploymenttheory/go-zbd/pkg/app"
)

const zoneBytes = 64 * 1024

// persistentDevice survives session close so several requests can share it.
type persistentDevice struct {
	*device.MemoryDevice
}

func (persistentDevice) Close() error { return nil }

// newTestContext returns a context whose sessions open dev for devPath. The
// path is a directory so it is not mistaken for a dump file.
func newTestContext(t *testing.T, dev *device.MemoryDevice) (*app.Context, string) {
	t.Helper()
	devPath := t.TempDir()

	cfg := config.Default()
	cfg.Dump.Dir = t.TempDir()
	ctx := app.NewContext(cfg, nil)
	ctx.Sessions.WithOpenFunc(func(path string, opts device.OpenOptions) (interfaces.ZonedDevice, error) {
		if path != devPath {
			return nil, types.ErrNotZoned
		}
		return persistentDevice{dev}, nil
	})
	return ctx, devPath
}

// newDevice returns 8 zones of 64KiB: a conventional zone, a full zone, a
// closed zone with 8KiB written and five empty zones.
func newDevice(t *testing.T) *device.MemoryDevice {
	t.Helper()
	dev, err := device.NewMemoryDevice(device.MemoryConfig{
		NrSectors:    8 * 128,
		ZoneSectors:  128,
		NrConvZones:  1,
		MaxOpenZones: 4,
	})
	require.NoError(t, err)

	_, err = dev.WriteAt(bytes.Repeat([]byte{1}, zoneBytes), zoneBytes)
	require.NoError(t, err)
	_, err = dev.WriteAt(bytes.Repeat([]byte{2}, 8192), 2*zoneBytes)
	require.NoError(t, err)
	require.NoError(t, dev.ManageZones(types.ZoneOpClose, 2*128, 128))
	return dev
}

func TestHandle(t *testing.T) {
	dev := newDevice(t)
	ctx, devPath := newTestContext(t, dev)

	tests := []struct {
		name     string
		request  *Request
		wantErr  bool
		validate func(*testing.T, *Response)
	}{
		{
			name:    "all zones",
			request: &Request{Path: devPath},
			validate: func(t *testing.T, resp *Response) {
				assert.Equal(t, SourceDevice, resp.Source)
				assert.Equal(t, "all", resp.Option)
				assert.Equal(t, 8, resp.NrZones)
				require.Len(t, resp.Zones, 8)
				assert.Equal(t, "cnv", resp.Zones[0].Type)
				assert.Equal(t, "cl", resp.Zones[2].Cond)
				assert.Equal(t, uint64(2*zoneBytes+8192), resp.Zones[2].WP)
				assert.Equal(t, uint64(8*zoneBytes), resp.TotalCapacity)
			},
		},
		{
			name:    "partial range with unit",
			request: &Request{Path: devPath, Range: app.ZoneRange{Offset: "64k", Length: "100k"}, Unit: "4k"},
			validate: func(t *testing.T, resp *Response) {
				require.Len(t, resp.Zones, 2)
				assert.Equal(t, uint64(1), resp.Zones[0].Number)
				assert.Equal(t, uint64(16), resp.Zones[0].Start)
				assert.Equal(t, uint64(16), resp.Zones[0].Len)
				assert.Equal(t, uint64(32+2), resp.Zones[1].WP)
				assert.Equal(t, uint64(32), resp.TotalCapacity)
			},
		},
		{
			name:    "empty zones count",
			request: &Request{Path: devPath, Option: "em", CountOnly: true},
			validate: func(t *testing.T, resp *Response) {
				assert.Equal(t, 5, resp.NrZones)
				assert.Empty(t, resp.Zones)
			},
		},
		{
			name:    "max zones",
			request: &Request{Path: devPath, MaxZones: 3},
			validate: func(t *testing.T, resp *Response) {
				assert.Equal(t, 3, resp.NrZones)
			},
		},
		{
			name:    "past capacity",
			request: &Request{Path: devPath, Range: app.ZoneRange{Offset: "1g"}},
			validate: func(t *testing.T, resp *Response) {
				assert.Zero(t, resp.NrZones)
			},
		},
		{
			name:    "unknown option",
			request: &Request{Path: devPath, Option: "xx"},
			wantErr: true,
		},
		{
			name:    "unaligned offset",
			request: &Request{Path: devPath, Range: app.ZoneRange{Offset: "100"}},
			wantErr: true,
		},
		{
			name:    "unit not a sector multiple",
			request: &Request{Path: devPath, Unit: "1000"},
			wantErr: true,
		},
		{
			name:    "unit larger than zone",
			request: &Request{Path: devPath, Unit: "1m"},
			wantErr: true,
		},
		{
			name:    "missing path",
			request: &Request{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Handle(ctx, tt.request)
			if tt.wantErr {
				var ce *app.CommonError
				assert.ErrorAs(t, err, &ce)
				return
			}
			require.NoError(t, err)
			tt.validate(t, resp)
		})
	}

	assert.Zero(t, ctx.Sessions.Len(), "sessions are closed after each request")
}

func TestHandleDumpFile(t *testing.T) {
	dev := newDevice(t)
	ctx, devPath := newTestContext(t, dev)

	h, _, err := ctx.Sessions.Open(devPath, false)
	require.NoError(t, err)
	files := ctx.Sessions.DumpFiles(devPath, "", "nullb0")
	_, err = ctx.Sessions.Dump(h, 0, 0, files)
	require.NoError(t, err)
	require.NoError(t, ctx.Sessions.Close(h))

	fromDev, err := Handle(ctx, &Request{Path: devPath, Option: "fu"})
	require.NoError(t, err)
	fromDump, err := Handle(ctx, &Request{Path: files.Info, Option: "fu"})
	require.NoError(t, err)

	assert.Equal(t, SourceDump, fromDump.Source)
	assert.Equal(t, fromDev.Zones, fromDump.Zones)
	assert.Equal(t, fromDev.Device.DeviceInfo, fromDump.Device.DeviceInfo)

	info, err := HandleInfo(ctx, files.Info)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), info.NrZones)
}

func TestHandleNotZoned(t *testing.T) {
	ctx, _ := newTestContext(t, newDevice(t))

	_, err := Handle(ctx, &Request{Path: t.TempDir()})
	var ce *app.CommonError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, app.ErrCodeNotZoned, ce.Code)

	_, err = HandleInfo(ctx, "/nonexistent/device")
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, app.ErrCodeDeviceAccess, ce.Code)
}
