package manage

import (
	"bytes"
	"encoding/json"
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

type persistentDevice struct {
	*device.MemoryDevice
}

func (persistentDevice) Close() error { return nil }

// newTestContext returns a context whose sessions open the devices of the
// map by path.
func newTestContext(t *testing.T, devices map[string]*device.MemoryDevice) *app.Context {
	t.Helper()
	cfg := config.Default()
	cfg.Dump.Dir = t.TempDir()
	cfg.Transfer.BufferSize = 8192

	ctx := app.NewContext(cfg, nil)
	ctx.Sessions.WithOpenFunc(func(path string, opts device.OpenOptions) (interfaces.ZonedDevice, error) {
		dev, ok := devices[path]
		if !ok {
			return nil, types.ErrNotZoned
		}
		return persistentDevice{dev}, nil
	})
	return ctx
}

// newDevice returns 7.5 zones of 64KiB, the last one a runt, with zone 0
// conventional.
func newDevice(t *testing.T) *device.MemoryDevice {
	t.Helper()
	dev, err := device.NewMemoryDevice(device.MemoryConfig{
		NrSectors:   7*128 + 64,
		ZoneSectors: 128,
		NrConvZones: 1,
	})
	require.NoError(t, err)
	return dev
}

func TestHandleOperation(t *testing.T) {
	dev := newDevice(t)
	ctx := newTestContext(t, map[string]*device.MemoryDevice{"/dev/nullb0": dev})

	tests := []struct {
		name      string
		request   *OperationRequest
		wantErr   bool
		wantStart uint32
		wantEnd   uint32
		check     func(*testing.T)
	}{
		{
			name: "open two zones",
			request: &OperationRequest{DevicePath: "/dev/nullb0", Op: types.ZoneOpOpen,
				Range: app.ZoneRange{Offset: "64k", Length: "128k"}},
			wantStart: 1,
			wantEnd:   3,
			check: func(t *testing.T) {
				assert.Equal(t, types.ZoneCondExpOpen, dev.Zone(1).Cond)
				assert.Equal(t, types.ZoneCondExpOpen, dev.Zone(2).Cond)
				assert.Equal(t, types.ZoneCondEmpty, dev.Zone(3).Cond)
			},
		},
		{
			name: "finish to the end of the device",
			request: &OperationRequest{DevicePath: "/dev/nullb0", Op: types.ZoneOpFinish,
				Range: app.ZoneRange{Offset: "384k"}},
			wantStart: 6,
			wantEnd:   8,
			check: func(t *testing.T) {
				assert.Equal(t, types.ZoneCondFull, dev.Zone(6).Cond)
				assert.Equal(t, types.ZoneCondFull, dev.Zone(7).Cond)
			},
		},
		{
			name: "reset sequential zones",
			request: &OperationRequest{DevicePath: "/dev/nullb0", Op: types.ZoneOpReset,
				Range: app.ZoneRange{Offset: "64k"}},
			wantStart: 1,
			wantEnd:   8,
			check: func(t *testing.T) {
				for i := 1; i < 8; i++ {
					assert.Equal(t, types.ZoneCondEmpty, dev.Zone(i).Cond, "zone %d", i)
				}
			},
		},
		{
			name: "past capacity is a no-op",
			request: &OperationRequest{DevicePath: "/dev/nullb0", Op: types.ZoneOpReset,
				Range: app.ZoneRange{Offset: "1m"}},
		},
		{
			name: "offset not zone aligned",
			request: &OperationRequest{DevicePath: "/dev/nullb0", Op: types.ZoneOpReset,
				Range: app.ZoneRange{Offset: "4k", Length: "64k"}},
			wantErr: true,
		},
		{
			name: "length not zone aligned",
			request: &OperationRequest{DevicePath: "/dev/nullb0", Op: types.ZoneOpReset,
				Range: app.ZoneRange{Offset: "64k", Length: "96k"}},
			wantErr: true,
		},
		{
			name: "conventional zone rejects open",
			request: &OperationRequest{DevicePath: "/dev/nullb0", Op: types.ZoneOpOpen,
				Range: app.ZoneRange{Length: "64k"}},
			wantErr: true,
		},
		{
			name:    "invalid operation",
			request: &OperationRequest{DevicePath: "/dev/nullb0", Op: types.ZoneOp(9)},
			wantErr: true,
		},
		{
			name:    "unknown device",
			request: &OperationRequest{DevicePath: "/dev/sda", Op: types.ZoneOpReset},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := HandleOperation(ctx, tt.request)
			if tt.wantErr {
				var ce *app.CommonError
				assert.ErrorAs(t, err, &ce)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, resp.ZoneStart)
			assert.Equal(t, tt.wantEnd, resp.ZoneEnd)
			if tt.check != nil {
				tt.check(t)
			}
		})
	}
}

func TestHandleDumpRestore(t *testing.T) {
	src, dst := newDevice(t), newDevice(t)
	ctx := newTestContext(t, map[string]*device.MemoryDevice{
		"/dev/nullb0": src,
		"/dev/nullb1": dst,
	})

	_, err := src.WriteAt(bytes.Repeat([]byte{0x5A}, 16384), 3*zoneBytes)
	require.NoError(t, err)
	require.NoError(t, src.ManageZones(types.ZoneOpClose, 3*128, 128))
	require.NoError(t, src.ManageZones(types.ZoneOpFinish, 7*128, 64))

	dump, err := HandleDump(ctx, &DumpRequest{DevicePath: "/dev/nullb0", Prefix: "src"})
	require.NoError(t, err)
	assert.Equal(t, ctx.Config.Dump.Dir+"/src_zone_info.dump", dump.InfoFile)
	assert.Equal(t, uint32(8), dump.ZoneEnd)
	assert.Equal(t, 3, dump.DumpedZones)

	restored, err := HandleRestore(ctx, &RestoreRequest{DevicePath: "/dev/nullb1", Prefix: "src"})
	require.NoError(t, err)
	assert.Equal(t, 3, restored.RestoredZones)
	assert.Equal(t, 1, restored.ActiveZones)

	for i := 0; i < 8; i++ {
		assert.Equal(t, src.Zone(i), dst.Zone(i), "zone %d", i)
	}

	// Test: Restoring without a dump fails with a classified error
	_, err = HandleRestore(ctx, &RestoreRequest{DevicePath: "/dev/nullb1"})
	var ce *app.CommonError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, app.ErrCodeDeviceAccess, ce.Code)
}

func TestFormatOutput(t *testing.T) {
	tests := []struct {
		name     string
		response any
		format   string
		want     string
	}{
		{
			name:     "operation table",
			response: &OperationResponse{Device: "/dev/nullb0", Operation: "reset", Length: 2 * zoneBytes, ZoneStart: 2, ZoneEnd: 4},
			format:   "table",
			want:     "/dev/nullb0: reset zones 2 to 3 (2 zones)\n",
		},
		{
			name:     "operation csv",
			response: &OperationResponse{Operation: "open", Length: zoneBytes, ZoneStart: 5, ZoneEnd: 6},
			format:   "csv",
			want:     "open, 5, 6\n",
		},
		{
			name:     "restore csv",
			response: &RestoreResponse{ResetZones: 1, RestoredZones: 3, RestoredBytes: 4096, OpenZones: 1, ActiveZones: 2},
			format:   "csv",
			want:     "1, 3, 4096, 1, 2\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, FormatOutput(&buf, tt.response, tt.format))
			assert.Equal(t, tt.want, buf.String())
		})
	}

	var buf bytes.Buffer
	require.NoError(t, FormatOutput(&buf, &DumpResponse{DumpedZones: 2}, "json"))
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, float64(2), got["dumped_zones"])

	assert.Error(t, FormatOutput(&buf, "not a response", "table"))
	assert.Error(t, FormatOutput(&buf, &DumpResponse{}, "xml"))
}
