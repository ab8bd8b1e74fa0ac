package device

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/deploymenttheory/go-zbd/internal/types"
)

// newTestDevice returns 8 zones of 64KiB, the first one conventional.
func newTestDevice(t *testing.T, maxOpen, maxActive uint32) *MemoryDevice {
	t.Helper()
	dev, err := NewMemoryDevice(MemoryConfig{
		NrSectors:      8 * 128,
		ZoneSectors:    128,
		NrConvZones:    1,
		MaxOpenZones:   maxOpen,
		MaxActiveZones: maxActive,
	})
	require.NoError(t, err, "failed to create memory device")
	return dev
}

func TestMemoryDeviceGeometry(t *testing.T) {
	dev, err := NewMemoryDevice(MemoryConfig{
		NrSectors:    1000,
		ZoneSectors:  256,
		ZoneCapacity: 200,
	})
	require.NoError(t, err)

	info := dev.Info()
	assert.Equal(t, uint32(4), info.NrZones, "last partial zone should be counted")
	assert.Equal(t, uint64(256*512), info.ZoneSize)
	assert.Equal(t, types.DeviceModelHostManaged, info.Model)

	// Test: Last zone is truncated to the device capacity
	last := dev.Zone(3)
	assert.Equal(t, uint64(768*512), last.Start)
	assert.Equal(t, uint64(232*512), last.Len)
	assert.Equal(t, uint64(200*512), last.Capacity)
}

func TestMemoryDeviceRejectsInvalidGeometry(t *testing.T) {
	_, err := NewMemoryDevice(MemoryConfig{NrSectors: 1000, ZoneSectors: 100})
	assert.Error(t, err, "zone size must be a power of two")

	_, err = NewMemoryDevice(MemoryConfig{NrSectors: 1000, ZoneSectors: 128, Model: types.DeviceModelNotZoned})
	assert.ErrorIs(t, err, types.ErrNotZoned)
}

func TestMemoryDeviceSequentialWrite(t *testing.T) {
	dev := newTestDevice(t, 0, 0)
	zoneSize := int64(dev.Info().ZoneSize)
	block := bytes.Repeat([]byte{0xAB}, 4096)

	// Test: Writing at the write pointer implicitly opens the zone
	n, err := dev.WriteAt(block, zoneSize)
	require.NoError(t, err)
	assert.Equal(t, len(block), n)

	z := dev.Zone(1)
	assert.Equal(t, types.ZoneCondImpOpen, z.Cond)
	assert.Equal(t, uint64(zoneSize)+4096, z.WP)

	// Test: Writing away from the write pointer fails
	_, err = dev.WriteAt(block, zoneSize+8192)
	var ioErr *types.DeviceIOError
	require.ErrorAs(t, err, &ioErr)
	assert.ErrorIs(t, err, unix.EIO)

	// Test: Filling the capacity turns the zone full
	rest := make([]byte, zoneSize-4096)
	_, err = dev.WriteAt(rest, zoneSize+4096)
	require.NoError(t, err)
	assert.Equal(t, types.ZoneCondFull, dev.Zone(1).Cond)

	// Test: Data reads back
	got := make([]byte, 4096)
	_, err = dev.ReadAt(got, zoneSize)
	require.NoError(t, err)
	assert.Equal(t, block, got)
}

func TestMemoryDeviceConventionalWrite(t *testing.T) {
	dev := newTestDevice(t, 0, 0)
	block := bytes.Repeat([]byte{0x5A}, 1024)

	_, err := dev.WriteAt(block, 8192)
	require.NoError(t, err, "conventional zones accept random writes")
	_, err = dev.WriteAt(block, 0)
	require.NoError(t, err)

	z := dev.Zone(0)
	assert.Equal(t, types.ZoneCondNotWP, z.Cond)
	assert.Equal(t, z.End(), z.WP, "conventional zones report the write pointer at the zone end")
}

func TestMemoryDeviceZoneOperations(t *testing.T) {
	dev := newTestDevice(t, 0, 0)
	zs := uint64(dev.Info().ZoneSectors)

	require.NoError(t, dev.ManageZones(types.ZoneOpOpen, zs, zs))
	assert.Equal(t, types.ZoneCondExpOpen, dev.Zone(1).Cond)

	// Test: Closing an empty open zone returns it to empty
	require.NoError(t, dev.ManageZones(types.ZoneOpClose, zs, zs))
	assert.Equal(t, types.ZoneCondEmpty, dev.Zone(1).Cond)

	_, err := dev.WriteAt(make([]byte, 512), int64(2*zs)<<9)
	require.NoError(t, err)
	require.NoError(t, dev.ManageZones(types.ZoneOpClose, 2*zs, zs))
	assert.Equal(t, types.ZoneCondClosed, dev.Zone(2).Cond)

	require.NoError(t, dev.ManageZones(types.ZoneOpFinish, 3*zs, zs))
	z := dev.Zone(3)
	assert.Equal(t, types.ZoneCondFull, z.Cond)
	assert.Equal(t, z.Start+z.Capacity, z.WP)

	// Test: Resetting the whole device empties every sequential zone
	require.NoError(t, dev.ManageZones(types.ZoneOpReset, 0, dev.Info().NrSectors))
	for i := 1; i < int(dev.Info().NrZones); i++ {
		z := dev.Zone(i)
		assert.Equal(t, types.ZoneCondEmpty, z.Cond, "zone %d", i)
		assert.Equal(t, z.Start, z.WP, "zone %d", i)
	}
}

func TestMemoryDeviceRejectsUnalignedRange(t *testing.T) {
	dev := newTestDevice(t, 0, 0)

	err := dev.ManageZones(types.ZoneOpReset, 64, 128)
	assert.ErrorIs(t, err, unix.EINVAL)

	err = dev.ManageZones(types.ZoneOpOpen, 0, 128)
	assert.ErrorIs(t, err, unix.EINVAL, "conventional zones cannot be opened")
}

func TestMemoryDeviceOpenLimit(t *testing.T) {
	dev := newTestDevice(t, 2, 0)
	zs := uint64(dev.Info().ZoneSectors)

	require.NoError(t, dev.ManageZones(types.ZoneOpOpen, 1*zs, zs))
	require.NoError(t, dev.ManageZones(types.ZoneOpOpen, 2*zs, zs))

	// Test: A third explicit open has no implicitly open zone to evict
	err := dev.ManageZones(types.ZoneOpOpen, 3*zs, zs)
	assert.ErrorIs(t, err, unix.ETOOMANYREFS)

	// Test: An implicit open evicts an implicitly open zone
	require.NoError(t, dev.ManageZones(types.ZoneOpClose, 2*zs, zs))
	_, err = dev.WriteAt(make([]byte, 512), int64(2*zs)<<9)
	require.NoError(t, err)
	_, err = dev.WriteAt(make([]byte, 512), int64(3*zs)<<9)
	require.NoError(t, err)
	assert.Equal(t, types.ZoneCondClosed, dev.Zone(2).Cond)
	assert.Equal(t, types.ZoneCondImpOpen, dev.Zone(3).Cond)

	open, _ := dev.ZoneLimitsSeen()
	assert.Equal(t, 2, open)
}

func TestMemoryDeviceActiveLimit(t *testing.T) {
	dev := newTestDevice(t, 0, 1)
	zs := uint64(dev.Info().ZoneSectors)

	_, err := dev.WriteAt(make([]byte, 512), int64(zs)<<9)
	require.NoError(t, err)
	require.NoError(t, dev.ManageZones(types.ZoneOpClose, zs, zs))

	_, err = dev.WriteAt(make([]byte, 512), int64(2*zs)<<9)
	assert.ErrorIs(t, err, unix.EOVERFLOW)

	_, active := dev.ZoneLimitsSeen()
	assert.Equal(t, 1, active)
}

func TestMemoryDeviceCapabilities(t *testing.T) {
	caps := types.Capabilities{Reset: true}
	dev, err := NewMemoryDevice(MemoryConfig{NrSectors: 1024, ZoneSectors: 128, Capabilities: &caps})
	require.NoError(t, err)

	err = dev.ManageZones(types.ZoneOpFinish, 0, 128)
	assert.ErrorIs(t, err, types.ErrOperationNotSupported)

	// Test: Reports carry no capacity without the capability
	rep, err := dev.ReportZones(0, 1)
	require.NoError(t, err)
	assert.False(t, rep.HasCapacity())
	z := rep.Zones[0].Zone(rep.HasCapacity())
	assert.Equal(t, z.Len, z.Capacity)
}

func TestMemoryDeviceReport(t *testing.T) {
	dev := newTestDevice(t, 0, 0)

	rep, err := dev.ReportZones(300, 3)
	require.NoError(t, err)
	require.Len(t, rep.Zones, 3)
	assert.Equal(t, uint64(256), rep.Zones[0].Start, "report starts at the zone holding the sector")

	rep, err = dev.ReportZones(dev.Info().NrSectors, 16)
	require.NoError(t, err)
	assert.Empty(t, rep.Zones)
}

func TestMemoryDeviceFault(t *testing.T) {
	dev := newTestDevice(t, 0, 0)
	dev.SetFault(func(op string, sector uint64) error {
		if op == "write" {
			return unix.EIO
		}
		return nil
	})

	_, err := dev.WriteAt(make([]byte, 512), 0)
	var ioErr *types.DeviceIOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "write", ioErr.Op)

	dev.SetFault(nil)
	_, err = dev.WriteAt(make([]byte, 512), 0)
	assert.NoError(t, err)

	require.NoError(t, dev.Sync())
	assert.Equal(t, 1, dev.Syncs())

	require.NoError(t, dev.Close())
	_, err = dev.ReportZones(0, 1)
	assert.Error(t, err, "closed device must refuse commands")
}
