package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZoneOp(t *testing.T) {
	for _, op := range []ZoneOp{ZoneOpReset, ZoneOpOpen, ZoneOpClose, ZoneOpFinish} {
		assert.True(t, op.Valid(), op.String())
		assert.True(t, AllCapabilities().Supports(op))
		assert.False(t, Capabilities{}.Supports(op))
	}

	assert.False(t, ZoneOp(0).Valid())
	assert.False(t, ZoneOp(5).Valid())
	assert.Equal(t, "op(0x5)", ZoneOp(5).String())

	// Test: Kernels before open/close/finish support only reset
	caps := Capabilities{Reset: true}
	assert.True(t, caps.Supports(ZoneOpReset))
	assert.False(t, caps.Supports(ZoneOpFinish))
	assert.False(t, caps.Supports(ZoneOp(5)))
}

func TestDeviceIOError(t *testing.T) {
	cause := errors.New("input/output error")
	err := &DeviceIOError{Op: "reset", Sector: 524288, Err: cause}

	assert.Equal(t, "reset at sector 524288 failed: input/output error", err.Error())
	assert.ErrorIs(t, err, cause)
}
