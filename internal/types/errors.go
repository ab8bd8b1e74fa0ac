package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNotZoned is returned when opening a device that is not zoned.
	ErrNotZoned = errors.New("not a zoned block device")

	// ErrInvalidHandle is returned for an unknown or closed session handle.
	ErrInvalidHandle = errors.New("invalid device handle")

	// ErrAlignment is returned for offsets or lengths that are negative or
	// not multiples of the 512B sector size.
	ErrAlignment = errors.New("offset and length must be 512B aligned")

	// ErrNoMemory is returned when a zone array would exceed the report ceiling.
	ErrNoMemory = errors.New("zone array exceeds report ceiling")

	// ErrOperationNotSupported is returned when the device or driver lacks a
	// zone command.
	ErrOperationNotSupported = errors.New("operation not supported")

	// ErrIncompatibleSnapshot is returned when a snapshot cannot be replayed
	// onto a target device.
	ErrIncompatibleSnapshot = errors.New("incompatible snapshot")

	// ErrResourceLimitExceeded is returned when a restore would need more open
	// or active zones than the target device allows.
	ErrResourceLimitExceeded = errors.New("zone resource limit exceeded")

	// ErrInvalidDump is returned for structurally invalid dump files.
	ErrInvalidDump = errors.New("invalid zone dump")
)

// DeviceIOError is a failed device command. Err holds the errno reported by
// the kernel or the device emulation.
type DeviceIOError struct {
	Op     string
	Sector uint64
	Err    error
}

func (e *DeviceIOError) Error() string {
	return fmt.Sprintf("%s at sector %d failed: %v", e.Op, e.Sector, e.Err)
}

func (e *DeviceIOError) Unwrap() error {
	return e.Err
}
