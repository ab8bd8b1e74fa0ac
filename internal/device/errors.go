package device

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"golang.org/x/sys/unix"

	"github.com/deploymenttheory/go-zbd/internal/types"
)

// commandError wraps a failed device command. Missing ioctls and commands
// the device refuses as unsupported are reported as ErrOperationNotSupported,
// everything else as a DeviceIOError carrying the errno.
func commandError(op string, sector uint64, err error) error {
	ioErr := &types.DeviceIOError{Op: op, Sector: sector, Err: err}
	if errors.Is(err, unix.ENOTTY) || errors.Is(err, unix.EOPNOTSUPP) {
		return fmt.Errorf("%w: %w", types.ErrOperationNotSupported, ioErr)
	}
	return ioErr
}

// transferError wraps a failed read or write at byte offset off as a
// DeviceIOError carrying the errno. io.EOF is returned unchanged.
func transferError(op string, off int64, err error) error {
	if err == nil || err == io.EOF {
		return err
	}
	var pe *fs.PathError
	if errors.As(err, &pe) {
		err = pe.Err
	}
	return &types.DeviceIOError{Op: op, Sector: uint64(max(off, 0)) >> types.SectorShift, Err: err}
}
