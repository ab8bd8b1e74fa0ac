package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/deploymenttheory/go-zbd/internal/types"
)

// ZoneRange is the byte range selected on the command line. Values accept
// k, m, g and b suffixes.
type ZoneRange struct {
	Offset string
	Length string
}

// Parse returns the range in bytes. Empty values are 0.
func (zr *ZoneRange) Parse() (offset, length int64, err error) {
	if zr.Offset != "" {
		if offset, err = ParseSize(zr.Offset); err != nil {
			return 0, 0, fmt.Errorf("invalid offset %q: %w", zr.Offset, err)
		}
	}
	if zr.Length != "" {
		if length, err = ParseSize(zr.Length); err != nil {
			return 0, 0, fmt.Errorf("invalid length %q: %w", zr.Length, err)
		}
	}
	if offset < 0 || length < 0 {
		return 0, 0, errors.New("offset and length cannot be negative")
	}
	return offset, length, nil
}

// String returns a string representation of the range
func (zr *ZoneRange) String() string {
	off, length := zr.Offset, zr.Length
	if off == "" {
		off = "0"
	}
	if length == "" {
		return fmt.Sprintf("from %s to end of device", off)
	}
	return fmt.Sprintf("%s + %s", off, length)
}

// ParseSize converts a size such as "256m" or "4096" to bytes.
func ParseSize(s string) (int64, error) {
	ss := strings.TrimSpace(strings.ToLower(s))
	if ss == "" {
		return 0, errors.New("empty size")
	}

	mult := int64(1)
	switch {
	case strings.HasSuffix(ss, "k"):
		mult = 1024
		ss = strings.TrimSuffix(ss, "k")
	case strings.HasSuffix(ss, "m"):
		mult = 1024 * 1024
		ss = strings.TrimSuffix(ss, "m")
	case strings.HasSuffix(ss, "g"):
		mult = 1024 * 1024 * 1024
		ss = strings.TrimSuffix(ss, "g")
	case strings.HasSuffix(ss, "b"):
		ss = strings.TrimSuffix(ss, "b")
	}

	if v, err := strconv.ParseInt(ss, 10, 64); err == nil {
		return v * mult, nil
	}
	v, err := strconv.ParseFloat(ss, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value: %s", ss)
	}
	return int64(v * float64(mult)), nil
}

// CommonError represents application-level errors
type CommonError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CommonError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CommonError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeDeviceAccess   = "DEVICE_ACCESS"
	ErrCodeNotZoned       = "NOT_ZONED"
	ErrCodePermission     = "PERMISSION_DENIED"
	ErrCodeNotSupported   = "NOT_SUPPORTED"
	ErrCodeDeviceIO       = "DEVICE_IO"
	ErrCodeIncompatible   = "INCOMPATIBLE_SNAPSHOT"
	ErrCodeResourceLimit  = "RESOURCE_LIMIT"
	ErrCodeInvalidDump    = "INVALID_DUMP"
	ErrCodeNotImplemented = "NOT_IMPLEMENTED"
)

// NewError creates a new CommonError
func NewError(code, message string, cause error) *CommonError {
	return &CommonError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapError classifies err under a CommonError code. Errors that already are
// a CommonError are returned as is.
func WrapError(message string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CommonError
	if errors.As(err, &ce) {
		return err
	}
	return NewError(ErrorCode(err), message, err)
}

// ErrorCode returns the CommonError code matching a core error.
func ErrorCode(err error) string {
	var ioErr *types.DeviceIOError
	switch {
	case errors.Is(err, types.ErrNotZoned):
		return ErrCodeNotZoned
	case errors.Is(err, types.ErrAlignment), errors.Is(err, types.ErrInvalidHandle),
		errors.Is(err, types.ErrNoMemory):
		return ErrCodeInvalidInput
	case errors.Is(err, types.ErrOperationNotSupported):
		return ErrCodeNotSupported
	case errors.Is(err, types.ErrIncompatibleSnapshot):
		return ErrCodeIncompatible
	case errors.Is(err, types.ErrResourceLimitExceeded):
		return ErrCodeResourceLimit
	case errors.Is(err, types.ErrInvalidDump):
		return ErrCodeInvalidDump
	case errors.Is(err, os.ErrPermission):
		return ErrCodePermission
	case errors.As(err, &ioErr):
		return ErrCodeDeviceIO
	}
	return ErrCodeDeviceAccess
}
