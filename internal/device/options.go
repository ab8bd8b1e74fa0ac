package device

import "go.uber.org/zap"

// OpenOptions controls how a block device is opened.
type OpenOptions struct {
	// Writable opens the device read-write. Zone commands other than
	// reports need it.
	Writable bool

	// Direct bypasses the page cache. Writes to sequential zones of
	// host-managed devices must be issued this way.
	Direct bool

	Logger *zap.Logger
}

func (o OpenOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
