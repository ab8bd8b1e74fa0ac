package zones

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-zbd/internal/interfaces"
	"github.com/deploymenttheory/go-zbd/internal/types"
)

// Dispatcher issues zone range commands.
type Dispatcher struct {
	dev    interfaces.ZonedDevice
	logger *zap.Logger
}

func NewDispatcher(dev interfaces.ZonedDevice, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{dev: dev, logger: logger}
}

// Operate applies op to every zone touched by [offset, offset+length). Zone
// conditions are not checked here: the device decides whether a transition
// is valid and its answer is returned unchanged.
func (d *Dispatcher) Operate(op types.ZoneOp, offset, length int64) error {
	if !op.Valid() {
		return fmt.Errorf("invalid zone operation %s", op)
	}

	info := d.dev.Info()
	rng, err := Translate(&info, offset, length)
	if err != nil {
		return err
	}
	if rng.Empty() {
		return nil
	}

	if !d.dev.Capabilities().Supports(op) {
		return fmt.Errorf("%w: zone %s", types.ErrOperationNotSupported, op)
	}

	d.logger.Debug("zone operation",
		zap.Stringer("op", op),
		zap.Uint64("sector", rng.Start),
		zap.Uint64("nr_sectors", rng.Sectors()))

	return d.dev.ManageZones(op, rng.Start, rng.Sectors())
}
