//go:build !linux

package device

import (
	"fmt"

	"github.com/deploymenttheory/go-zbd/internal/interfaces"
	"github.com/deploymenttheory/go-zbd/internal/types"
)

// Open always fails: zoned block device ioctls only exist on Linux.
func Open(path string, opts OpenOptions) (interfaces.ZonedDevice, error) {
	return nil, fmt.Errorf("%w: %s: zoned block devices require Linux", types.ErrNotZoned, path)
}
