package device

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/deploymenttheory/go-zbd/internal/types"
)

// sysBlockRoot is where block device attributes are published.
var sysBlockRoot = "/sys/block"

// sysfsDir returns the sysfs directory of the block device at path.
func sysfsDir(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return filepath.Join(sysBlockRoot, filepath.Base(resolved)), nil
}

func readAttr(dir, attr string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, attr))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func readUintAttr(dir, attr string) (uint64, error) {
	s, err := readAttr(dir, attr)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", attr, s, err)
	}
	return v, nil
}

// readModel reads the zone model from queue/zoned. Kernels without zoned
// block device support do not have the attribute.
func readModel(dir string) (types.DeviceModel, error) {
	s, err := readAttr(dir, "queue/zoned")
	if err != nil {
		if os.IsNotExist(err) {
			return types.DeviceModelNotZoned, nil
		}
		return 0, err
	}
	switch s {
	case "host-managed":
		return types.DeviceModelHostManaged, nil
	case "host-aware":
		return types.DeviceModelHostAware, nil
	case "none":
		return types.DeviceModelNotZoned, nil
	}
	return 0, fmt.Errorf("unknown zone model %q", s)
}

// readZoneLimit reads a zone resource limit. Zero means no limit, which is
// also what kernels export for an unknown limit and what a missing
// attribute is taken as.
func readZoneLimit(dir, attr string) uint32 {
	v, err := readUintAttr(dir, attr)
	if err != nil {
		return 0
	}
	return uint32(v)
}

// readVendorID builds the vendor identification from the vendor, model and
// revision strings of the device.
func readVendorID(dir string) string {
	var parts []string
	for _, attr := range []string{"device/vendor", "device/model", "device/rev"} {
		if s, err := readAttr(dir, attr); err == nil && s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "Unknown"
	}
	id := strings.Join(parts, " ")
	if len(id) > types.VendorIDLength-1 {
		id = id[:types.VendorIDLength-1]
	}
	return id
}

// parseKernelRelease extracts the major and minor numbers of a kernel
// release string such as "5.10.0-21-amd64".
func parseKernelRelease(release string) (major, minor int, err error) {
	fields := strings.SplitN(release, ".", 3)
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("invalid kernel release %q", release)
	}
	if major, err = strconv.Atoi(fields[0]); err != nil {
		return 0, 0, fmt.Errorf("invalid kernel release %q: %w", release, err)
	}
	minorField := fields[1]
	if i := strings.IndexFunc(minorField, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		minorField = minorField[:i]
	}
	if minor, err = strconv.Atoi(minorField); err != nil {
		return 0, 0, fmt.Errorf("invalid kernel release %q: %w", release, err)
	}
	return major, minor, nil
}

// capabilitiesForRelease returns the zone commands a kernel release provides.
// Zone reset predates every other command, open, close and finish arrived
// in 5.5 and zone capacity reporting in 5.9.
func capabilitiesForRelease(release string) types.Capabilities {
	caps := types.Capabilities{Reset: true}
	major, minor, err := parseKernelRelease(release)
	if err != nil {
		return caps
	}
	atLeast := func(maj, min int) bool {
		return major > maj || (major == maj && minor >= min)
	}
	if atLeast(5, 5) {
		caps.Open, caps.Close, caps.Finish = true, true, true
	}
	if atLeast(5, 9) {
		caps.ZoneCapacity = true
	}
	return caps
}
