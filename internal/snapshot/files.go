package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/deploymenttheory/go-zbd/internal/types"
)

// Files names the pair of files making up a dump.
type Files struct {
	Info string
	Data string
}

// DumpFiles returns <dir>/<prefix>_zone_info.dump and
// <dir>/<prefix>_zone_data.dump.
func DumpFiles(dir, prefix string) Files {
	return Files{
		Info: filepath.Join(dir, prefix+"_zone_info.dump"),
		Data: filepath.Join(dir, prefix+"_zone_data.dump"),
	}
}

// WriteInfoFile writes the encoded snapshot to path and syncs it.
func WriteInfoFile(path string, s *Snapshot) error {
	data, err := s.MarshalBinary()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create zone information file %s failed: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write zone information file %s failed: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("fsync zone information file %s failed: %w", path, err)
	}
	return f.Close()
}

// ReadInfoFile reads and decodes a zone information dump.
func ReadInfoFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zone information file %s failed: %w", path, err)
	}
	s, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// OpenDataFile opens a zone data dump for reading and checks that it spans
// at least capacity bytes.
func OpenDataFile(path string, capacity uint64) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open zone data file %s failed: %w", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat zone data file %s failed: %w", path, err)
	}
	if uint64(fi.Size()) < capacity {
		f.Close()
		return nil, fmt.Errorf("%w: zone data file %s is %d bytes, device capacity is %d",
			types.ErrIncompatibleSnapshot, path, fi.Size(), capacity)
	}
	return f, nil
}
