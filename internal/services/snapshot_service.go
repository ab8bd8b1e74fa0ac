package services

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-zbd/internal/restore"
	"github.com/deploymenttheory/go-zbd/internal/snapshot"
	"github.com/deploymenttheory/go-zbd/internal/types"
)

// DumpFiles returns the dump file pair for a device path, in the configured
// dump directory. The configured prefix defaults to the device base name.
func (m *Manager) DumpFiles(devPath, dir, prefix string) snapshot.Files {
	if dir == "" {
		dir = m.cfg.Dump.Dir
	}
	if prefix == "" {
		prefix = m.cfg.Dump.Prefix
	}
	if prefix == "" {
		prefix = filepath.Base(devPath)
	}
	return snapshot.DumpFiles(dir, prefix)
}

// Dump saves the zone information of a session and the data of the zones
// touched by [offset, offset+length) to files.
func (m *Manager) Dump(h Handle, offset, length int64, files snapshot.Files) (*snapshot.DumpResult, error) {
	s, err := m.Get(h)
	if err != nil {
		return nil, err
	}

	dumper := snapshot.NewDumper(s.dev, s.reporter, m.cfg.Transfer.BufferSize, s.logger)
	return dumper.Dump(offset, length, files)
}

// Restore replays the dump in files onto the device of a session.
func (m *Manager) Restore(h Handle, files snapshot.Files) (*restore.Stats, error) {
	s, err := m.Get(h)
	if err != nil {
		return nil, err
	}

	snap, err := snapshot.ReadInfoFile(files.Info)
	if err != nil {
		return nil, err
	}

	data, err := snapshot.OpenDataFile(files.Data, s.Info.Capacity())
	if err != nil {
		return nil, err
	}
	defer data.Close()

	st, err := data.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s failed: %w", files.Data, err)
	}

	s.logger.Info("restoring dump",
		zap.String("info", files.Info),
		zap.String("data", files.Data))

	r := restore.New(s.dev, s.reporter, s.dispatcher, m.cfg.Transfer.BufferSize, s.logger)
	return r.Restore(snap, data, st.Size())
}

// ReportDump reads a dump information file and filters its zones touched by
// [offset, offset+length) with ro.
func ReportDump(infoPath string, offset, length int64, ro types.ReportOption) (*snapshot.Snapshot, []types.Zone, error) {
	snap, err := snapshot.ReadInfoFile(infoPath)
	if err != nil {
		return nil, nil, err
	}

	zs, err := snap.Report(offset, length, ro)
	if err != nil {
		return nil, nil, err
	}
	return snap, zs, nil
}
