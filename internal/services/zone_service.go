package services

import (
	"github.com/deploymenttheory/go-zbd/internal/types"
)

// Report returns the zones of a session touched by [offset, offset+length)
// that match ro, at most maxZones of them. A zero maxZones returns every
// match up to the report ceiling.
func (m *Manager) Report(h Handle, offset, length int64, ro types.ReportOption, maxZones uint32) ([]types.Zone, error) {
	s, err := m.Get(h)
	if err != nil {
		return nil, err
	}
	return s.reporter.Report(offset, length, ro, maxZones)
}

// Count returns the number of zones Report would return without a limit.
func (m *Manager) Count(h Handle, offset, length int64, ro types.ReportOption) (uint32, error) {
	s, err := m.Get(h)
	if err != nil {
		return 0, err
	}
	return s.reporter.Count(offset, length, ro)
}

// List counts the matching zones, then reports them.
func (m *Manager) List(h Handle, offset, length int64, ro types.ReportOption) ([]types.Zone, error) {
	s, err := m.Get(h)
	if err != nil {
		return nil, err
	}
	return s.reporter.List(offset, length, ro)
}

// Operate applies op to the zones touched by [offset, offset+length).
func (m *Manager) Operate(h Handle, op types.ZoneOp, offset, length int64) error {
	s, err := m.Get(h)
	if err != nil {
		return err
	}
	return s.dispatcher.Operate(op, offset, length)
}
