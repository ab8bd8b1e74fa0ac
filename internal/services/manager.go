package services

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deploymenttheory/go-zbd/internal/config"
	"github.com/deploymenttheory/go-zbd/internal/device"
	"github.com/deploymenttheory/go-zbd/internal/interfaces"
	"github.com/deploymenttheory/go-zbd/internal/types"
	"github.com/deploymenttheory/go-zbd/internal/zones"
)

// Handle identifies an open device session.
type Handle = uuid.UUID

// Session binds an open device to the geometry captured when it was opened.
type Session struct {
	ID   Handle
	Path string
	Info types.DeviceInfo

	dev        interfaces.ZonedDevice
	reporter   *zones.Reporter
	dispatcher *zones.Dispatcher
	logger     *zap.Logger
}

// Device returns the device behind the session.
func (s *Session) Device() interfaces.ZonedDevice { return s.dev }

// OpenFunc opens a zoned device. device.Open is used unless the manager is
// given another one.
type OpenFunc func(path string, opts device.OpenOptions) (interfaces.ZonedDevice, error)

// Manager is the table of open device sessions. The table itself is safe for
// concurrent use, but operations on one session must not be issued
// concurrently.
type Manager struct {
	cfg    *config.Config
	logger *zap.Logger
	open   OpenFunc

	mu       sync.RWMutex
	sessions map[Handle]*Session
}

// NewManager creates an empty session table. A nil cfg uses config.Default.
func NewManager(cfg *config.Config, logger *zap.Logger) *Manager {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg:      cfg,
		logger:   logger,
		open:     device.Open,
		sessions: make(map[Handle]*Session),
	}
}

// WithOpenFunc replaces the function used to open devices by path.
func (m *Manager) WithOpenFunc(fn OpenFunc) *Manager {
	m.open = fn
	return m
}

// Open opens the zoned block device at path and returns its session handle
// and geometry. Zone commands other than reports need a writable session.
func (m *Manager) Open(path string, writable bool) (Handle, types.DeviceInfo, error) {
	dev, err := m.open(path, device.OpenOptions{
		Writable: writable,
		Direct:   m.cfg.Transfer.Direct,
		Logger:   m.logger,
	})
	if err != nil {
		return uuid.Nil, types.DeviceInfo{}, err
	}

	h, info, err := m.Attach(dev)
	if err != nil {
		dev.Close()
		return uuid.Nil, types.DeviceInfo{}, err
	}
	return h, info, nil
}

// Attach registers an already open device. The session owns dev from then
// on and closes it with the session.
func (m *Manager) Attach(dev interfaces.ZonedDevice) (Handle, types.DeviceInfo, error) {
	info := dev.Info()
	if err := info.Validate(); err != nil {
		return uuid.Nil, types.DeviceInfo{}, err
	}

	id := uuid.New()
	logger := m.logger.With(zap.String("session", id.String()), zap.String("device", dev.Path()))

	s := &Session{
		ID:         id,
		Path:       dev.Path(),
		Info:       info,
		dev:        dev,
		reporter:   zones.NewReporter(dev, m.cfg.Report.ChunkZones, logger),
		dispatcher: zones.NewDispatcher(dev, logger),
		logger:     logger,
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	logger.Debug("session opened",
		zap.Stringer("model", info.Model),
		zap.Uint32("zones", info.NrZones),
		zap.Uint64("zone_size", info.ZoneSize))

	return id, info, nil
}

// Close closes the device of a session and forgets the handle.
func (m *Manager) Close(h Handle) error {
	m.mu.Lock()
	s, ok := m.sessions[h]
	delete(m.sessions, h)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", types.ErrInvalidHandle, h)
	}

	s.logger.Debug("session closed")
	return s.dev.Close()
}

// CloseAll closes every open session and returns the first error.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[Handle]*Session)
	m.mu.Unlock()

	var first error
	for _, s := range sessions {
		if err := s.dev.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Info returns the geometry captured when the session was opened.
func (m *Manager) Info(h Handle) (types.DeviceInfo, error) {
	s, err := m.Get(h)
	if err != nil {
		return types.DeviceInfo{}, err
	}
	return s.Info, nil
}

// Get returns the session of a handle.
func (m *Manager) Get(h Handle) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidHandle, h)
	}
	return s, nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
