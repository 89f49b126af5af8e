// Package storage selects and supervises the history persistence backend.
// The structured Badger backend is preferred; when it cannot be opened or an
// operation fails against it, the manager downgrades once to the bbolt
// key-value fallback and never upgrades back within the process lifetime.
package storage

import (
	"context"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prism/internal/common"
	"github.com/ternarybob/prism/internal/interfaces"
	"github.com/ternarybob/prism/internal/models"
	"github.com/ternarybob/prism/internal/storage/badger"
	"github.com/ternarybob/prism/internal/storage/bolt"
)

// Manager owns the active backend and implements the sticky downgrade.
type Manager struct {
	mu      sync.Mutex
	logger  arbor.ILogger
	config  *common.StorageConfig
	backend interfaces.StorageBackend
	// degraded latches true after the first downgrade; the structured
	// backend is never retried afterwards.
	degraded bool
}

// NewManager opens the preferred backend, falling back to the key-value
// store when the structured store cannot be opened. An error is returned
// only when both backends fail, wrapped as StorageUnavailableError.
func NewManager(logger arbor.ILogger, config *common.StorageConfig) (*Manager, error) {
	m := &Manager{
		logger: logger,
		config: config,
	}

	backend, err := badger.NewBackend(logger, &config.Badger)
	if err == nil {
		m.backend = backend
		return m, nil
	}
	logger.Warn().Err(err).Msg("Structured storage unavailable, falling back to key-value store")

	if err := m.downgradeLocked(); err != nil {
		return nil, err
	}
	return m, nil
}

// Kind reports the backend currently in use.
func (m *Manager) Kind() models.BackendKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.backend == nil {
		return models.BackendKeyValue
	}
	return m.backend.Kind()
}

// Do runs op against the active backend. When op fails against the
// structured backend the manager downgrades and runs op once more against
// the fallback. Failures on the fallback are returned as-is.
func (m *Manager) Do(ctx context.Context, op func(interfaces.HistoryStorage) error) error {
	m.mu.Lock()
	backend := m.backend
	degraded := m.degraded
	m.mu.Unlock()

	if backend == nil {
		return &models.StorageUnavailableError{Detail: "no storage backend"}
	}

	err := op(backend)
	if err == nil || degraded {
		return err
	}
	if err == interfaces.ErrEntryNotFound || ctx.Err() != nil {
		return err
	}

	m.logger.Warn().Err(err).Msg("Structured storage operation failed, downgrading to key-value store")

	m.mu.Lock()
	if !m.degraded {
		if dErr := m.downgradeLocked(); dErr != nil {
			m.mu.Unlock()
			return dErr
		}
	}
	backend = m.backend
	m.mu.Unlock()

	return op(backend)
}

// downgradeLocked swaps in the bbolt fallback. Caller must hold the mutex
// (or be in single-threaded construction).
func (m *Manager) downgradeLocked() error {
	if m.backend != nil {
		if err := m.backend.Close(); err != nil {
			m.logger.Warn().Err(err).Msg("Failed to close structured backend")
		}
	}
	fallback, err := bolt.NewBackend(m.logger, &m.config.Bolt)
	if err != nil {
		m.backend = nil
		m.degraded = true
		return &models.StorageUnavailableError{Detail: err.Error()}
	}
	m.backend = fallback
	m.degraded = true
	return nil
}

// Close releases the active backend.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.backend == nil {
		return nil
	}
	err := m.backend.Close()
	m.backend = nil
	return err
}
