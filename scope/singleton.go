package scope

import (
	"sync"

	"github.com/rs/zerolog"
)

// The process-wide manager is a thin cache over an explicitly constructed
// instance. All logic lives on Manager; these accessors only exist so call
// sites that cannot thread a manager through (tool handlers, signal
// handlers) can share one.
var (
	defaultMu      sync.Mutex
	defaultManager *Manager
)

// GetManager returns the process-wide manager, lazily constructing and
// initializing it with opts on first call. Options passed on subsequent
// calls are ignored until ResetManager.
func GetManager(opts Options, logger zerolog.Logger) (*Manager, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultManager != nil {
		return defaultManager, nil
	}
	m := NewManager(opts, logger)
	if err := m.Initialize(); err != nil {
		return nil, err
	}
	defaultManager = m
	return m, nil
}

// ResetManager tears down the process-wide manager, closing its stores.
// Primarily for test isolation.
func ResetManager() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultManager == nil {
		return nil
	}
	err := defaultManager.Close()
	defaultManager = nil
	return err
}
