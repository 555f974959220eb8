package ocr

import (
	"context"
	"fmt"
	"sync"
)

// Status describes the lifecycle state of the shared engine.
type Status string

const (
	// StatusUninitialized means no recognition call has been made yet.
	StatusUninitialized Status = "uninitialized"
	// StatusReady means the engine is constructed and usable.
	StatusReady Status = "ready"
	// StatusError means engine construction failed; the failure is
	// latched and reported on every subsequent call.
	StatusError Status = "error"
)

// Manager owns the process-wide OCR engine handle.
//
// The engine is expensive to construct (trained model load), so it is
// built lazily on the first recognition call and reused for the life of
// the process. Recognition engines are not assumed safe for concurrent
// invocation, so every call holds the manager's mutex.
type Manager struct {
	mu      sync.Mutex
	factory Factory
	engine  Engine
	initErr error
}

// NewManager creates a manager that builds its engine with factory on
// first use. A nil factory defaults to the Tesseract engine.
func NewManager(factory Factory) *Manager {
	if factory == nil {
		factory = func() (Engine, error) { return NewTesseractEngine() }
	}
	return &Manager{factory: factory}
}

// Recognize runs OCR on one image through the shared engine,
// constructing it first if this is the initial call in the process.
func (m *Manager) Recognize(ctx context.Context, in Input) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureEngineLocked(); err != nil {
		return "", err
	}
	return m.engine.Recognize(ctx, in)
}

// Status reports the engine state. Probing never initializes the
// engine.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.initErr != nil:
		return StatusError
	case m.engine != nil:
		return StatusReady
	default:
		return StatusUninitialized
	}
}

// Close shuts down the engine if it was ever constructed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.engine == nil {
		return nil
	}
	err := m.engine.Close()
	m.engine = nil
	return err
}

// ensureEngineLocked constructs the engine on first use. A failed
// construction is latched; later calls see the same error.
func (m *Manager) ensureEngineLocked() error {
	if m.initErr != nil {
		return fmt.Errorf("ocr engine unavailable: %w", m.initErr)
	}
	if m.engine != nil {
		return nil
	}

	engine, err := m.factory()
	if err != nil {
		m.initErr = err
		return fmt.Errorf("ocr engine unavailable: %w", err)
	}
	m.engine = engine
	return nil
}
