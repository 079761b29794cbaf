package joint

import (
	"sync"
)

// Mock simulates an actuator relay for testing and development.
type Mock struct {
	mu        sync.RWMutex
	streaming bool
	genvars   [6]uint16
	err       error
}

// NewMock creates a mocked relay that is streaming zeros.
func NewMock() *Mock {
	return &Mock{streaming: true}
}

// SetStreaming sets the reported streaming status.
func (m *Mock) SetStreaming(streaming bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streaming = streaming
}

// SetGenvars sets the auxiliary channel values returned by Genvars.
func (m *Mock) SetGenvars(genvars [6]uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.genvars = genvars
	m.err = nil
}

// FailWith makes Genvars return err until new values are set.
func (m *Mock) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Streaming reports the mocked streaming status.
func (m *Mock) Streaming() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.streaming
}

// Genvars returns the mocked auxiliary channel values.
func (m *Mock) Genvars() ([6]uint16, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return [6]uint16{}, m.err
	}
	return m.genvars, nil
}
