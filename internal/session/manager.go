package session

import (
	"sync"

	"tipledger/internal/store"
)

// Manager hands out one Buffer per user, creating the backing store
// subscription on first use and tearing it down on release.
type Manager struct {
	adapter *store.Adapter

	mu      sync.Mutex
	buffers map[uint]*Buffer
}

func NewManager(adapter *store.Adapter) *Manager {
	return &Manager{
		adapter: adapter,
		buffers: make(map[uint]*Buffer),
	}
}

// Buffer returns the user's buffer, subscribing on first use.
func (m *Manager) Buffer(userID uint) *Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.buffers[userID]; ok {
		return b
	}
	b := NewBuffer(m.adapter.Subscribe(userID))
	m.buffers[userID] = b
	return b
}

// Release drops the user's buffer and cancels its subscription. Called
// on logout so background delivery does not outlive the session.
func (m *Manager) Release(userID uint) {
	m.mu.Lock()
	b, ok := m.buffers[userID]
	delete(m.buffers, userID)
	m.mu.Unlock()
	if ok {
		b.Close()
	}
}

// Close releases every buffer. Called on shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	buffers := m.buffers
	m.buffers = make(map[uint]*Buffer)
	m.mu.Unlock()
	for _, b := range buffers {
		b.Close()
	}
}
