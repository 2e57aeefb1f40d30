package session

import (
	"sync"

	"github.com/google/uuid"
)

// Manager owns the live sessions, keyed by opaque ids.
type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	maxMessages int
}

func NewManager(maxMessages int) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		maxMessages: maxMessages,
	}
}

// GetOrCreate returns the session for key, creating it on first use. An
// empty key mints a fresh one.
func (m *Manager) GetOrCreate(key string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if key == "" {
		key = uuid.NewString()
	}
	s, ok := m.sessions[key]
	if !ok {
		s = New(key, m.maxMessages)
		m.sessions[key] = s
	}
	return s
}

func (m *Manager) Get(key string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	return s, ok
}

// Remove drops a session. Removing an absent key is a no-op.
func (m *Manager) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
}

func (m *Manager) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.sessions))
	for k := range m.sessions {
		keys = append(keys, k)
	}
	return keys
}
