package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/petal-labs/ira/internal/domain"
	"github.com/petal-labs/ira/internal/index"
)

// IndexFactory builds the vector index backing a new session. The
// session ID keys per-session storage in backends that share a store.
type IndexFactory func(sessionID string) index.Index

// Manager owns the live sessions. Lookups touch the session's activity
// clock so the idle reaper only evicts genuinely abandoned sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	factory  IndexFactory
}

func NewManager(factory IndexFactory) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		factory:  factory,
	}
}

func (m *Manager) Create() *Session {
	id := uuid.NewString()
	s := &Session{
		id:         id,
		idx:        m.factory(id),
		lastActive: time.Now(),
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	s.Touch()
	return s, nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EvictIdle removes sessions untouched for longer than maxIdle and
// reports how many were dropped.
func (m *Manager) EvictIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}
