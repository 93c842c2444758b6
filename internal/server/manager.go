package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/leapask/internal/chat"
)

// Factory creates a new, Idle chat session.
type Factory func() (*chat.Session, error)

type entry struct {
	session  *chat.Session
	lastUsed time.Time
}

// Manager tracks the chat sessions of all connected clients.
type Manager struct {
	factory Factory
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewManager creates a manager that expires sessions unused for ttl.
// A ttl of zero keeps sessions until they are deleted.
func NewManager(factory Factory, ttl time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		factory:  factory,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Create starts a new session.
func (m *Manager) Create() (*chat.Session, error) {
	s, err := m.factory()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = &entry{session: s, lastUsed: m.now()}
	m.mu.Unlock()

	m.logger.Debug("session created", "session", s.ID)
	return s, nil
}

// Get returns the session with id and marks it as used.
func (m *Manager) Get(id string) (*chat.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastUsed = m.now()
	return e.session, true
}

// Delete closes and forgets the session with id.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	m.closeSession(e.session)
	return true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the ttl and returns how many
// were removed.
func (m *Manager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.ttl)

	var expired []*chat.Session
	m.mu.Lock()
	for id, e := range m.sessions {
		if e.lastUsed.Before(cutoff) {
			expired = append(expired, e.session)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.closeSession(s)
	}
	if len(expired) > 0 {
		m.logger.Info("expired idle sessions", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps expired sessions until ctx is done, then closes the rest.
func (m *Manager) Run(ctx context.Context) error {
	interval := m.ttl / 2
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Close()
			return nil
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Close closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range all {
		m.closeSession(e.session)
	}
}

func (m *Manager) closeSession(s *chat.Session) {
	if err := s.Close(); err != nil {
		m.logger.Warn("failed to close session", "session", s.ID, "error", err)
	}
}
