package session

import (
	"sync"
	"time"

	"SPX-VAL/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager owns every live session. Sessions idle for longer than ttl are
// removed by Sweep.
type Manager struct {
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(ttl time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.With(zap.String("component", "sessions")),
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) Create(user models.User) *Session {
	now := m.now()
	s := &Session{
		ID:        uuid.New().String(),
		User:      user,
		CreatedAt: now,
		lastSeen:  now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("session created", zap.String("session_id", s.ID), zap.String("username", user.Username))
	return s
}

// Get returns a live session and marks it as used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	now := m.now()
	if m.ttl > 0 && now.Sub(s.LastSeen()) > m.ttl {
		m.Delete(id)
		return nil, ErrNotFound
	}
	s.touch(now)
	return s, nil
}

func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops expired sessions and reports how many were removed.
func (m *Manager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if now.Sub(s.LastSeen()) > m.ttl {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("expired sessions removed", zap.Int("count", removed), zap.Int("remaining", len(m.sessions)))
	}
	return removed
}
