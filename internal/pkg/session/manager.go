package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/google/uuid"
)

// Manager keeps active capture sessions in memory.
// It also serves the clean timer: GetExpired lists abandoned
// sessions, Clean drops one from memory
type Manager struct {
	lock         *sync.Mutex
	sessions     map[string]*Session
	expiresAfter time.Duration
	now          func() time.Time
}

// NewManager creates a session manager
func NewManager(expiresAfter time.Duration) (*Manager, error) {
	if expiresAfter <= 0 {
		return nil, fmt.Errorf("wrong expire duration %v", expiresAfter)
	}
	return &Manager{lock: &sync.Mutex{}, sessions: map[string]*Session{},
		expiresAfter: expiresAfter, now: time.Now}, nil
}

// New creates and registers a fresh session
func (m *Manager) New() *Session {
	res := newSession(uuid.New().String(), m.now)
	m.lock.Lock()
	defer m.lock.Unlock()
	m.sessions[res.ID] = res
	goapp.Log.Info().Str("ID", res.ID).Int("active", len(m.sessions)).Msg("new session")
	return res
}

// Get returns an active session by ID
func (m *Manager) Get(id string) (*Session, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	res, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrNotFound, id)
	}
	return res, nil
}

// GetExpired returns IDs of sessions with no activity for the expire period
func (m *Manager) GetExpired(ctx context.Context) ([]string, error) {
	exp := m.now().Add(-m.expiresAfter)
	m.lock.Lock()
	candidates := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		candidates = append(candidates, s)
	}
	m.lock.Unlock()

	res := []string{}
	for _, s := range candidates {
		if s.LastUsed().Before(exp) {
			res = append(res, s.ID)
		}
	}
	return res, nil
}

// Clean removes the session from memory
func (m *Manager) Clean(ctx context.Context, id string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		goapp.Log.Info().Str("ID", id).Int("active", len(m.sessions)).Msg("session dropped")
	}
	return nil
}
