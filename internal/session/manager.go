package session

import (
	"context"
	"sync"
	"time"

	"catalog/storefront/internal/page"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Manager struct {
	deps        page.Deps
	language    string
	idleTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewManager creates sessions whose pages are built from deps. deps.Breakpoint
// is ignored: every session gets its own.
func NewManager(deps page.Deps, language string, idleTimeout time.Duration) *Manager {
	return &Manager{
		deps:        deps,
		language:    language,
		idleTimeout: idleTimeout,
		sessions:    make(map[string]*Session),
		now:         time.Now,
	}
}

// Get returns a live session and marks it as seen.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()

	if ok {
		s.touch(m.now())
	}
	return s, ok
}

// Create starts a session for a browser reporting the given viewport width.
func (m *Manager) Create(width int) *Session {
	s := newSession(uuid.NewString(), m.deps, m.language, width, m.now())

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	log.Debugf("Session %s started (width %d)", s.ID, width)
	return s
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes the sessions idle for longer than the idle timeout and returns
// how many were evicted.
func (m *Manager) Sweep() int {
	now := m.now()

	var idle []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince(now) > m.idleTimeout {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	return len(idle)
}

// Run sweeps idle sessions every interval until ctx ends.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if evicted := m.Sweep(); evicted > 0 {
				log.Infof("🧹 Evicted %d idle sessions", evicted)
			}
		}
	}
}

// Close ends every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
