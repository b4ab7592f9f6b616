package chat

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrLastSession = errors.New("cannot delete the last remaining session")
)

// Manager owns every chat session and the active-session pointer.
//
// Sessions keep insertion order so "promote the next session after a delete"
// is deterministic instead of depending on map iteration order. The manager
// always holds at least one session and the active pointer always refers to a
// live entry.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string
	activeID string
}

// NewManager returns a manager seeded with one empty active session.
func NewManager() *Manager {
	m := &Manager{sessions: make(map[string]*Session)}
	s := m.newSessionLocked()
	m.activeID = s.ID
	return m
}

// Create allocates a new empty session and makes it active.
func (m *Manager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.newSessionLocked()
	m.activeID = s.ID
	return clone(s)
}

// Get returns a snapshot of the session, or ErrNotFound.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

// Active returns a snapshot of the active session.
func (m *Manager) Active() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.sessions[m.activeID])
}

// Switch makes the session active and returns its snapshot.
func (m *Manager) Switch(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.activeID = id
	return clone(s), nil
}

// Delete removes the session and returns a snapshot of the active session
// after the delete. Deleting the sole session fails with ErrLastSession;
// deleting the active session promotes the first remaining session in
// insertion order.
func (m *Manager) Delete(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return nil, ErrNotFound
	}
	if len(m.order) == 1 {
		return nil, ErrLastSession
	}

	delete(m.sessions, id)
	for i, sid := range m.order {
		if sid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if m.activeID == id {
		m.activeID = m.order[0]
	}
	return clone(m.sessions[m.activeID]), nil
}

// AppendUser appends a user message. The first user message on an empty log
// also derives the session name, exactly once.
func (m *Manager) AppendUser(id, text string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if len(s.Messages) == 0 {
		s.Name = DeriveName(text)
	}
	s.Messages = append(s.Messages, Message{Role: RoleUser, Content: text})
	return clone(s), nil
}

// AppendAssistant appends an assistant message.
func (m *Manager) AppendAssistant(id, text string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.Messages = append(s.Messages, Message{Role: RoleAssistant, Content: text})
	return clone(s), nil
}

// History returns the session's message log in insertion order.
func (m *Manager) History(id string) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]Message, len(s.Messages))
	copy(out, s.Messages)
	return out, nil
}

// List returns snapshots of all sessions in insertion order.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, clone(m.sessions[id]))
	}
	return out
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// ActiveID returns the id of the active session.
func (m *Manager) ActiveID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeID
}

func (m *Manager) newSessionLocked() *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Name:      DefaultName,
		CreatedAt: time.Now().UTC(),
	}
	m.sessions[s.ID] = s
	m.order = append(m.order, s.ID)
	return s
}

func clone(s *Session) *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Messages != nil {
		c.Messages = make([]Message, len(s.Messages))
		copy(c.Messages, s.Messages)
	}
	return &c
}
