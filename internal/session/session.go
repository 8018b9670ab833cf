// Package session tracks multi-turn question sessions so follow-up queries
// can be refined with the previous answer.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Turn is one question/answer exchange.
type Turn struct {
	Query  string
	Answer string
	At     time.Time
}

// Session is one conversation's turn history.
type Session struct {
	ID    string
	Turns []Turn
}

// LastAnswer returns the most recent answer, or "" for a fresh session.
func (s *Session) LastAnswer() string {
	if len(s.Turns) == 0 {
		return ""
	}
	return s.Turns[len(s.Turns)-1].Answer
}

// Manager stores sessions keyed by id, safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Get returns the session with the given id, creating it if needed. An empty
// id creates a session with a fresh uuid.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		id = uuid.NewString()
	}
	s, ok := m.sessions[id]
	if !ok {
		s = &Session{ID: id}
		m.sessions[id] = s
	}
	return s
}

// Record appends a completed turn to the session.
func (m *Manager) Record(id, query, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		s = &Session{ID: id}
		m.sessions[id] = s
	}
	s.Turns = append(s.Turns, Turn{Query: query, Answer: answer, At: time.Now()})
}

// RefineQuery folds the previous answer into a follow-up query for the next
// retrieval round. With no previous answer the query is returned unchanged.
func RefineQuery(query, prevAnswer string) string {
	prevAnswer = strings.TrimSpace(prevAnswer)
	if prevAnswer == "" {
		return query
	}
	return query + " " + prevAnswer
}
