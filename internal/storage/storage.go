package storage

import (
	"sort"
	"sync"

	"github.com/pakmandi/bazaar/internal/capture"
)

// SessionStore keeps the capture sessions of open listing forms
type SessionStore struct {
	sessions map[string]*capture.Session
	mu       sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*capture.Session),
	}
}

func (s *SessionStore) Get(sessionID string) (*capture.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	return session, exists
}

func (s *SessionStore) Set(session *capture.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

// GetAll returns the sessions ordered by ID
func (s *SessionStore) GetAll() []*capture.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*capture.Session, 0, len(s.sessions))
	for _, v := range s.sessions {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Delete closes and forgets a session. It reports whether the session existed.
func (s *SessionStore) Delete(sessionID string) bool {
	s.mu.Lock()
	session, exists := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if exists {
		session.Close()
	}
	return exists
}

// CloseAll closes every session, used on shutdown
func (s *SessionStore) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*capture.Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}
