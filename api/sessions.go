package api

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"stock-screener/screener"
)

// ErrSessionNotFound is returned for unknown or evicted session ids.
var ErrSessionNotFound = errors.New("session not found")

// DefaultMaxSessions bounds the store; the least recently used session is
// evicted when a new one would exceed it.
const DefaultMaxSessions = 1000

type sessionEntry struct {
	mu       sync.Mutex
	session  *screener.Session
	lastUsed time.Time
}

// SessionStore keeps one screener session per conversation id. Calls on
// the same session are serialized; different sessions run in parallel.
type SessionStore struct {
	engine *screener.Engine
	max    int

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

func NewSessionStore(engine *screener.Engine, max int) *SessionStore {
	if max <= 0 {
		max = DefaultMaxSessions
	}
	return &SessionStore{engine: engine, max: max, sessions: make(map[string]*sessionEntry)}
}

// Create starts a session and returns its id.
func (s *SessionStore) Create() string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) >= s.max {
		s.evictOldest()
	}
	s.sessions[id] = &sessionEntry{session: s.engine.NewSession(), lastUsed: time.Now()}
	return id
}

func (s *SessionStore) evictOldest() {
	var oldestID string
	var oldest time.Time
	for id, e := range s.sessions {
		if oldestID == "" || e.lastUsed.Before(oldest) {
			oldestID, oldest = id, e.lastUsed
		}
	}
	delete(s.sessions, oldestID)
}

// Delete ends a session. It reports whether the session existed.
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// With runs fn with exclusive use of the session.
func (s *SessionStore) With(id string, fn func(*screener.Session)) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if ok {
		e.lastUsed = time.Now()
	}
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.session)
	return nil
}
