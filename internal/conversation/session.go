package conversation

import (
	"sync"

	"github.com/google/uuid"
)

// Session pairs a state with its own lock. Concurrent actions against the
// same session serialize here; different sessions never contend.
type Session struct {
	mu    sync.Mutex
	State *State
}

// Do runs fn with the session's state under its lock.
func (s *Session) Do(fn func(st *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.State)
}

// SessionStore owns every live session, keyed by session id. States are
// in-memory only; teardown discards them.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Create starts a fresh session and returns it with its generated id.
func (ss *SessionStore) Create() *Session {
	id := uuid.NewString()
	sess := &Session{State: NewState(id)}
	ss.mu.Lock()
	ss.sessions[id] = sess
	ss.mu.Unlock()
	return sess
}

// GetOrCreate returns the session for an externally supplied key (e.g. a bot
// user id), creating it on first use. One conversation per key at a time.
func (ss *SessionStore) GetOrCreate(id string) *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if sess, ok := ss.sessions[id]; ok {
		return sess
	}
	sess := &Session{State: NewState(id)}
	ss.sessions[id] = sess
	return sess
}

// Get looks up a session by id.
func (ss *SessionStore) Get(id string) (*Session, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	sess, ok := ss.sessions[id]
	return sess, ok
}

// Delete tears a session down. Its state is gone for good.
func (ss *SessionStore) Delete(id string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, id)
}

// Len reports the number of live sessions.
func (ss *SessionStore) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.sessions)
}
