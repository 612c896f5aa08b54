package runtime

import "sync"

// Session owns the ordered message history of one conversation. Sessions
// are created lazily and retained for the process lifetime.
type Session struct {
	ID string

	mu      sync.Mutex
	history []Content
}

// Append adds content to the session history.
func (s *Session) Append(c Content) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, c)
}

// History returns a copy of the session's ordered history.
func (s *Session) History() []Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Content, len(s.history))
	copy(out, s.history)
	return out
}

// SessionService maps conversation ids to sessions. Get-or-create is
// atomic: concurrent first access for the same id yields one session.
type SessionService struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionService builds an empty service.
func NewSessionService() *SessionService {
	return &SessionService{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for id, creating it on first use.
// created reports whether this call created it.
func (s *SessionService) GetOrCreate(id string) (session *Session, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess, false
	}
	sess := &Session{ID: id}
	s.sessions[id] = sess
	return sess, true
}

// Len returns the number of live sessions.
func (s *SessionService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
