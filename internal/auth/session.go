// Package auth implements the dashboard login flow: credential verification
// against configured env credentials and an in-memory cookie session store.
// The OCS itself is authenticated separately (token query parameter on every
// upstream call); this package only guards the reporting endpoints.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"teltrip/internal/types"
)

// sessionIDBytes is the entropy of a session identifier (hex-encoded to 64
// characters).
const sessionIDBytes = 32

// Session is an authenticated dashboard session.
type Session struct {
	ID        string
	Username  string
	ExpiresAt time.Time
}

// SessionStore keeps sessions in process memory. The service is a single
// stateless instance; losing sessions on restart just forces a re-login.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a store whose sessions expire after ttl.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create mints a new session for the username.
func (s *SessionStore) Create(username string) (Session, error) {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return Session{}, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to generate session ID", err)
	}

	sess := Session{
		ID:        hex.EncodeToString(buf),
		Username:  username,
		ExpiresAt: s.now().Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess, nil
}

// Validate returns the session for the ID, or an auth error when the ID is
// unknown or the session has expired. Expired sessions are pruned on access.
func (s *SessionStore) Validate(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, types.NewAppError(types.ErrCodeAuthSessionMissing, "no valid session", nil)
	}
	if s.now().After(sess.ExpiresAt) {
		delete(s.sessions, id)
		return Session{}, types.NewAppError(types.ErrCodeAuthSessionExpired, "session has expired", nil)
	}
	return sess, nil
}

// Invalidate removes the session, if present.
func (s *SessionStore) Invalidate(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}
