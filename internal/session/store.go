// Package session holds authenticated-user state in process memory, keyed
// by an opaque cookie token. A multi-instance deployment would need an
// external store; this service runs as a single process.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/models"
)

// Session is the server-held state behind one cookie token.
type Session struct {
	Token     string
	UserID    int64
	Email     string
	UserName  string
	UserRowID int64
	ExpiresAt time.Time
}

// Store is an in-memory session store with a fixed TTL.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// New creates a session for the user under a fresh opaque token.
func (s *Store) New(user *models.User) *Session {
	sess := &Session{
		Token:     uuid.NewString(),
		UserID:    user.UserID,
		Email:     user.Email,
		UserName:  user.UserName,
		UserRowID: user.RowID,
		ExpiresAt: s.now().Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[sess.Token] = sess
	s.mu.Unlock()

	return sess
}

// Get returns the session for a token. Expired sessions count as misses and
// are removed on access.
func (s *Store) Get(token string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	if s.now().After(sess.ExpiresAt) {
		delete(s.sessions, token)
		return nil, false
	}

	return sess, true
}

// Destroy removes the session for a token, if any.
func (s *Store) Destroy(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// purgeExpired drops every expired session.
func (s *Store) purgeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for token, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}

// Janitor periodically evicts expired sessions until ctx is done. Eviction
// also happens lazily in Get; the janitor just bounds memory for tokens that
// are never presented again.
func (s *Store) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.purgeExpired()
		}
	}
}
