package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one authenticated browser session.
type Session struct {
	ID           string
	Username     string
	CreatedAt    time.Time
	LastAccessed time.Time
}

// SessionStore maps opaque tokens to live sessions. Expiry is lazy: an
// expired session is discovered and deleted on the Get that finds it,
// or by an optional periodic sweep.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	timeout  time.Duration

	now func() time.Time // swappable for expiry tests
}

// NewSessionStore creates a store with the given inactivity timeout.
// A non-positive timeout is a configuration error, not "expire instantly".
func NewSessionStore(timeout time.Duration) (*SessionStore, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("session timeout must be positive, got %s", timeout)
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		timeout:  timeout,
		now:      time.Now,
	}, nil
}

// Create mints a new random token for the user and returns it.
// The token itself is never logged.
func (s *SessionStore) Create(username string) string {
	id := uuid.NewString()
	now := s.now()

	s.mu.Lock()
	s.sessions[id] = &Session{
		ID:           id,
		Username:     username,
		CreatedAt:    now,
		LastAccessed: now,
	}
	s.mu.Unlock()

	slog.Info("session created", "username", username)
	return id
}

// Get looks up a session by token. An expired session is deleted and
// reported as absent; a live one has its LastAccessed refreshed. The
// check-expire-or-refresh sequence runs under one lock so two concurrent
// callers can never disagree about a token's liveness.
func (s *SessionStore) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}

	now := s.now()
	if now.Sub(sess.LastAccessed) > s.timeout {
		delete(s.sessions, id)
		slog.Info("session expired", "username", sess.Username)
		return Session{}, false
	}

	sess.LastAccessed = now
	return *sess, true
}

// Remove deletes a session and reports whether it existed. Idempotent.
func (s *SessionStore) Remove(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if ok {
		slog.Info("session removed", "username", sess.Username)
	}
	return ok
}

// SweepExpired removes every session past the timeout, independent of
// read traffic, and returns how many were dropped.
func (s *SessionStore) SweepExpired() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.LastAccessed) > s.timeout {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs SweepExpired on the given interval until ctx is
// cancelled. This closes the gap lazy expiry leaves: a session that is
// never read again would otherwise occupy memory forever.
func (s *SessionStore) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := s.SweepExpired(); n > 0 {
					slog.Debug("swept expired sessions", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Len reports the number of sessions currently held, expired or not.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
