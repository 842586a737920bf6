package store

import (
	"context"
	"sync"
	"time"

	"github.com/human-tech/signatory/core"
	"github.com/human-tech/signatory/ports"
)

// MemoryStore is an in-memory implementation of the Store interface.
// Single-instance only; state does not survive restarts.
type MemoryStore struct {
	mu        sync.Mutex
	window    time.Duration
	sessions  map[string]*core.Session
	cooldowns map[string]time.Time
}

// NewMemoryStore creates a new in-memory store with the given cooldown window.
func NewMemoryStore(window time.Duration) ports.Store {
	return &MemoryStore{
		window:    window,
		sessions:  make(map[string]*core.Session),
		cooldowns: make(map[string]time.Time),
	}
}

// CheckCooldown atomically checks and records the user's last attempt.
func (s *MemoryStore) CheckCooldown(ctx context.Context, userID string, now time.Time) (bool, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.cooldowns[userID]; ok {
		if elapsed := now.Sub(last); elapsed < s.window {
			return false, s.window - elapsed, nil
		}
	}

	s.cooldowns[userID] = now
	return true, 0, nil
}

// PutSession stores the session, replacing any existing one for the user.
func (s *MemoryStore) PutSession(ctx context.Context, session *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *session
	s.sessions[session.UserID] = &clone
	return nil
}

// GetSession returns a copy of the user's pending session.
func (s *MemoryStore) GetSession(ctx context.Context, userID string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return nil, core.ErrNoActiveSession
	}

	clone := *session
	return &clone, nil
}

// BumpAttempts increments the session's failed-attempt counter.
func (s *MemoryStore) BumpAttempts(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return 0, core.ErrNoActiveSession
	}

	session.Attempts++
	return session.Attempts, nil
}

// DeleteSession consumes the session; only one caller wins.
func (s *MemoryStore) DeleteSession(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[userID]; !ok {
		return core.ErrNoActiveSession
	}

	delete(s.sessions, userID)
	return nil
}
