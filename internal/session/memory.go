package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a map-backed store for dev and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

// Put inserts a new session.
func (s *MemoryStore) Put(ctx context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return ErrDuplicateID
	}
	s.sessions[sess.ID] = sess
	return nil
}

// Get returns the session for id.
func (s *MemoryStore) Get(ctx context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

// MarkExpired deactivates the session; unknown ids are a no-op.
func (s *MemoryStore) MarkExpired(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || !sess.Active {
		return nil
	}
	sess.Active = false
	s.sessions[id] = sess
	return nil
}

// Reap deactivates every session whose expiry has passed.
func (s *MemoryStore) Reap(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reaped := 0
	for id, sess := range s.sessions {
		if sess.Active && sess.Expired(now) {
			sess.Active = false
			s.sessions[id] = sess
			reaped++
		}
	}
	return reaped, nil
}
