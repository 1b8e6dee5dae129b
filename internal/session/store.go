// Package session tracks revoked admin sessions so logout takes effect before the token expires.
package session

import (
	"context"
	"sync"
	"time"
)

// RevocationStore records revoked session ids (JWT jti) until their tokens would have expired.
type RevocationStore interface {
	// Revoke marks id revoked until expiresAt.
	Revoke(ctx context.Context, id string, expiresAt time.Time)
	// IsRevoked reports whether id was revoked and has not yet expired.
	IsRevoked(ctx context.Context, id string) bool
}

// MemoryStore is an in-memory RevocationStore. Revocations are lost on restart, which at worst
// lets a logged-out token live until its own expiry.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]time.Time
	nowF func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[string]time.Time),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// Revoke marks id revoked until expiresAt. Expired entries are swept on each call.
func (s *MemoryStore) Revoke(ctx context.Context, id string, expiresAt time.Time) {
	if id == "" {
		return
	}
	now := s.nowF()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, exp := range s.m {
		if !exp.After(now) {
			delete(s.m, k)
		}
	}
	if expiresAt.After(now) {
		s.m[id] = expiresAt
	}
}

// IsRevoked reports whether id is currently revoked.
func (s *MemoryStore) IsRevoked(ctx context.Context, id string) bool {
	s.mu.RLock()
	exp, ok := s.m[id]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	if !exp.After(s.nowF()) {
		s.mu.Lock()
		delete(s.m, id)
		s.mu.Unlock()
		return false
	}
	return true
}

// Len returns the number of tracked revocations.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
