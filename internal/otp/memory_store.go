package otp

import (
	"bytes"
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	Entry
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore builds an in-process Store for development and tests.
func NewMemoryStore() Store {
	return &memoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *memoryStore) Save(_ context.Context, accountID string, hash []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[accountID] = memoryEntry{Entry: Entry{Hash: hash}, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memoryStore) Load(_ context.Context, accountID string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(accountID)
	if !ok {
		return Entry{}, ErrNoCode
	}
	return e.Entry, nil
}

func (s *memoryStore) IncrAttempts(_ context.Context, accountID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(accountID)
	if !ok {
		return 0, ErrNoCode
	}
	e.Attempts++
	s.entries[accountID] = e
	return e.Attempts, nil
}

func (s *memoryStore) Consume(_ context.Context, accountID string, hash []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(accountID)
	if !ok || !bytes.Equal(e.Hash, hash) {
		return false, nil
	}
	delete(s.entries, accountID)
	return true, nil
}

func (s *memoryStore) Delete(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, accountID)
	return nil
}

// live must be called with mu held.
func (s *memoryStore) live(accountID string) (memoryEntry, bool) {
	e, ok := s.entries[accountID]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, accountID)
		return memoryEntry{}, false
	}
	return e, true
}
