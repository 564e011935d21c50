package session

import (
	"context"
	"sync"

	"github.com/hupe1980/taskmesh/model"
)

// InMemoryStore is a volatile conversation store keeping histories in a
// process local map. It is safe for concurrent access. Histories are copied
// on the way in and out so callers never share a backing array with the
// store.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string][]model.Content
}

// NewInMemoryStore constructs an empty in-memory conversation store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{conversations: make(map[string][]model.Content)}
}

// Load returns a copy of the history stored under id.
func (s *InMemoryStore) Load(_ context.Context, id string) ([]model.Content, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history, ok := s.conversations[id]
	if !ok {
		return nil, false, nil
	}
	return clone(history), true, nil
}

// Save replaces the history stored under id.
func (s *InMemoryStore) Save(_ context.Context, id string, history []model.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[id] = clone(history)
	return nil
}

// Delete removes id and reports whether it existed.
func (s *InMemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.conversations[id]
	delete(s.conversations, id)
	return ok, nil
}

// Len returns the number of stored conversations.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

func clone(history []model.Content) []model.Content {
	out := make([]model.Content, len(history))
	copy(out, history)
	return out
}
