package storage

import (
	"context"
	"sync"

	"github.com/hupe1980/taskmesh/core"
)

// InMemoryStore is a volatile TaskStore keeping tasks in a process local
// map. It is safe for concurrent access and preserves insertion order.
// Tasks are values, so callers never share state with the store.
type InMemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]core.Task
	order []string
}

// NewInMemoryStore constructs an empty in-memory task store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tasks: make(map[string]core.Task)}
}

// Save inserts t, or replaces it in place when the id already exists.
func (s *InMemoryStore) Save(_ context.Context, t core.Task) (core.Task, error) {
	if err := t.Validate(); err != nil {
		return core.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	s.tasks[t.ID] = t
	return t, nil
}

// Get returns the task with id when it is visible to userID.
func (s *InMemoryStore) Get(_ context.Context, id, userID string) (core.Task, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok || !visible(t, userID) {
		return core.Task{}, false, nil
	}
	return t, true, nil
}

// GetAll returns every task visible to userID in insertion order.
func (s *InMemoryStore) GetAll(ctx context.Context, userID string) ([]core.Task, error) {
	return s.Query(ctx, core.TaskFilter{UserID: userID})
}

// Update replaces an existing task.
func (s *InMemoryStore) Update(_ context.Context, t core.Task) (core.Task, error) {
	if err := t.Validate(); err != nil {
		return core.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[t.ID]; !ok {
		return core.Task{}, core.NewNotFoundError("task", t.ID)
	}
	s.tasks[t.ID] = t
	return t, nil
}

// Delete removes the task and reports whether it existed for userID.
func (s *InMemoryStore) Delete(_ context.Context, id, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || !visible(t, userID) {
		return false, nil
	}
	delete(s.tasks, id)
	s.removeOrderLocked(id)
	return true, nil
}

// Query returns the tasks matching filter in insertion order.
func (s *InMemoryStore) Query(_ context.Context, filter core.TaskFilter) ([]core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Task, 0, len(s.order))
	for _, id := range s.order {
		if t := s.tasks[id]; filter.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Clear removes every task visible to userID.
func (s *InMemoryStore) Clear(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userID == "" {
		n := len(s.tasks)
		s.tasks = make(map[string]core.Task)
		s.order = nil
		return n, nil
	}

	kept := s.order[:0]
	n := 0
	for _, id := range s.order {
		if s.tasks[id].UserID == userID {
			delete(s.tasks, id)
			n++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return n, nil
}

// Len returns the number of stored tasks.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// removeOrderLocked drops id from the insertion order; caller must hold the
// write lock.
func (s *InMemoryStore) removeOrderLocked(id string) {
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

func visible(t core.Task, userID string) bool {
	return userID == "" || t.UserID == userID
}
