package core

import "context"

// TaskStore persists Task records.
//
// An empty userID argument means "all users". Implementations must be safe
// for concurrent use.
type TaskStore interface {
	// Save inserts or replaces t.
	Save(ctx context.Context, t Task) (Task, error)
	// Get returns the task with id; ok is false when it does not exist or
	// belongs to a different user.
	Get(ctx context.Context, id, userID string) (Task, bool, error)
	// GetAll returns every task in creation order.
	GetAll(ctx context.Context, userID string) ([]Task, error)
	// Update replaces an existing task. Unknown ids yield a not found error.
	Update(ctx context.Context, t Task) (Task, error)
	// Delete removes the task and reports whether it existed.
	Delete(ctx context.Context, id, userID string) (bool, error)
	// Query returns the tasks matching filter in creation order.
	Query(ctx context.Context, filter TaskFilter) ([]Task, error)
	// Clear removes every task and returns how many were removed.
	Clear(ctx context.Context, userID string) (int, error)
}

// Pinger is implemented by stores that can verify connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
