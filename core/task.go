package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// TaskStatus is the completion state of a Task.
type TaskStatus string

const (
	// TaskPending marks an open task.
	TaskPending TaskStatus = "pending"
	// TaskCompleted marks a finished task.
	TaskCompleted TaskStatus = "completed"
)

const (
	// MaxTitleLength bounds Task.Title in characters.
	MaxTitleLength = 200
	// MaxDescriptionLength bounds Task.Description in characters.
	MaxDescriptionLength = 1000
)

// ParseTaskStatus validates a status filter or field value.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(strings.ToLower(strings.TrimSpace(s))) {
	case TaskPending:
		return TaskPending, nil
	case TaskCompleted:
		return TaskCompleted, nil
	}
	return "", NewValidationError("status", fmt.Sprintf("invalid status %q, expected pending or completed", s))
}

// Task is the business record managed by the task and storage agents.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	UserID      string     `json:"user_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewTask creates a pending task with a fresh id. Title and description are
// trimmed before validation.
func NewTask(title, description string) (Task, error) {
	now := time.Now().UTC()
	t := Task{
		ID:          NewID(),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Status:      TaskPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Validate checks the field constraints.
func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return NewValidationError("id", "task id must not be empty")
	}
	if t.Title == "" {
		return NewValidationError("title", "title cannot be empty")
	}
	if utf8.RuneCountInString(t.Title) > MaxTitleLength {
		return NewValidationError("title", fmt.Sprintf("title cannot exceed %d characters", MaxTitleLength))
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return NewValidationError("description", fmt.Sprintf("description cannot exceed %d characters", MaxDescriptionLength))
	}
	if t.Status != TaskPending && t.Status != TaskCompleted {
		return NewValidationError("status", fmt.Sprintf("invalid status %q", t.Status))
	}
	return nil
}

// MarkComplete returns a completed copy.
func (t Task) MarkComplete() Task {
	now := time.Now().UTC()
	t.Status = TaskCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	return t
}

// MarkPending returns a reopened copy.
func (t Task) MarkPending() Task {
	t.Status = TaskPending
	t.CompletedAt = nil
	t.UpdatedAt = time.Now().UTC()
	return t
}

// Update returns a copy with the given fields replaced. nil leaves a field
// untouched; an empty description clears it.
func (t Task) Update(title, description *string) (Task, error) {
	if title != nil {
		t.Title = strings.TrimSpace(*title)
	}
	if description != nil {
		t.Description = strings.TrimSpace(*description)
	}
	t.UpdatedAt = time.Now().UTC()
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// IsCompleted reports whether the task is done.
func (t Task) IsCompleted() bool { return t.Status == TaskCompleted }

// TaskFromValue accepts a Task, a *Task or a JSON-shaped map (as produced by
// decoding tool arguments) and returns a validated Task.
func TaskFromValue(v any) (Task, error) {
	var t Task
	switch x := v.(type) {
	case nil:
		return Task{}, NewValidationError("task", "missing 'task' in payload")
	case Task:
		t = x
	case *Task:
		if x == nil {
			return Task{}, NewValidationError("task", "missing 'task' in payload")
		}
		t = *x
	case map[string]any, Payload:
		raw, err := json.Marshal(x)
		if err != nil {
			return Task{}, NewValidationError("task", fmt.Sprintf("invalid task: %v", err))
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return Task{}, NewValidationError("task", fmt.Sprintf("invalid task: %v", err))
		}
	default:
		return Task{}, NewValidationError("task", fmt.Sprintf("'task' must be a task record, got %T", v))
	}
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// TaskFilter narrows a Query. Zero fields match everything.
type TaskFilter struct {
	Status  TaskStatus
	UserID  string
	Keyword string
}

// Matches reports whether t satisfies every set criterion. Keyword matching
// is case-insensitive over title and description.
func (f TaskFilter) Matches(t Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.UserID != "" && t.UserID != f.UserID {
		return false
	}
	if kw := strings.ToLower(strings.TrimSpace(f.Keyword)); kw != "" {
		if !strings.Contains(strings.ToLower(t.Title), kw) && !strings.Contains(strings.ToLower(t.Description), kw) {
			return false
		}
	}
	return true
}
