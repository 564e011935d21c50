// Package sqlite provides a durable core.TaskStore backed by SQLite through
// the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/taskmesh/core"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store implements core.TaskStore using SQLite. Rows keep an autoincrement
// sequence so listings follow insertion order like the in-memory store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs the schema
// migration.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, core.NewValidationError("path", "sqlite path must not be empty")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open task db: %w", err)
	}

	if path == MemoryPath {
		// each connection of an in-memory database is a separate database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate task db: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tasks (
			seq          INTEGER PRIMARY KEY AUTOINCREMENT,
			id           TEXT UNIQUE NOT NULL,
			title        TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL DEFAULT 'pending',
			user_id      TEXT NOT NULL DEFAULT '',
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL,
			completed_at TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	`)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return core.NewStorageError("ping", err)
	}
	return nil
}

// Save inserts t or replaces the row with the same id, keeping its position.
func (s *Store) Save(ctx context.Context, t core.Task) (core.Task, error) {
	if err := t.Validate(); err != nil {
		return core.Task{}, err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, status, user_id, created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			user_id = excluded.user_id,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			completed_at = excluded.completed_at`,
		t.ID, t.Title, t.Description, string(t.Status), t.UserID,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt), formatTimePtr(t.CompletedAt),
	)
	if err != nil {
		return core.Task{}, core.NewStorageError("save", err)
	}
	return t, nil
}

// Get returns the task with id when it is visible to userID.
func (s *Store) Get(ctx context.Context, id, userID string) (core.Task, bool, error) {
	query := selectColumns + " WHERE id = ?"
	args := []any{id}
	if userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	t, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Task{}, false, nil
	}
	if err != nil {
		return core.Task{}, false, core.NewStorageError("get", err)
	}
	return t, true, nil
}

// GetAll returns every task visible to userID in insertion order.
func (s *Store) GetAll(ctx context.Context, userID string) ([]core.Task, error) {
	return s.Query(ctx, core.TaskFilter{UserID: userID})
}

// Update replaces an existing task.
func (s *Store) Update(ctx context.Context, t core.Task) (core.Task, error) {
	if err := t.Validate(); err != nil {
		return core.Task{}, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, status = ?, user_id = ?, updated_at = ?, completed_at = ?
		WHERE id = ?`,
		t.Title, t.Description, string(t.Status), t.UserID,
		formatTime(t.UpdatedAt), formatTimePtr(t.CompletedAt), t.ID,
	)
	if err != nil {
		return core.Task{}, core.NewStorageError("update", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Task{}, core.NewNotFoundError("task", t.ID)
	}
	return t, nil
}

// Delete removes the task and reports whether it existed for userID.
func (s *Store) Delete(ctx context.Context, id, userID string) (bool, error) {
	query := "DELETE FROM tasks WHERE id = ?"
	args := []any{id}
	if userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, core.NewStorageError("delete", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Query returns the tasks matching filter in insertion order. Status and
// user are filtered in SQL; keyword matching reuses TaskFilter.Matches so
// both stores agree on case folding.
func (s *Store) Query(ctx context.Context, filter core.TaskFilter) ([]core.Task, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}

	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.NewStorageError("query", err)
	}
	defer rows.Close()

	tasks := []core.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, core.NewStorageError("query", err)
		}
		if filter.Matches(t) {
			tasks = append(tasks, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStorageError("query", err)
	}
	return tasks, nil
}

// Clear removes every task visible to userID.
func (s *Store) Clear(ctx context.Context, userID string) (int, error) {
	query := "DELETE FROM tasks"
	var args []any
	if userID != "" {
		query += " WHERE user_id = ?"
		args = append(args, userID)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, core.NewStorageError("clear", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

const selectColumns = `SELECT id, title, description, status, user_id, created_at, updated_at, completed_at FROM tasks`

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (core.Task, error) {
	var (
		t                    core.Task
		status               string
		createdAt, updatedAt string
		completedAt          sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &t.UserID, &createdAt, &updatedAt, &completedAt); err != nil {
		return core.Task{}, err
	}

	t.Status = core.TaskStatus(status)

	var err error
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return core.Task{}, fmt.Errorf("parse created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return core.Task{}, fmt.Errorf("parse updated_at: %w", err)
	}
	if completedAt.Valid && completedAt.String != "" {
		ts, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return core.Task{}, fmt.Errorf("parse completed_at: %w", err)
		}
		t.CompletedAt = &ts
	}
	return t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
