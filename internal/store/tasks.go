package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task is a to-do item.
type Task struct {
	ID        string
	Title     string
	Notes     string
	Due       string // RFC 3339 or empty
	Done      bool
	CreatedAt time.Time
}

// TaskStore persists tasks.
type TaskStore struct {
	db *DB
}

func NewTaskStore(db *DB) *TaskStore {
	return &TaskStore{db: db}
}

// Insert writes a new task and returns its generated id.
func (s *TaskStore) Insert(ctx context.Context, t Task) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.SQLDB().ExecContext(ctx, s.db.rebind(
		`INSERT INTO tasks (id, title, notes, due_at, done, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		id, t.Title, t.Notes, t.Due, boolToInt(t.Done), now)
	if err != nil {
		return "", fmt.Errorf("task insert: %w", err)
	}
	return id, nil
}

// List returns tasks, pending ones only unless includeDone is set.
func (s *TaskStore) List(ctx context.Context, includeDone bool) ([]Task, error) {
	query := `SELECT id, title, notes, due_at, done, created_at FROM tasks`
	if !includeDone {
		query += ` WHERE done = 0`
	}
	query += ` ORDER BY created_at`
	rows, err := s.db.SQLDB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("task list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []Task
	for rows.Next() {
		var t Task
		var done int
		var created string
		if err := rows.Scan(&t.ID, &t.Title, &t.Notes, &t.Due, &done, &created); err != nil {
			return nil, fmt.Errorf("task scan: %w", err)
		}
		t.Done = done != 0
		t.CreatedAt, _ = time.Parse(time.RFC3339, created)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Complete marks a task done.
func (s *TaskStore) Complete(ctx context.Context, id string) error {
	res, err := s.db.SQLDB().ExecContext(ctx, s.db.rebind(`UPDATE tasks SET done = 1 WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("task complete: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("task %q not found", id)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
