package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agentnet/hub/internal/apierr"
	"github.com/agentnet/hub/internal/model"
	"github.com/agentnet/hub/internal/timefmt"
)

// InsertTask persists a newly created task.
func (s *Store) InsertTask(ctx context.Context, t model.Task) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, room, title, description, assignee, creator, priority, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Room, t.Title, t.Description, t.Assignee, t.Creator, string(t.Priority), string(t.Status), timefmt.Format(t.CreatedAt), timefmt.Format(t.UpdatedAt))
	if err != nil {
		return apierr.Store(err, "insert task %q", t.ID)
	}
	return nil
}

// UpdateTask overwrites the mutable fields of an existing task (title,
// description, assignee, priority, status) and sets updated_at to
// t.UpdatedAt. It returns apierr.NotFound if no task with t.ID exists.
func (s *Store) UpdateTask(ctx context.Context, t model.Task) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?,
			description = ?,
			assignee = ?,
			priority = ?,
			status = ?,
			updated_at = ?
		WHERE id = ?
	`, t.Title, t.Description, t.Assignee, string(t.Priority), string(t.Status), timefmt.Format(t.UpdatedAt), t.ID)
	if err != nil {
		return apierr.Store(err, "update task %q", t.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apierr.Store(err, "update task %q: rows affected", t.ID)
	}
	if n == 0 {
		return apierr.NotFound("task %q not found", t.ID)
	}
	return nil
}

// GetTask fetches a single task by id.
func (s *Store) GetTask(ctx context.Context, id string) (model.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, room, title, description, assignee, creator, priority, status, created_at, updated_at
		FROM tasks WHERE id = ?
	`, id)
	t, err := scanTask(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Task{}, apierr.NotFound("task %q not found", id)
		}
		return model.Task{}, apierr.Store(err, "get task %q", id)
	}
	return t, nil
}

// ListTasksByRoom returns every task in room, most recently updated first.
func (s *Store) ListTasksByRoom(ctx context.Context, room string) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, room, title, description, assignee, creator, priority, status, created_at, updated_at
		FROM tasks WHERE room = ? ORDER BY updated_at DESC
	`, room)
	if err != nil {
		return nil, apierr.Store(err, "list tasks in room %q", room)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, apierr.Store(err, "scan task")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTask(row rowScanner) (model.Task, error) {
	var (
		t         model.Task
		priority  string
		status    string
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&t.ID, &t.Room, &t.Title, &t.Description, &t.Assignee, &t.Creator, &priority, &status, &createdAt, &updatedAt); err != nil {
		return model.Task{}, err
	}
	t.Priority = model.TaskPriority(priority)
	t.Status = model.TaskStatus(status)

	ct, err := timefmt.Parse(createdAt)
	if err != nil {
		return model.Task{}, fmt.Errorf("parse created_at: %w", err)
	}
	ut, err := timefmt.Parse(updatedAt)
	if err != nil {
		return model.Task{}, fmt.Errorf("parse updated_at: %w", err)
	}
	t.CreatedAt = ct
	t.UpdatedAt = ut
	return t, nil
}
