package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/agentnet/hub/internal/apierr"
	"github.com/agentnet/hub/internal/model"
	"github.com/agentnet/hub/internal/timefmt"
)

// UpsertRoom creates or updates a room row.
func (s *Store) UpsertRoom(ctx context.Context, r model.Room) error {
	settings, err := json.Marshal(r.Settings)
	if err != nil {
		return apierr.Validation("marshal room settings: %v", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rooms (name, created_at, is_active, settings)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET is_active = excluded.is_active, settings = excluded.settings
	`, r.Name, timefmt.Format(r.CreatedAt), boolToInt(r.IsActive), string(settings))
	if err != nil {
		return apierr.Store(err, "upsert room %q", r.Name)
	}
	return nil
}

// GetRoom fetches a single room by name.
func (s *Store) GetRoom(ctx context.Context, name string) (model.Room, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, created_at, is_active, settings FROM rooms WHERE name = ?`, name)
	r, err := scanRoom(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Room{}, apierr.NotFound("room %q not found", name)
		}
		return model.Room{}, apierr.Store(err, "get room %q", name)
	}
	return r, nil
}

// ListActiveRooms returns every room with is_active = true.
func (s *Store) ListActiveRooms(ctx context.Context) ([]model.Room, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, created_at, is_active, settings FROM rooms WHERE is_active = 1 ORDER BY created_at ASC`)
	if err != nil {
		return nil, apierr.Store(err, "list active rooms")
	}
	defer func() { _ = rows.Close() }()

	var out []model.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, apierr.Store(err, "scan room")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (model.Room, error) {
	var (
		r          model.Room
		createdAt  string
		isActive   int
		settingsJS string
	)
	if err := row.Scan(&r.Name, &createdAt, &isActive, &settingsJS); err != nil {
		return model.Room{}, err
	}
	t, err := timefmt.Parse(createdAt)
	if err != nil {
		return model.Room{}, fmt.Errorf("parse created_at: %w", err)
	}
	r.CreatedAt = t
	r.IsActive = isActive != 0
	if settingsJS != "" {
		_ = json.Unmarshal([]byte(settingsJS), &r.Settings)
	}
	return r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
