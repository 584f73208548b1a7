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

// UpsertAgent creates or updates an agent row, keyed by id.
func (s *Store) UpsertAgent(ctx context.Context, a model.Agent) error {
	caps, err := json.Marshal(a.Capabilities)
	if err != nil {
		return apierr.Validation("marshal agent capabilities: %v", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agents (id, name, room, capabilities, joined_at, last_active, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			room = excluded.room,
			capabilities = excluded.capabilities,
			last_active = excluded.last_active,
			status = excluded.status
	`, a.ID, a.Name, a.Room, string(caps), timefmt.Format(a.JoinedAt), timefmt.Format(a.LastActive), string(a.Status))
	if err != nil {
		return apierr.Store(err, "upsert agent %q", a.ID)
	}
	return nil
}

// GetAgent fetches a single agent by id.
func (s *Store) GetAgent(ctx context.Context, id string) (model.Agent, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, room, capabilities, joined_at, last_active, status FROM agents WHERE id = ?`, id)
	a, err := scanAgent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Agent{}, apierr.NotFound("agent %q not found", id)
		}
		return model.Agent{}, apierr.Store(err, "get agent %q", id)
	}
	return a, nil
}

// ListAgentsByRoom returns every agent row currently assigned to room,
// regardless of status (offline agents are included; callers needing the
// live set should consult internal/state instead).
func (s *Store) ListAgentsByRoom(ctx context.Context, room string) ([]model.Agent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, room, capabilities, joined_at, last_active, status FROM agents WHERE room = ? ORDER BY joined_at ASC`, room)
	if err != nil {
		return nil, apierr.Store(err, "list agents in room %q", room)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, apierr.Store(err, "scan agent")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAgent(row rowScanner) (model.Agent, error) {
	var (
		a          model.Agent
		joinedAt   string
		lastActive string
		capsJS     string
		status     string
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Room, &capsJS, &joinedAt, &lastActive, &status); err != nil {
		return model.Agent{}, err
	}
	jt, err := timefmt.Parse(joinedAt)
	if err != nil {
		return model.Agent{}, fmt.Errorf("parse joined_at: %w", err)
	}
	lt, err := timefmt.Parse(lastActive)
	if err != nil {
		return model.Agent{}, fmt.Errorf("parse last_active: %w", err)
	}
	a.JoinedAt = jt
	a.LastActive = lt
	a.Status = model.AgentStatus(status)
	if capsJS != "" {
		_ = json.Unmarshal([]byte(capsJS), &a.Capabilities)
	}
	return a, nil
}
