package store

import (
	"context"
	"fmt"
	"time"

	"github.com/agentnet/hub/internal/apierr"
	"github.com/agentnet/hub/internal/model"
	"github.com/agentnet/hub/internal/timefmt"
)

// UpsertMemory inserts e, or overwrites its value/type/expiry in place if a
// row with the same id already exists. Callers that want "one entry per
// (agentID, key)" semantics are responsible for reusing the same id across
// calls; UpsertMemory itself does not look up an existing row by key.
func (s *Store) UpsertMemory(ctx context.Context, e model.MemoryEntry) error {
	var expiresAt any
	if e.ExpiresAt != nil {
		expiresAt = timefmt.Format(*e.ExpiresAt)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_memory (id, agent_id, room, key, value, type, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET value = excluded.value, type = excluded.type, expires_at = excluded.expires_at
	`, e.ID, e.AgentID, e.Room, e.Key, e.Value, e.Type, timefmt.Format(e.CreatedAt), expiresAt)
	if err != nil {
		return apierr.Store(err, "upsert memory %q", e.ID)
	}
	return nil
}

// ListMemory returns the memory entries belonging to agentID, optionally
// filtered by key and/or entry type, excluding entries expired as of now.
func (s *Store) ListMemory(ctx context.Context, agentID, key, typ string, now time.Time) ([]model.MemoryEntry, error) {
	query := `SELECT id, agent_id, room, key, value, type, created_at, expires_at FROM agent_memory WHERE agent_id = ?`
	args := []any{agentID}

	if key != "" {
		query += ` AND key = ?`
		args = append(args, key)
	}
	if typ != "" {
		query += ` AND type = ?`
		args = append(args, typ)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apierr.Store(err, "list memory for agent %q", agentID)
	}
	defer func() { _ = rows.Close() }()

	var out []model.MemoryEntry
	for rows.Next() {
		e, err := scanMemory(rows)
		if err != nil {
			return nil, apierr.Store(err, "scan memory entry")
		}
		if e.Expired(now) {
			continue
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanMemory(row rowScanner) (model.MemoryEntry, error) {
	var (
		e         model.MemoryEntry
		createdAt string
		expiresAt *string
	)
	if err := row.Scan(&e.ID, &e.AgentID, &e.Room, &e.Key, &e.Value, &e.Type, &createdAt, &expiresAt); err != nil {
		return model.MemoryEntry{}, err
	}
	ct, err := timefmt.Parse(createdAt)
	if err != nil {
		return model.MemoryEntry{}, fmt.Errorf("parse created_at: %w", err)
	}
	e.CreatedAt = ct
	if expiresAt != nil {
		et, err := timefmt.Parse(*expiresAt)
		if err != nil {
			return model.MemoryEntry{}, fmt.Errorf("parse expires_at: %w", err)
		}
		e.ExpiresAt = &et
	}
	return e, nil
}
