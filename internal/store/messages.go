package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentnet/hub/internal/apierr"
	"github.com/agentnet/hub/internal/model"
	"github.com/agentnet/hub/internal/msgcodec"
	"github.com/agentnet/hub/internal/timefmt"
)

// InsertMessage persists a message. Content is passed through msgcodec so
// large payloads are stored zstd-compressed; small ones are stored as-is.
func (s *Store) InsertMessage(ctx context.Context, m model.Message) error {
	mentions, err := json.Marshal(m.Mentions)
	if err != nil {
		return apierr.Validation("marshal message mentions: %v", err)
	}
	metadata, err := json.Marshal(m.Metadata)
	if err != nil {
		return apierr.Validation("marshal message metadata: %v", err)
	}

	content, compression := msgcodec.Encode([]byte(m.Content))

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (id, room, agent_id, agent_name, content, content_compression, type, mentions, metadata, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Room, m.AgentID, m.AgentName, content, string(compression), string(m.Type), string(mentions), string(metadata), timefmt.Format(m.Timestamp))
	if err != nil {
		return apierr.Store(err, "insert message %q", m.ID)
	}
	return nil
}

// ListMessages returns messages for room in ascending timestamp order,
// optionally restricted to those strictly after since, and capped at limit
// (a limit <= 0 means no cap). When capped, the cap keeps the most recent
// limit messages, not the oldest — the same "tail window" contract as
// internal/state.State's in-memory History.
func (s *Store) ListMessages(ctx context.Context, room string, since *time.Time, limit int) ([]model.Message, error) {
	query := `SELECT id, room, agent_id, agent_name, content, content_compression, type, mentions, metadata, timestamp
		FROM messages WHERE room = ?`
	args := []any{room}

	if since != nil {
		query += ` AND timestamp > ?`
		args = append(args, timefmt.Format(*since))
	}

	descending := limit > 0
	if descending {
		query += ` ORDER BY timestamp DESC LIMIT ?`
		args = append(args, limit)
	} else {
		query += ` ORDER BY timestamp ASC`
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apierr.Store(err, "list messages in room %q", room)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, apierr.Store(err, "scan message")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if descending {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func scanMessage(row rowScanner) (model.Message, error) {
	var (
		m           model.Message
		content     []byte
		compression string
		msgType     string
		mentionsJS  string
		metadataJS  string
		timestamp   string
	)
	if err := row.Scan(&m.ID, &m.Room, &m.AgentID, &m.AgentName, &content, &compression, &msgType, &mentionsJS, &metadataJS, &timestamp); err != nil {
		return model.Message{}, err
	}

	plain, err := msgcodec.Decode(content, msgcodec.Compression(compression))
	if err != nil {
		return model.Message{}, fmt.Errorf("decode message content: %w", err)
	}
	m.Content = string(plain)
	m.Type = model.MessageType(msgType)

	if mentionsJS != "" {
		_ = json.Unmarshal([]byte(mentionsJS), &m.Mentions)
	}
	if metadataJS != "" {
		_ = json.Unmarshal([]byte(metadataJS), &m.Metadata)
	}

	t, err := timefmt.Parse(timestamp)
	if err != nil {
		return model.Message{}, fmt.Errorf("parse timestamp: %w", err)
	}
	m.Timestamp = t
	return m, nil
}
