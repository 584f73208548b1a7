package store

import (
	"context"
	"fmt"

	"github.com/agentnet/hub/internal/apierr"
	"github.com/agentnet/hub/internal/model"
	"github.com/agentnet/hub/internal/timefmt"
)

// maxNotifications caps how many rows ListNotifications returns, even when
// the caller doesn't pass an explicit limit.
const maxNotifications = 50

// InsertNotification persists a notification.
func (s *Store) InsertNotification(ctx context.Context, n model.Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, agent_id, room, message, type, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.AgentID, n.Room, n.Message, n.Type, boolToInt(n.IsRead), timefmt.Format(n.CreatedAt))
	if err != nil {
		return apierr.Store(err, "insert notification %q", n.ID)
	}
	return nil
}

// ListNotifications returns agentID's notifications, newest first, capped
// at maxNotifications. When unreadOnly is true, read notifications are
// excluded.
func (s *Store) ListNotifications(ctx context.Context, agentID string, unreadOnly bool) ([]model.Notification, error) {
	query := `SELECT id, agent_id, room, message, type, is_read, created_at FROM notifications WHERE agent_id = ?`
	args := []any{agentID}

	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, maxNotifications)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apierr.Store(err, "list notifications for agent %q", agentID)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, apierr.Store(err, "scan notification")
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead sets is_read = true for id. It returns whether the
// row existed and was changed by this call (false if already read, or
// nonexistent).
func (s *Store) MarkNotificationRead(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ? AND is_read = 0`, id)
	if err != nil {
		return false, apierr.Store(err, "mark notification %q read", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apierr.Store(err, "mark notification %q read: rows affected", id)
	}
	return n > 0, nil
}

func scanNotification(row rowScanner) (model.Notification, error) {
	var (
		n         model.Notification
		isRead    int
		createdAt string
	)
	if err := row.Scan(&n.ID, &n.AgentID, &n.Room, &n.Message, &n.Type, &isRead, &createdAt); err != nil {
		return model.Notification{}, err
	}
	n.IsRead = isRead != 0
	t, err := timefmt.Parse(createdAt)
	if err != nil {
		return model.Notification{}, fmt.Errorf("parse created_at: %w", err)
	}
	n.CreatedAt = t
	return n, nil
}
