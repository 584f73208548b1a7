// Package notifier implements §4.4: given a persisted Message and its
// mentions, resolve mentioned agent-names against the room's live agent
// set, persist one Notification per resolved recipient, and push it over
// an active push session if one exists.
//
// Grounded on internal/hub/notifier's SendOrQueue persist-then-deliver
// idiom, adapted from worker-reconnect queueing (not needed here — a
// recipient without a live session simply falls back to the pull-based
// getNotifications endpoint, per SPEC_FULL.md §4.4) to per-agent mention
// delivery.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agentnet/hub/internal/eventbus"
	"github.com/agentnet/hub/internal/id"
	"github.com/agentnet/hub/internal/model"
	"github.com/agentnet/hub/internal/pushreg"
	"github.com/agentnet/hub/internal/store"
	"github.com/agentnet/hub/internal/textsanitize"
)

const previewRunes = 100

// agentResolver is the subset of *state.State the Notifier needs —
// narrowed to ease testing.
type agentResolver interface {
	FindAgentByName(room, name string) (model.Agent, bool)
}

// Notifier creates, persists, and best-effort pushes notifications.
type Notifier struct {
	store    *store.Store
	agents   agentResolver
	sessions *pushreg.Registry
	bus      *eventbus.Bus // keyed by agent id
}

// New wires a Notifier against the hub's Store, State, push registry, and
// the agent-keyed event bus instance.
func New(st *store.Store, agents agentResolver, sessions *pushreg.Registry, bus *eventbus.Bus) *Notifier {
	return &Notifier{store: st, agents: agents, sessions: sessions, bus: bus}
}

// Notify resolves msg's mentions against room's live agent set, persists
// one Notification per resolved recipient, and pushes it if the recipient
// has a live session. Unresolved mentions are silently dropped, per §4.4.
func (n *Notifier) Notify(ctx context.Context, msg model.Message) ([]model.Notification, error) {
	seen := make(map[string]struct{}, len(msg.Mentions))
	var created []model.Notification

	for _, name := range msg.Mentions {
		recipient, ok := n.agents.FindAgentByName(msg.Room, name)
		if !ok {
			continue
		}
		if _, dup := seen[recipient.ID]; dup {
			continue
		}
		seen[recipient.ID] = struct{}{}

		note := model.Notification{
			ID:        id.Generate(),
			AgentID:   recipient.ID,
			Room:      msg.Room,
			Message:   renderText(msg.AgentName, msg.Content),
			Type:      "mention",
			CreatedAt: msg.Timestamp,
		}

		if err := n.store.InsertNotification(ctx, note); err != nil {
			return created, err
		}
		created = append(created, note)

		n.push(note)
	}

	return created, nil
}

// push emits a notification event on the recipient's live session, if any,
// through exactly one delivery path. A connected websocket session watches
// the agent bus itself (internal/api.handleWebSocket) and forwards whatever
// it receives there onto the session, so publishing to the bus already
// reaches it; push only falls back to a direct sess.Send when nothing is
// watching that agent's bus key, covering a push session registered
// without a bus subscription. Delivery is best-effort: no error is returned
// to the caller, since persistence (above) already guarantees pull-based
// recovery.
func (n *Notifier) push(note model.Notification) {
	event := eventbus.Event{Event: eventbus.KindNotification, Payload: note}

	if n.bus != nil && n.bus.Active(note.AgentID) {
		n.bus.Publish(note.AgentID, &event)
		return
	}

	sess := n.sessions.Get(note.AgentID)
	if sess == nil {
		return
	}
	if err := sess.Send(event); err != nil {
		slog.Warn("failed to push notification", "agent_id", note.AgentID, "notification_id", note.ID, "error", err)
	}
}

// MarkRead sets the notification's isRead flag. Idempotent; returns
// whether the row actually changed.
func (n *Notifier) MarkRead(ctx context.Context, notificationID string) (bool, error) {
	return n.store.MarkNotificationRead(ctx, notificationID)
}

// List returns up to 50 of agentID's notifications, newest first.
func (n *Notifier) List(ctx context.Context, agentID string, unreadOnly bool) ([]model.Notification, error) {
	return n.store.ListNotifications(ctx, agentID, unreadOnly)
}

func renderText(sender, content string) string {
	preview := textsanitize.Preview(content, previewRunes)
	return fmt.Sprintf("%s mentioned you: %s…", sender, preview)
}
