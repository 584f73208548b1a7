package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/agentnet/hub/internal/apierr"
	"github.com/agentnet/hub/internal/eventbus"
	"github.com/agentnet/hub/internal/id"
	"github.com/agentnet/hub/internal/mention"
	"github.com/agentnet/hub/internal/metrics"
	"github.com/agentnet/hub/internal/model"
)

const defaultHistoryLimit = 100

type sendRequest struct {
	AgentID  string         `json:"agentId"`
	Room     string         `json:"room"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// handleSend implements sendMessage (§4.3/§4.8): parse @mentions, append
// the message, notify resolved recipients, and fan it out over the room
// bus.
func (d *Deps) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.AgentID == "" || req.Content == "" {
		writeError(w, apierr.Validation("agentId and content are required"))
		return
	}

	sender, ok := d.State.FindAgentByID(req.AgentID)
	if !ok {
		writeError(w, apierr.NotFound("agent %q is not in any room", req.AgentID))
		return
	}
	room := req.Room
	if room == "" {
		room = sender.Room
	}

	msg := model.Message{
		ID:        id.Generate(),
		Room:      room,
		AgentID:   sender.ID,
		AgentName: sender.Name,
		Content:   req.Content,
		Type:      model.MessageChat,
		Mentions:  mention.Parse(req.Content),
		Metadata:  req.Metadata,
		Timestamp: time.Now().UTC(),
	}

	ctx := r.Context()
	saved, err := d.State.AppendMessage(ctx, msg)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.MessagesTotal.WithLabelValues(string(saved.Type)).Inc()
	d.RoomBus.Publish(room, &eventbus.Event{Event: eventbus.KindMessage, Payload: saved})

	notes, err := d.Notifier.Notify(ctx, saved)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, note := range notes {
		delivery := "pull"
		if d.Sessions.Connected(note.AgentID) {
			delivery = "push"
		}
		metrics.NotificationsTotal.WithLabelValues(delivery).Inc()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messageId": saved.ID,
		"mentions":  saved.Mentions,
	})
}

// handleMessages implements getMessages (§4.8): optional since/limit query
// params. An unparsable or negative limit falls back to the default;
// limit=0 is honored literally (returns none), matching the boundary rule
// in spec.md §8.
func (d *Deps) handleMessages(w http.ResponseWriter, r *http.Request) {
	room := r.PathValue("room")

	var since *time.Time
	if s := r.URL.Query().Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, apierr.Validation("invalid since timestamp: %v", err))
			return
		}
		since = &t
	}

	limit := defaultHistoryLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if l == "0" {
			limit = 0
		} else if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}

	// State.History treats limit 0 as "no cap", so limit=0 is answered here.
	msgs := []model.Message{}
	if limit > 0 {
		msgs = d.State.History(room, since, limit)
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// handleBroadcast implements broadcastMessage (§4.8): a room-wide system-
// style message prefixed with its sender label, persisted and fanned out
// like any other message.
type broadcastRequest struct {
	Content string `json:"content"`
	From    string `json:"from"`
}

func (d *Deps) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	room := r.PathValue("room")
	var req broadcastRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Content == "" {
		writeError(w, apierr.Validation("content is required"))
		return
	}
	from := req.From
	if from == "" {
		from = "broadcast"
	}

	msg := model.Message{
		ID:        id.Generate(),
		Room:      room,
		AgentName: from,
		Content:   fmt.Sprintf("[%s] %s", from, req.Content),
		Type:      model.MessageBroadcast,
		Timestamp: time.Now().UTC(),
	}

	ctx := r.Context()
	saved, err := d.State.AppendMessage(ctx, msg)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.MessagesTotal.WithLabelValues(string(saved.Type)).Inc()
	d.RoomBus.Publish(room, &eventbus.Event{Event: eventbus.KindMessage, Payload: saved})

	writeJSON(w, http.StatusOK, map[string]any{"messageId": saved.ID})
}
