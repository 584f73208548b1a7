package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/agentnet/hub/internal/eventbus"
	"github.com/agentnet/hub/internal/id"
	"github.com/agentnet/hub/internal/mention"
	"github.com/agentnet/hub/internal/metrics"
	"github.com/agentnet/hub/internal/model"
	"github.com/agentnet/hub/internal/pushreg"
)

// WebSocket close codes for the push protocol.
const (
	wsCloseInvalidRequest = 4001
	wsCloseNotFound       = 4004
)

// registerFrame is the first frame a client must send after connecting.
type registerFrame struct {
	Event   string `json:"event"`
	AgentID string `json:"agentId"`
	Room    string `json:"room"`
}

// inboundMessageFrame is the thin echo path kept for compatibility (§4.9):
// a client may send a message frame directly over its push session instead
// of calling POST /api/send.
type inboundMessageFrame struct {
	Event   string `json:"event"`
	Content string `json:"content"`
}

// handleWebSocket implements the push session protocol of §4.9: accept,
// read a register frame binding (agentId, room), then stream message/
// task/notification events from both the room bus and the agent's
// notification bus until the client disconnects. Grounded on
// ws_watch_events.go's accept → handshake → stream → close-code-mapping
// shape, adapted from protobuf binary frames to JSON text frames.
func (d *Deps) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Debug("ws: accept failed", "error", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()

	ctx := r.Context()

	handshakeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var reg registerFrame
	if err := wsjson.Read(handshakeCtx, conn, &reg); err != nil {
		slog.Debug("ws: read register frame failed", "error", err)
		_ = conn.Close(websocket.StatusCode(wsCloseInvalidRequest), "expected register frame")
		return
	}
	if reg.AgentID == "" || reg.Room == "" {
		_ = conn.Close(websocket.StatusCode(wsCloseInvalidRequest), "register requires agentId and room")
		return
	}
	if _, ok := d.State.FindAgentByID(reg.AgentID); !ok {
		_ = conn.Close(websocket.StatusCode(wsCloseNotFound), "agent is not in any room")
		return
	}

	sess := &pushreg.Session{
		AgentID: reg.AgentID,
		Room:    reg.Room,
		SendFn: func(frame any) error {
			return wsjson.Write(ctx, conn, frame)
		},
	}
	d.Sessions.Register(sess)
	defer d.Sessions.Unregister(sess)

	roomWatcher := d.RoomBus.Watch(reg.Room)
	defer d.RoomBus.Unwatch(reg.Room, roomWatcher)
	agentWatcher := d.AgentBus.Watch(reg.AgentID)
	defer d.AgentBus.Unwatch(reg.AgentID, agentWatcher)

	inbound := make(chan inboundMessageFrame)
	readErr := make(chan error, 1)
	go func() {
		for {
			var raw json.RawMessage
			if err := wsjson.Read(ctx, conn, &raw); err != nil {
				readErr <- err
				return
			}
			var frame inboundMessageFrame
			if err := json.Unmarshal(raw, &frame); err != nil {
				continue
			}
			if frame.Event == "message" {
				select {
				case inbound <- frame:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return

		case err := <-readErr:
			if err != nil {
				slog.Debug("ws: connection closed", "agent_id", reg.AgentID, "error", err)
			}
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return

		case frame := <-inbound:
			d.echoInboundMessage(ctx, reg, frame)

		case ev := <-roomWatcher.C():
			if err := sess.Send(ev); err != nil {
				slog.Debug("ws: write failed", "agent_id", reg.AgentID, "error", err)
				_ = conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
			metrics.WSEventsTotal.WithLabelValues(string(ev.Event)).Inc()

		case ev := <-agentWatcher.C():
			if err := sess.Send(ev); err != nil {
				slog.Debug("ws: write failed", "agent_id", reg.AgentID, "error", err)
				_ = conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
			metrics.WSEventsTotal.WithLabelValues(string(ev.Event)).Inc()
		}
	}
}

// echoInboundMessage persists a message frame sent directly over the push
// session, the same way POST /api/send does.
func (d *Deps) echoInboundMessage(ctx context.Context, reg registerFrame, frame inboundMessageFrame) {
	sender, ok := d.State.FindAgentByID(reg.AgentID)
	if !ok {
		return
	}

	msg := model.Message{
		ID:        id.Generate(),
		Room:      reg.Room,
		AgentID:   sender.ID,
		AgentName: sender.Name,
		Content:   frame.Content,
		Type:      model.MessageChat,
		Mentions:  mention.Parse(frame.Content),
		Timestamp: time.Now().UTC(),
	}
	saved, err := d.State.AppendMessage(ctx, msg)
	if err != nil {
		slog.Warn("ws: failed to persist inbound message", "agent_id", reg.AgentID, "error", err)
		return
	}
	metrics.MessagesTotal.WithLabelValues(string(saved.Type)).Inc()
	d.RoomBus.Publish(reg.Room, &eventbus.Event{Event: eventbus.KindMessage, Payload: saved})

	if _, err := d.Notifier.Notify(ctx, saved); err != nil {
		slog.Warn("ws: notify failed", "agent_id", reg.AgentID, "error", err)
	}
}
