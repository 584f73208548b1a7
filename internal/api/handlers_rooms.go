package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/agentnet/hub/internal/apierr"
	"github.com/agentnet/hub/internal/eventbus"
	"github.com/agentnet/hub/internal/id"
	"github.com/agentnet/hub/internal/metrics"
	"github.com/agentnet/hub/internal/model"
)

type joinRequest struct {
	AgentID      string         `json:"agentId"`
	AgentName    string         `json:"agentName"`
	Capabilities map[string]any `json:"capabilities"`
}

// handleJoin implements joinRoom (§4.8): upsert room, add agent, append a
// system "<name> joined" message, return room snapshot + roster.
// Idempotent on repeat (agentId, roomName).
func (d *Deps) handleJoin(w http.ResponseWriter, r *http.Request) {
	room := r.PathValue("room")
	var req joinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.AgentID == "" || req.AgentName == "" {
		writeError(w, apierr.Validation("agentId and agentName are required"))
		return
	}

	ctx := r.Context()
	snap, err := d.State.JoinRoom(ctx, room, model.Agent{
		ID:           req.AgentID,
		Name:         req.AgentName,
		Capabilities: req.Capabilities,
		Status:       model.AgentOnline,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	sysMsg := model.Message{
		ID:        id.Generate(),
		Room:      room,
		AgentName: "System",
		Content:   fmt.Sprintf("%s joined", req.AgentName),
		Type:      model.MessageSystem,
		Timestamp: time.Now().UTC(),
	}
	if _, err := d.State.AppendMessage(ctx, sysMsg); err != nil {
		writeError(w, err)
		return
	}
	metrics.MessagesTotal.WithLabelValues(string(sysMsg.Type)).Inc()
	metrics.ActiveAgents.Set(float64(totalActiveAgents(d)))
	d.RoomBus.Publish(room, &eventbus.Event{Event: eventbus.KindMessage, Payload: sysMsg})

	writeJSON(w, http.StatusOK, map[string]any{
		"room":   snap,
		"agents": d.State.ListAgents(room),
	})
}

// handleLeave implements leaveRoom (§4.8): remove from room, append a
// system "<name> left" message. The agent's push session (if any) is left
// alone here — it is cleared by the websocket handler on disconnect, per
// §4.9's push-binding/room-membership separation.
func (d *Deps) handleLeave(w http.ResponseWriter, r *http.Request) {
	agentID := r.PathValue("agentId")
	ctx := r.Context()

	before, hadRoom := d.State.FindAgentByID(agentID)

	left, err := d.State.LeaveRoom(ctx, agentID)
	if err != nil {
		writeError(w, err)
		return
	}

	if hadRoom && before.Room != "" {
		sysMsg := model.Message{
			ID:        id.Generate(),
			Room:      before.Room,
			AgentName: "System",
			Content:   fmt.Sprintf("%s left", left.Name),
			Type:      model.MessageSystem,
			Timestamp: time.Now().UTC(),
		}
		if _, err := d.State.AppendMessage(ctx, sysMsg); err == nil {
			metrics.MessagesTotal.WithLabelValues(string(sysMsg.Type)).Inc()
			d.RoomBus.Publish(before.Room, &eventbus.Event{Event: eventbus.KindMessage, Payload: sysMsg})
		}
	}
	metrics.ActiveAgents.Set(float64(totalActiveAgents(d)))

	writeJSON(w, http.StatusOK, nil)
}

// handleListRooms implements listRooms.
func (d *Deps) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := d.State.ListRooms()
	type roomView struct {
		Name       string        `json:"name"`
		AgentCount int           `json:"agentCount"`
		Agents     []model.Agent `json:"agents"`
		CreatedAt  time.Time     `json:"createdAt"`
	}
	out := make([]roomView, 0, len(rooms))
	for _, rm := range rooms {
		out = append(out, roomView{
			Name:       rm.Name,
			AgentCount: d.State.AgentCount(rm.Name),
			Agents:     d.State.ListAgents(rm.Name),
			CreatedAt:  rm.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": out})
}

// handleListAgents implements listAgents.
func (d *Deps) handleListAgents(w http.ResponseWriter, r *http.Request) {
	room := r.PathValue("room")
	writeJSON(w, http.StatusOK, map[string]any{"agents": d.State.ListAgents(room)})
}

func totalActiveAgents(d *Deps) int {
	total := 0
	for _, rm := range d.State.ListRooms() {
		total += d.State.AgentCount(rm.Name)
	}
	return total
}
