package api

import "net/http"

type roomStats struct {
	Name         string `json:"name"`
	AgentCount   int    `json:"agentCount"`
	MessageCount int    `json:"messageCount"`
	IsActive     bool   `json:"isActive"`
}

// handleStats implements getStats (§4.8): hub-wide and per-room totals.
func (d *Deps) handleStats(w http.ResponseWriter, r *http.Request) {
	rooms := d.State.ListRooms()

	totalAgents := 0
	totalTasks := 0
	roomsOut := make([]roomStats, 0, len(rooms))
	for _, rm := range rooms {
		agentCount := d.State.AgentCount(rm.Name)
		messageCount := len(d.State.History(rm.Name, nil, 0))
		totalAgents += agentCount
		totalTasks += len(d.State.ListTasks(rm.Name))
		roomsOut = append(roomsOut, roomStats{
			Name:         rm.Name,
			AgentCount:   agentCount,
			MessageCount: messageCount,
			IsActive:     rm.IsActive,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"totalRooms":      len(rooms),
		"totalAgents":     totalAgents,
		"totalTasks":      totalTasks,
		"sharedDirectory": d.SharedDir,
		"rooms":           roomsOut,
	})
}
