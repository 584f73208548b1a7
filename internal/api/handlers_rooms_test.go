package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin_CreatesRoomAndReturnsRoster(t *testing.T) {
	h := newTestHub(t)

	resp := h.postJSON(t, "/api/join/lab", map[string]any{"agentId": "a1", "agentName": "Alice"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	agents := body["agents"].([]any)
	require.Len(t, agents, 1)
}

func TestJoin_MissingFields(t *testing.T) {
	h := newTestHub(t)
	resp := h.postJSON(t, "/api/join/lab", map[string]any{"agentId": "a1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLeave_RemovesAgentAndAppendsSystemMessage(t *testing.T) {
	h := newTestHub(t)
	h.postJSON(t, "/api/join/lab", map[string]any{"agentId": "a1", "agentName": "Alice"})

	resp := h.postJSON(t, "/api/leave/a1", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 0, h.state.AgentCount("lab"))

	msgsResp := h.get(t, "/api/messages/lab")
	msgsBody := decodeBody(t, msgsResp)
	msgs := msgsBody["messages"].([]any)
	last := msgs[len(msgs)-1].(map[string]any)
	assert.Contains(t, last["content"], "left")
}

func TestLeave_NotFound(t *testing.T) {
	h := newTestHub(t)
	resp := h.postJSON(t, "/api/leave/ghost", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListRooms(t *testing.T) {
	h := newTestHub(t)
	h.postJSON(t, "/api/join/lab", map[string]any{"agentId": "a1", "agentName": "Alice"})

	resp := h.get(t, "/api/rooms")
	body := decodeBody(t, resp)
	rooms := body["rooms"].([]any)
	require.Len(t, rooms, 1)
	room := rooms[0].(map[string]any)
	assert.Equal(t, "lab", room["name"])
	assert.Equal(t, float64(1), room["agentCount"])
}

func TestListAgents(t *testing.T) {
	h := newTestHub(t)
	h.postJSON(t, "/api/join/lab", map[string]any{"agentId": "a1", "agentName": "Alice"})
	h.postJSON(t, "/api/join/lab", map[string]any{"agentId": "a2", "agentName": "Bob"})

	resp := h.get(t, "/api/agents/lab")
	body := decodeBody(t, resp)
	agents := body["agents"].([]any)
	assert.Len(t, agents, 2)
}
