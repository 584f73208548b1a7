package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkNotificationRead_Idempotent(t *testing.T) {
	h := newTestHub(t)
	h.postJSON(t, "/api/join/lab", map[string]any{"agentId": "a1", "agentName": "Alice"})
	h.postJSON(t, "/api/join/lab", map[string]any{"agentId": "a2", "agentName": "Bob"})
	h.postJSON(t, "/api/send", map[string]any{"agentId": "a1", "content": "hi @Bob"})

	listResp := h.get(t, "/api/notifications/a2")
	list := decodeBody(t, listResp)
	notes := list["notifications"].([]any)
	require.Len(t, notes, 1)
	noteID := notes[0].(map[string]any)["id"].(string)

	first := decodeBody(t, h.postJSON(t, "/api/notifications/"+noteID+"/read", map[string]any{}))
	assert.Equal(t, true, first["updated"])

	second := decodeBody(t, h.postJSON(t, "/api/notifications/"+noteID+"/read", map[string]any{}))
	assert.Equal(t, false, second["updated"])
}

func TestGetNotifications_UnreadOnly(t *testing.T) {
	h := newTestHub(t)
	h.postJSON(t, "/api/join/lab", map[string]any{"agentId": "a1", "agentName": "Alice"})
	h.postJSON(t, "/api/join/lab", map[string]any{"agentId": "a2", "agentName": "Bob"})
	h.postJSON(t, "/api/send", map[string]any{"agentId": "a1", "content": "hi @Bob"})

	resp := h.get(t, "/api/notifications/a2?unreadOnly=true")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Len(t, body["notifications"].([]any), 1)
}
