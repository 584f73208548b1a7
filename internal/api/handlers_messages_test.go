package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_PersistsAndParsesMentions(t *testing.T) {
	h := newTestHub(t)
	h.postJSON(t, "/api/join/lab", map[string]any{"agentId": "a1", "agentName": "Alice"})
	h.postJSON(t, "/api/join/lab", map[string]any{"agentId": "a2", "agentName": "Bob"})

	resp := h.postJSON(t, "/api/send", map[string]any{
		"agentId": "a1",
		"content": "hey @Bob check this out",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	mentions := body["mentions"].([]any)
	require.Len(t, mentions, 1)
	assert.Equal(t, "Bob", mentions[0])

	notesResp := h.get(t, "/api/notifications/a2")
	notesBody := decodeBody(t, notesResp)
	notes := notesBody["notifications"].([]any)
	require.Len(t, notes, 1)
}

func TestSend_UnknownSenderNotFound(t *testing.T) {
	h := newTestHub(t)
	resp := h.postJSON(t, "/api/send", map[string]any{"agentId": "ghost", "content": "hi"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSend_MissingContent(t *testing.T) {
	h := newTestHub(t)
	h.postJSON(t, "/api/join/lab", map[string]any{"agentId": "a1", "agentName": "Alice"})
	resp := h.postJSON(t, "/api/send", map[string]any{"agentId": "a1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMessages_LimitZeroReturnsEmpty(t *testing.T) {
	h := newTestHub(t)
	h.postJSON(t, "/api/join/lab", map[string]any{"agentId": "a1", "agentName": "Alice"})
	h.postJSON(t, "/api/send", map[string]any{"agentId": "a1", "content": "hi"})

	resp := h.get(t, "/api/messages/lab?limit=0")
	body := decodeBody(t, resp)
	msgs := body["messages"].([]any)
	assert.Len(t, msgs, 0)
}

func TestBroadcast_PrefixesContentAndOrdersWithSend(t *testing.T) {
	h := newTestHub(t)
	h.postJSON(t, "/api/join/lab", map[string]any{"agentId": "a1", "agentName": "Alice"})

	h.postJSON(t, "/api/broadcast/lab", map[string]any{"content": "X", "from": "Op"})
	h.postJSON(t, "/api/send", map[string]any{"agentId": "a1", "content": "Y"})

	resp := h.get(t, "/api/messages/lab")
	body := decodeBody(t, resp)
	msgs := body["messages"].([]any)

	var contents []string
	for _, m := range msgs {
		contents = append(contents, m.(map[string]any)["content"].(string))
	}
	assert.Contains(t, contents, "[Op] X")
	assert.Contains(t, contents, "Y")

	xIdx, yIdx := -1, -1
	for i, c := range contents {
		if c == "[Op] X" {
			xIdx = i
		}
		if c == "Y" {
			yIdx = i
		}
	}
	assert.Less(t, xIdx, yIdx)
}
