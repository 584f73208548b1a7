package api

import (
	"net/http"
	"time"

	"github.com/agentnet/hub/internal/apierr"
	"github.com/agentnet/hub/internal/id"
	"github.com/agentnet/hub/internal/model"
)

type storeMemoryRequest struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
	ExpiresIn *int64 `json:"expiresIn"`
}

// handleStoreMemory implements storeMemory (§4.8). Memory is loaded lazily
// per request (§4.2), so this bypasses State and writes straight through
// to the Store.
func (d *Deps) handleStoreMemory(w http.ResponseWriter, r *http.Request) {
	agentID := r.PathValue("agentId")
	var req storeMemoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Key == "" {
		writeError(w, apierr.Validation("key is required"))
		return
	}
	typ := req.Type
	if typ == "" {
		typ = "note"
	}

	now := time.Now().UTC()
	entry := model.MemoryEntry{
		ID:        id.Generate(),
		AgentID:   agentID,
		Key:       req.Key,
		Value:     req.Value,
		Type:      typ,
		CreatedAt: now,
	}
	if agent, ok := d.State.FindAgentByID(agentID); ok {
		entry.Room = agent.Room
	}
	if req.ExpiresIn != nil {
		exp := now.Add(time.Duration(*req.ExpiresIn) * time.Second)
		entry.ExpiresAt = &exp
	}

	if err := d.Store.UpsertMemory(r.Context(), entry); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
}

// handleGetMemory implements getMemory (§4.8): active (unexpired) entries
// for agentID, newest first, optionally filtered by key and/or type.
func (d *Deps) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	agentID := r.PathValue("agentId")
	key := r.URL.Query().Get("key")
	typ := r.URL.Query().Get("type")

	entries, err := d.Store.ListMemory(r.Context(), agentID, key, typ, time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
