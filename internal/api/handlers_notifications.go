package api

import (
	"net/http"
)

// handleGetNotifications implements getNotifications (§4.8).
func (d *Deps) handleGetNotifications(w http.ResponseWriter, r *http.Request) {
	agentID := r.PathValue("agentId")
	unreadOnly := r.URL.Query().Get("unreadOnly") == "true"

	notes, err := d.Notifier.List(r.Context(), agentID, unreadOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notes})
}

// handleMarkNotificationRead implements markNotificationRead (§4.8):
// idempotent, reports whether this call was the one that flipped the flag.
func (d *Deps) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	notificationID := r.PathValue("id")

	updated, err := d.Notifier.MarkRead(r.Context(), notificationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": updated})
}
