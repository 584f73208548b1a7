// Package api is the hub's request/response surface (§4.8, §6): plain
// JSON handlers registered on a net/http.ServeMux, wrapped by the hub's
// logging and metrics middleware — no ConnectRPC, since this system's
// wire contract is JSON REST, not protobuf.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/agentnet/hub/internal/apierr"
)

// writeJSON writes payload merged with {"success": true} as the response
// body, per spec.md §6's success shape.
func writeJSON(w http.ResponseWriter, status int, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["success"] = true

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("api: failed to encode response", "error", err)
	}
}

// writeError writes the §6 failure shape ({"success": false, "error":
// "..."}) with the status code apierr.StatusCode maps err to.
func writeError(w http.ResponseWriter, err error) {
	status := apierr.StatusCode(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   err.Error(),
	})
}

// decodeJSON decodes the request body into dst, reporting a validation
// error on malformed JSON.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return apierr.Validation("request body is required")
	}
	defer func() { _ = r.Body.Close() }()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierr.Validation("invalid request body: %v", err)
	}
	return nil
}
