package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentnet/hub/internal/eventbus"
	"github.com/agentnet/hub/internal/logging"
	"github.com/agentnet/hub/internal/metrics"
	"github.com/agentnet/hub/internal/notifier"
	"github.com/agentnet/hub/internal/pushreg"
	"github.com/agentnet/hub/internal/sharedfs"
	"github.com/agentnet/hub/internal/state"
	"github.com/agentnet/hub/internal/store"
)

// Deps collects every component the API surface dispatches into.
type Deps struct {
	State     *state.State
	Store     *store.Store
	Notifier  *notifier.Notifier
	RoomBus   *eventbus.Bus // keyed by room name: message/task events
	AgentBus  *eventbus.Bus // keyed by agent id: notification events
	Sessions  *pushreg.Registry
	SharedFS  *sharedfs.FS
	SharedDir string
}

// NewRouter builds the hub's HTTP handler: the JSON API surface of §6,
// the push endpoint of §4.9, and the ambient ops surface of SPEC_FULL.md
// §6 (/metrics, /healthz) — wrapped with the teacher's own logging and
// Prometheus middleware, matching hub/server.go's wiring order.
func NewRouter(deps *Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/join/{room}", deps.handleJoin)
	mux.HandleFunc("POST /api/leave/{agentId}", deps.handleLeave)
	mux.HandleFunc("POST /api/send", deps.handleSend)
	mux.HandleFunc("GET /api/messages/{room}", deps.handleMessages)
	mux.HandleFunc("GET /api/rooms", deps.handleListRooms)
	mux.HandleFunc("GET /api/agents/{room}", deps.handleListAgents)
	mux.HandleFunc("POST /api/tasks", deps.handleCreateTask)
	mux.HandleFunc("GET /api/tasks/{room}", deps.handleListTasks)
	mux.HandleFunc("POST /api/tasks/{id}/update", deps.handleUpdateTask)
	mux.HandleFunc("POST /api/broadcast/{room}", deps.handleBroadcast)
	mux.HandleFunc("POST /api/memory/{agentId}", deps.handleStoreMemory)
	mux.HandleFunc("GET /api/memory/{agentId}", deps.handleGetMemory)
	mux.HandleFunc("GET /api/notifications/{agentId}", deps.handleGetNotifications)
	mux.HandleFunc("POST /api/notifications/{id}/read", deps.handleMarkNotificationRead)
	mux.HandleFunc("GET /api/stats", deps.handleStats)
	mux.HandleFunc("GET /api/ws", deps.handleWebSocket)

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", deps.handleHealthz)

	return logging.HTTPMiddleware(metrics.HTTPMiddleware(mux))
}

func (d *Deps) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := d.Store.DB().PingContext(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
