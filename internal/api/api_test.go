package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentnet/hub/internal/api"
	"github.com/agentnet/hub/internal/eventbus"
	"github.com/agentnet/hub/internal/notifier"
	"github.com/agentnet/hub/internal/pushreg"
	"github.com/agentnet/hub/internal/sharedfs"
	"github.com/agentnet/hub/internal/state"
	"github.com/agentnet/hub/internal/store"
)

// testHub wires a full in-memory stack behind a real httptest.Server, the
// same components cmd/hub assembles in production.
type testHub struct {
	server *httptest.Server
	state  *state.State
}

func newTestHub(t *testing.T) *testHub {
	t.Helper()

	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))

	st := store.New(db)
	s := state.New(st)
	require.NoError(t, s.Hydrate(context.Background()))

	roomBus := eventbus.New(nil)
	agentBus := eventbus.New(nil)
	sessions := pushreg.New()
	notify := notifier.New(st, s, sessions, agentBus)

	fs, err := sharedfs.New(t.TempDir())
	require.NoError(t, err)

	deps := &api.Deps{
		State:     s,
		Store:     st,
		Notifier:  notify,
		RoomBus:   roomBus,
		AgentBus:  agentBus,
		Sessions:  sessions,
		SharedFS:  fs,
		SharedDir: fs.Root,
	}

	srv := httptest.NewServer(api.NewRouter(deps))
	t.Cleanup(srv.Close)

	return &testHub{server: srv, state: s}
}

func (h *testHub) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(h.server.URL+path, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (h *testHub) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(h.server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
