package pushreg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentnet/hub/internal/pushreg"
)

func newSession(agentID string) *pushreg.Session {
	return &pushreg.Session{
		AgentID: agentID,
		Room:    "lab",
		SendFn:  func(any) error { return nil },
	}
}

func TestRegistry_RegisterAndConnected(t *testing.T) {
	r := pushreg.New()
	assert.False(t, r.Connected("a1"))

	s := newSession("a1")
	r.Register(s)
	assert.True(t, r.Connected("a1"))
	assert.Same(t, s, r.Get("a1"))
}

func TestRegistry_Unregister(t *testing.T) {
	r := pushreg.New()
	s := newSession("a1")
	r.Register(s)

	assert.True(t, r.Unregister(s))
	assert.False(t, r.Connected("a1"))
}

func TestRegistry_UnregisterStaleConnectionDoesNotEvictReconnect(t *testing.T) {
	r := pushreg.New()
	old := newSession("a1")
	r.Register(old)

	fresh := newSession("a1")
	r.Register(fresh)

	assert.False(t, r.Unregister(old), "stale session must not evict the newer one")
	assert.True(t, r.Connected("a1"))
	assert.Same(t, fresh, r.Get("a1"))
}

func TestRegistry_GetUnknownAgent(t *testing.T) {
	r := pushreg.New()
	assert.Nil(t, r.Get("missing"))
}
