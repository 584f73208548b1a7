package state_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentnet/hub/internal/id"
	"github.com/agentnet/hub/internal/model"
	"github.com/agentnet/hub/internal/state"
	"github.com/agentnet/hub/internal/store"
)

func newTestState(t *testing.T) *state.State {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))

	st := store.New(db)
	s := state.New(st)
	require.NoError(t, s.Hydrate(context.Background()))
	return s
}

func TestJoinRoom_CreatesRoomAndAddsAgent(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()

	_, err := s.JoinRoom(ctx, "lab", model.Agent{ID: "a1", Name: "Alice"})
	require.NoError(t, err)

	assert.Equal(t, 1, s.AgentCount("lab"))
	agents := s.ListAgents("lab")
	require.Len(t, agents, 1)
	assert.Equal(t, "Alice", agents[0].Name)
}

func TestJoinRoom_IdempotentOnSameAgent(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()

	_, err := s.JoinRoom(ctx, "lab", model.Agent{ID: "a1", Name: "Alice"})
	require.NoError(t, err)
	_, err = s.JoinRoom(ctx, "lab", model.Agent{ID: "a1", Name: "Alice"})
	require.NoError(t, err)

	assert.Equal(t, 1, s.AgentCount("lab"))
}

func TestLeaveRoom_RemovesFromLiveSetAndMarksOffline(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()

	_, err := s.JoinRoom(ctx, "lab", model.Agent{ID: "a1", Name: "Alice"})
	require.NoError(t, err)

	left, err := s.LeaveRoom(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, model.AgentOffline, left.Status)
	assert.Equal(t, 0, s.AgentCount("lab"))
}

func TestLeaveRoom_NotFound(t *testing.T) {
	s := newTestState(t)
	_, err := s.LeaveRoom(context.Background(), "missing")
	require.Error(t, err)
}

func TestAgentCount_IncreasesOnJoin(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()

	_, err := s.JoinRoom(ctx, "lab", model.Agent{ID: "a1", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.AgentCount("lab"))

	_, err = s.JoinRoom(ctx, "lab", model.Agent{ID: "a2", Name: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, 2, s.AgentCount("lab"))
}

func TestAppendMessage_IncreasesLogLengthAndUpdatesLastActive(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()

	_, err := s.JoinRoom(ctx, "lab", model.Agent{ID: "a1", Name: "Alice"})
	require.NoError(t, err)

	before := s.History("lab", nil, 0)
	require.Empty(t, before)

	ts := time.Now().UTC().Add(time.Hour)
	msg := model.Message{ID: id.Generate(), Room: "lab", AgentID: "a1", AgentName: "Alice", Content: "hi", Type: model.MessageChat, Timestamp: ts}
	_, err = s.AppendMessage(ctx, msg)
	require.NoError(t, err)

	after := s.History("lab", nil, 0)
	require.Len(t, after, 1)
	assert.Equal(t, msg.ID, after[0].ID)

	agents := s.ListAgents("lab")
	require.Len(t, agents, 1)
	assert.WithinDuration(t, ts, agents[0].LastActive, time.Millisecond)
}

func TestHistory_SinceFilterAndLimit(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		_, err := s.AppendMessage(ctx, model.Message{
			ID: id.Generate(), Room: "lab", AgentName: "sys", Content: "x",
			Type: model.MessageSystem, Timestamp: now.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	all := s.History("lab", nil, 0)
	require.Len(t, all, 5)

	limited := s.History("lab", nil, 2)
	require.Len(t, limited, 2)
	assert.Equal(t, all[3].ID, limited[0].ID)
	assert.Equal(t, all[4].ID, limited[1].ID)

	since := now.Add(10 * time.Second)
	future := s.History("lab", &since, 0)
	assert.Empty(t, future)
}

func TestCreateAndUpdateTask(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()

	task, err := s.CreateTask(ctx, model.Task{ID: id.Generate(), Room: "lab", Title: "fix it", Creator: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, model.TaskTodo, task.Status)

	status := model.TaskInProgress
	assignee := "Bob"
	updated, err := s.UpdateTask(ctx, task.ID, state.TaskUpdate{Status: &status, Assignee: &assignee})
	require.NoError(t, err)
	assert.Equal(t, model.TaskInProgress, updated.Status)
	assert.Equal(t, "Bob", updated.Assignee)
	assert.True(t, updated.UpdatedAt.After(task.CreatedAt))
}

func TestUpdateTask_NotFound(t *testing.T) {
	s := newTestState(t)
	_, err := s.UpdateTask(context.Background(), "missing", state.TaskUpdate{})
	require.Error(t, err)
}

func TestFindAgentByNameCaseSensitive(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()
	_, err := s.JoinRoom(ctx, "lab", model.Agent{ID: "a1", Name: "Bob"})
	require.NoError(t, err)

	_, ok := s.FindAgentByName("lab", "Bob")
	assert.True(t, ok)
	_, ok = s.FindAgentByName("lab", "bob")
	assert.False(t, ok)
}

func TestHydrate_RestoresRoomsAndMessages(t *testing.T) {
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, store.Migrate(db))

	st := store.New(db)
	s1 := state.New(st)
	require.NoError(t, s1.Hydrate(context.Background()))

	ctx := context.Background()
	_, err = s1.JoinRoom(ctx, "lab", model.Agent{ID: "a1", Name: "Alice"})
	require.NoError(t, err)
	_, err = s1.AppendMessage(ctx, model.Message{ID: id.Generate(), Room: "lab", AgentID: "a1", AgentName: "Alice", Content: "hi", Type: model.MessageChat, Timestamp: time.Now().UTC()})
	require.NoError(t, err)

	s2 := state.New(st)
	require.NoError(t, s2.Hydrate(ctx))

	rooms := s2.ListRooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, "lab", rooms[0].Name)

	msgs := s2.History("lab", nil, 0)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Content)
}
