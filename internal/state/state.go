// Package state is the hub's in-process authoritative model (§4.2): rooms,
// their live agent sets, and their message logs, hydrated from the Store
// at boot and written through on every mutation.
//
// Concurrency follows §5: one sync.RWMutex per room guards that room's
// agent set, message log and tasks; a separate registry mutex guards the
// top-level room map. When both are held in one call path the registry
// lock is acquired first and the room lock inside it.
package state

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/agentnet/hub/internal/apierr"
	"github.com/agentnet/hub/internal/model"
	"github.com/agentnet/hub/internal/store"
)

// room is the in-memory record for one named room: its agent set (keyed
// by agent id) and its append-only message log.
type room struct {
	mu       sync.RWMutex
	snapshot model.Room
	agents   map[string]*model.Agent // agentID -> agent, present only while joined
	messages []model.Message
	tasks    map[string]*model.Task // taskID -> task
}

// State is the hub's authoritative in-memory model.
type State struct {
	store *store.Store

	regMu sync.RWMutex
	rooms map[string]*room
}

// New wraps a Store. Call Hydrate before serving traffic.
func New(st *store.Store) *State {
	return &State{
		store: st,
		rooms: make(map[string]*room),
	}
}

// Hydrate loads every active room from the Store, together with its
// message log, its tasks, and its agents whose status is not offline.
// Memories and notifications are not held in State; they are read from
// the Store per request.
func (s *State) Hydrate(ctx context.Context) error {
	rooms, err := s.store.ListActiveRooms(ctx)
	if err != nil {
		return err
	}

	s.regMu.Lock()
	defer s.regMu.Unlock()

	for _, r := range rooms {
		msgs, err := s.store.ListMessages(ctx, r.Name, nil, 0)
		if err != nil {
			return err
		}
		agents, err := s.store.ListAgentsByRoom(ctx, r.Name)
		if err != nil {
			return err
		}
		tasks, err := s.store.ListTasksByRoom(ctx, r.Name)
		if err != nil {
			return err
		}

		rm := &room{
			snapshot: r,
			agents:   make(map[string]*model.Agent),
			messages: msgs,
			tasks:    make(map[string]*model.Task),
		}
		for i := range agents {
			a := agents[i]
			if a.Status != model.AgentOffline {
				rm.agents[a.ID] = &a
			}
		}
		for i := range tasks {
			t := tasks[i]
			rm.tasks[t.ID] = &t
		}
		s.rooms[r.Name] = rm
	}
	return nil
}

// getOrCreateRoom returns the in-memory room, creating and persisting it
// (isActive=true) if this is the first reference to that name.
func (s *State) getOrCreateRoom(ctx context.Context, name string) (*room, error) {
	s.regMu.RLock()
	rm, ok := s.rooms[name]
	s.regMu.RUnlock()
	if ok {
		return rm, nil
	}

	s.regMu.Lock()
	defer s.regMu.Unlock()
	if rm, ok := s.rooms[name]; ok {
		return rm, nil
	}

	snap := model.Room{Name: name, CreatedAt: time.Now().UTC(), IsActive: true, Settings: map[string]any{}}
	if err := s.store.UpsertRoom(ctx, snap); err != nil {
		return nil, err
	}
	rm = &room{
		snapshot: snap,
		agents:   make(map[string]*model.Agent),
		tasks:    make(map[string]*model.Task),
	}
	s.rooms[name] = rm
	return rm, nil
}

// GetRoom returns the in-memory snapshot for an already-known room name.
func (s *State) GetRoom(name string) (model.Room, bool) {
	s.regMu.RLock()
	defer s.regMu.RUnlock()
	rm, ok := s.rooms[name]
	if !ok {
		return model.Room{}, false
	}
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.snapshot, true
}

// ListRooms returns every known room's snapshot, oldest first.
func (s *State) ListRooms() []model.Room {
	s.regMu.RLock()
	defer s.regMu.RUnlock()

	out := make([]model.Room, 0, len(s.rooms))
	for _, rm := range s.rooms {
		rm.mu.RLock()
		out = append(out, rm.snapshot)
		rm.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// JoinRoom upserts room and agent in the Store, then adds the agent to
// the room's live set. Idempotent on repeat (agentID, roomName) pairs.
func (s *State) JoinRoom(ctx context.Context, roomName string, agent model.Agent) (model.Room, error) {
	rm, err := s.getOrCreateRoom(ctx, roomName)
	if err != nil {
		return model.Room{}, err
	}

	agent.Room = roomName
	if agent.JoinedAt.IsZero() {
		agent.JoinedAt = time.Now().UTC()
	}
	agent.LastActive = time.Now().UTC()
	if agent.Status == "" {
		agent.Status = model.AgentOnline
	}

	if err := s.store.UpsertAgent(ctx, agent); err != nil {
		return model.Room{}, err
	}

	rm.mu.Lock()
	rm.agents[agent.ID] = &agent
	snap := rm.snapshot
	rm.mu.Unlock()
	return snap, nil
}

// LeaveRoom removes agentID from its current room's live set and marks
// the persisted Agent row offline, per the "mark-offline-and-retain"
// decision in SPEC_FULL.md §4.8. Returns apierr.NotFound if the agent is
// not currently in any room.
func (s *State) LeaveRoom(ctx context.Context, agentID string) (model.Agent, error) {
	s.regMu.RLock()
	var rm *room
	var found *model.Agent
	for _, candidate := range s.rooms {
		candidate.mu.RLock()
		if a, ok := candidate.agents[agentID]; ok {
			rm = candidate
			found = a
		}
		candidate.mu.RUnlock()
		if rm != nil {
			break
		}
	}
	s.regMu.RUnlock()

	if rm == nil || found == nil {
		return model.Agent{}, apierr.NotFound("agent %q is not in any room", agentID)
	}

	left := *found
	left.Status = model.AgentOffline
	left.Room = ""
	left.LastActive = time.Now().UTC()

	if err := s.store.UpsertAgent(ctx, left); err != nil {
		return model.Agent{}, err
	}

	rm.mu.Lock()
	delete(rm.agents, agentID)
	rm.mu.Unlock()

	return left, nil
}

// ListAgents returns the live agent set of roomName.
func (s *State) ListAgents(roomName string) []model.Agent {
	s.regMu.RLock()
	rm, ok := s.rooms[roomName]
	s.regMu.RUnlock()
	if !ok {
		return nil
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()
	out := make([]model.Agent, 0, len(rm.agents))
	for _, a := range rm.agents {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out
}

// AgentCount returns the size of roomName's live agent set (Invariant 3).
func (s *State) AgentCount(roomName string) int {
	s.regMu.RLock()
	rm, ok := s.rooms[roomName]
	s.regMu.RUnlock()
	if !ok {
		return 0
	}
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.agents)
}

// FindAgentByID performs a linear scan for agentID across every room's
// live set — acceptable at the expected scale per §4.2.
func (s *State) FindAgentByID(agentID string) (model.Agent, bool) {
	s.regMu.RLock()
	defer s.regMu.RUnlock()
	for _, rm := range s.rooms {
		rm.mu.RLock()
		a, ok := rm.agents[agentID]
		if ok {
			agent := *a
			rm.mu.RUnlock()
			return agent, true
		}
		rm.mu.RUnlock()
	}
	return model.Agent{}, false
}

// FindAgentByName performs a case-sensitive linear scan for name within
// roomName's live set, per the Notifier's resolution rule (§4.4).
func (s *State) FindAgentByName(roomName, name string) (model.Agent, bool) {
	s.regMu.RLock()
	rm, ok := s.rooms[roomName]
	s.regMu.RUnlock()
	if !ok {
		return model.Agent{}, false
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()
	for _, a := range rm.agents {
		if a.Name == name {
			return *a, true
		}
	}
	return model.Agent{}, false
}

// AppendMessage persists m to the Store, then appends it to roomName's
// in-memory log and bumps the sender's lastActive (Invariant: log length
// +1, exactly). The Store write happens first; if it fails, no in-memory
// mutation occurs.
func (s *State) AppendMessage(ctx context.Context, m model.Message) (model.Message, error) {
	rm, err := s.getOrCreateRoom(ctx, m.Room)
	if err != nil {
		return model.Message{}, err
	}

	if err := s.store.InsertMessage(ctx, m); err != nil {
		return model.Message{}, err
	}

	rm.mu.Lock()
	rm.messages = append(rm.messages, m)
	if m.AgentID != "" {
		if a, ok := rm.agents[m.AgentID]; ok {
			a.LastActive = m.Timestamp
		}
	}
	rm.mu.Unlock()

	return m, nil
}

// History returns roomName's messages strictly after since (if non-nil),
// then takes at most the last limit of those (limit<=0 means default
// handling is the caller's responsibility — State itself does not impose
// a default, only a cap when limit>0).
func (s *State) History(roomName string, since *time.Time, limit int) []model.Message {
	s.regMu.RLock()
	rm, ok := s.rooms[roomName]
	s.regMu.RUnlock()
	if !ok {
		return nil
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()

	filtered := rm.messages
	if since != nil {
		filtered = nil
		for _, m := range rm.messages {
			if m.Timestamp.After(*since) {
				filtered = append(filtered, m)
			}
		}
	}

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}

	out := make([]model.Message, len(filtered))
	copy(out, filtered)
	return out
}

// CreateTask persists and stores a new task (status=todo, per §4.8).
func (s *State) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	rm, err := s.getOrCreateRoom(ctx, t.Room)
	if err != nil {
		return model.Task{}, err
	}

	if t.Status == "" {
		t.Status = model.TaskTodo
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := s.store.InsertTask(ctx, t); err != nil {
		return model.Task{}, err
	}

	rm.mu.Lock()
	rm.tasks[t.ID] = &t
	rm.mu.Unlock()

	return t, nil
}

// TaskUpdate carries the mergeable fields of updateTask (§4.8); a nil
// field leaves the corresponding Task field unchanged.
type TaskUpdate struct {
	Status   *model.TaskStatus
	Assignee *string
	Priority *model.TaskPriority
}

// UpdateTask merges patch into the task identified by taskID, refreshes
// updatedAt, persists, and returns the merged task. Returns
// apierr.NotFound if no such task exists in any known room.
func (s *State) UpdateTask(ctx context.Context, taskID string, patch TaskUpdate) (model.Task, error) {
	s.regMu.RLock()
	var rm *room
	for _, candidate := range s.rooms {
		candidate.mu.RLock()
		_, ok := candidate.tasks[taskID]
		candidate.mu.RUnlock()
		if ok {
			rm = candidate
			break
		}
	}
	s.regMu.RUnlock()

	if rm == nil {
		return model.Task{}, apierr.NotFound("task %q not found", taskID)
	}

	rm.mu.Lock()
	t := *rm.tasks[taskID]
	rm.mu.Unlock()

	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Assignee != nil {
		t.Assignee = *patch.Assignee
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateTask(ctx, t); err != nil {
		return model.Task{}, err
	}

	rm.mu.Lock()
	rm.tasks[taskID] = &t
	rm.mu.Unlock()

	return t, nil
}

// ListTasks returns roomName's tasks, most recently updated first.
func (s *State) ListTasks(roomName string) []model.Task {
	s.regMu.RLock()
	rm, ok := s.rooms[roomName]
	s.regMu.RUnlock()
	if !ok {
		return nil
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()
	out := make([]model.Task, 0, len(rm.tasks))
	for _, t := range rm.tasks {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}
