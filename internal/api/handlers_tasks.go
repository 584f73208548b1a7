package api

import (
	"net/http"

	"github.com/agentnet/hub/internal/apierr"
	"github.com/agentnet/hub/internal/eventbus"
	"github.com/agentnet/hub/internal/id"
	"github.com/agentnet/hub/internal/model"
	"github.com/agentnet/hub/internal/state"
)

type createTaskRequest struct {
	RoomName    string             `json:"roomName"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Assignee    string             `json:"assignee"`
	Creator     string             `json:"creator"`
	Priority    model.TaskPriority `json:"priority"`
}

// handleCreateTask implements createTask (§4.8): new task starts at
// status=todo.
func (d *Deps) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.RoomName == "" || req.Title == "" || req.Creator == "" {
		writeError(w, apierr.Validation("roomName, title, and creator are required"))
		return
	}
	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	t := model.Task{
		ID:          id.Generate(),
		Room:        req.RoomName,
		Title:       req.Title,
		Description: req.Description,
		Assignee:    req.Assignee,
		Creator:     req.Creator,
		Priority:    priority,
	}

	saved, err := d.State.CreateTask(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}
	d.RoomBus.Publish(req.RoomName, &eventbus.Event{
		Event:   eventbus.KindTask,
		Payload: eventbus.TaskPayload{Type: "created", Task: saved},
	})

	writeJSON(w, http.StatusOK, map[string]any{"task": saved})
}

// handleListTasks implements listTasks.
func (d *Deps) handleListTasks(w http.ResponseWriter, r *http.Request) {
	room := r.PathValue("room")
	writeJSON(w, http.StatusOK, map[string]any{"tasks": d.State.ListTasks(room)})
}

type updateTaskRequest struct {
	Status   *model.TaskStatus   `json:"status"`
	Assignee *string             `json:"assignee"`
	Priority *model.TaskPriority `json:"priority"`
}

// handleUpdateTask implements updateTask (§4.8): merges only the provided
// fields and refreshes updatedAt.
func (d *Deps) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")
	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	patch := state.TaskUpdate{Status: req.Status, Assignee: req.Assignee, Priority: req.Priority}
	saved, err := d.State.UpdateTask(r.Context(), taskID, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	d.RoomBus.Publish(saved.Room, &eventbus.Event{
		Event:   eventbus.KindTask,
		Payload: eventbus.TaskPayload{Type: "updated", Task: saved},
	})

	writeJSON(w, http.StatusOK, map[string]any{"task": saved})
}
