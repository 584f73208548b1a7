// Package model defines the hub's core entities (§3 of the spec): Room,
// Agent, Message, Task, MemoryEntry, and Notification.
package model

import "time"

// AgentStatus is the lifecycle status of an Agent.
type AgentStatus string

const (
	AgentActive  AgentStatus = "active"
	AgentOnline  AgentStatus = "online"
	AgentBusy    AgentStatus = "busy"
	AgentAway    AgentStatus = "away"
	AgentOffline AgentStatus = "offline"
)

// MessageType distinguishes the origin of a Message.
type MessageType string

const (
	MessageChat        MessageType = "message"
	MessageSystem      MessageType = "system"
	MessageBroadcast   MessageType = "broadcast"
	MessageFileChange  MessageType = "file_change"
)

// TaskPriority is the urgency of a Task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// TaskStatus is the lifecycle stage of a Task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskReview     TaskStatus = "review"
	TaskDone       TaskStatus = "done"
	TaskBlocked    TaskStatus = "blocked"
)

// Room is a named channel scoping messaging, tasks, and push fanout.
type Room struct {
	Name      string         `json:"name"`
	CreatedAt time.Time      `json:"createdAt"`
	IsActive  bool           `json:"isActive"`
	Settings  map[string]any `json:"settings,omitempty"`
}

// Agent is an external participant identified by an opaque id.
type Agent struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Room         string         `json:"room,omitempty"`
	Capabilities map[string]any `json:"capabilities,omitempty"`
	JoinedAt     time.Time      `json:"joinedAt"`
	LastActive   time.Time      `json:"lastActive"`
	Status       AgentStatus    `json:"status"`
}

// Message is an entry in a room's append-only log.
type Message struct {
	ID        string         `json:"id"`
	Room      string         `json:"room"`
	AgentID   string         `json:"agentId,omitempty"`
	AgentName string         `json:"agentName"`
	Content   string         `json:"content"`
	Type      MessageType    `json:"type"`
	Mentions  []string       `json:"mentions"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Task is a unit of work tracked within a room.
type Task struct {
	ID          string       `json:"id"`
	Room        string       `json:"room"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Assignee    string       `json:"assignee,omitempty"`
	Creator     string       `json:"creator"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// MemoryEntry is a per-agent persisted note, scoped to a room.
type MemoryEntry struct {
	ID        string     `json:"id"`
	AgentID   string     `json:"agentId"`
	Room      string     `json:"room,omitempty"`
	Key       string     `json:"key"`
	Value     string     `json:"value"`
	Type      string     `json:"type"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Expired reports whether the entry is logically absent at time now.
func (m MemoryEntry) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && now.After(*m.ExpiresAt)
}

// Notification is a per-recipient record created as a side effect of a
// mention or system event.
type Notification struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agentId"`
	Room      string    `json:"room"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}
