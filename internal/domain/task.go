package domain

import "time"

// TaskStatus represents the lifecycle state of a queued task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// TaskQueue is an ordered list of automation tasks bound to one agent
// configuration.
type TaskQueue struct {
	QueueID         string    `json:"queue_id"`
	ModelSpec       string    `json:"model_spec"`
	Role            string    `json:"role"`
	RoleDescription string    `json:"role_description"`
	CreatedAt       time.Time `json:"created_at"`
}

// Task is a single automation task. Position fixes execution order within
// the queue.
type Task struct {
	TaskID      string     `json:"task_id"`
	QueueID     string     `json:"queue_id"`
	Position    int        `json:"position"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Output      string     `json:"output,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
