package domain

import "time"

// RecordTimeFormat is the timestamp layout used both inside history
// records and in their file names.
const RecordTimeFormat = "20060102_150405"

// Turn is one message inside a persisted history record.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	Ts      time.Time `json:"ts"`
}

// ConversationRecord captures one completed chat-agent conversation.
type ConversationRecord struct {
	Timestamp string   `json:"timestamp"`
	Role      string   `json:"role"`
	Provider  Provider `json:"provider"`
	Model     string   `json:"model"`
	Messages  []Turn   `json:"messages"`
}

// RolePlayRecord captures one completed two-agent role-play session.
// Turns are tagged with the role label of the agent that produced them.
type RolePlayRecord struct {
	Timestamp     string   `json:"timestamp"`
	AssistantRole string   `json:"assistant_role"`
	UserRole      string   `json:"user_role"`
	TaskPrompt    string   `json:"task_prompt"`
	SpecifiedTask string   `json:"specified_task,omitempty"`
	Provider      Provider `json:"provider"`
	Model         string   `json:"model"`
	Messages      []Turn   `json:"messages"`
}

// TaskResult is the persisted outcome of a single task.
type TaskResult struct {
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Output      string     `json:"output,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// TaskRecord captures one completed automation run.
type TaskRecord struct {
	Timestamp string       `json:"timestamp"`
	ModelSpec string       `json:"model_spec"`
	Tasks     []TaskResult `json:"tasks"`
}
