package domain

import (
	"encoding/json"
	"time"
)

// SessionKind distinguishes chat sessions from role-play sessions.
type SessionKind string

const (
	SessionKindChat     SessionKind = "chat"
	SessionKindRolePlay SessionKind = "roleplay"
)

// Session represents a live agent session.
type Session struct {
	SessionID string          `json:"session_id"`
	Kind      SessionKind     `json:"kind"`
	Provider  Provider        `json:"provider"`
	Model     string          `json:"model"`
	Config    json.RawMessage `json:"config,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ChatConfig is the per-session configuration of a single chat agent.
type ChatConfig struct {
	Role            string `json:"role"`
	RoleDescription string `json:"role_description"`
}

// RolePlayConfig is the per-session configuration of a two-agent scenario.
type RolePlayConfig struct {
	AssistantRole        string `json:"assistant_role"`
	AssistantDescription string `json:"assistant_description"`
	UserRole             string `json:"user_role"`
	UserDescription      string `json:"user_description"`
	TaskPrompt           string `json:"task_prompt"`
	SpecifiedTask        string `json:"specified_task,omitempty"`
	WordLimit            int    `json:"word_limit"`
}

// Message represents a single turn stored for a session. For chat sessions
// the role is "user" or "assistant"; for role-play sessions it is the role
// label of the agent that produced the turn.
type Message struct {
	MessageID string    `json:"message_id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
