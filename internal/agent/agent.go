// Package agent wraps a chat client with a role prompt and rolling
// conversation history, giving the rest of the service a single-agent
// abstraction over raw completions.
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/caravanai/caravan/internal/adapter/llm"
)

// Agent is a single chat agent: one model handle, one role prompt, and
// the accumulated message history. Steps on one agent are serialized,
// so concurrent requests against the same session see a consistent
// history.
type Agent struct {
	client llm.ChatClient
	model  string
	system string

	mu      sync.Mutex
	history []llm.ChatMessage
}

// New creates an agent. The role and description are folded into a system
// prompt; either may be empty.
func New(client llm.ChatClient, model, role, description string) *Agent {
	return &Agent{
		client: client,
		model:  model,
		system: systemPrompt(role, description),
	}
}

// NewWithSystem creates an agent with an explicit system prompt.
func NewWithSystem(client llm.ChatClient, model, system string) *Agent {
	return &Agent{
		client: client,
		model:  model,
		system: system,
	}
}

func systemPrompt(role, description string) string {
	role = strings.TrimSpace(role)
	description = strings.TrimSpace(description)
	switch {
	case role == "" && description == "":
		return ""
	case description == "":
		return fmt.Sprintf("You are a %s.", role)
	case role == "":
		return description
	default:
		return fmt.Sprintf("You are a %s. %s", role, description)
	}
}

// Step sends a user message and returns the assistant reply, appending
// both to the agent's history.
func (a *Agent) Step(ctx context.Context, input string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	resp, err := a.client.Complete(ctx, a.request(input))
	if err != nil {
		return "", fmt.Errorf("agent step failed: %w", err)
	}
	a.record(input, resp.Content)
	return resp.Content, nil
}

// StepStream is Step with delta delivery through the callback.
func (a *Agent) StepStream(ctx context.Context, input string, callback llm.StreamCallback) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	resp, err := a.client.CompleteStream(ctx, a.request(input), callback)
	if err != nil {
		return "", fmt.Errorf("agent step failed: %w", err)
	}
	a.record(input, resp.Content)
	return resp.Content, nil
}

func (a *Agent) request(input string) *llm.ChatRequest {
	var messages []llm.ChatMessage
	if a.system != "" {
		messages = append(messages, llm.ChatMessage{Role: "system", Content: a.system})
	}
	messages = append(messages, a.history...)
	messages = append(messages, llm.ChatMessage{Role: "user", Content: input})
	return &llm.ChatRequest{Model: a.model, Messages: messages}
}

func (a *Agent) record(input, output string) {
	a.history = append(a.history,
		llm.ChatMessage{Role: "user", Content: input},
		llm.ChatMessage{Role: "assistant", Content: output},
	)
}

// Restore replaces the agent's history, used when rebuilding an agent
// from persisted messages.
func (a *Agent) Restore(history []llm.ChatMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = make([]llm.ChatMessage, len(history))
	copy(a.history, history)
}

// Reset clears the agent's history, keeping its role prompt.
func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}

// History returns the accumulated conversation, excluding the system prompt.
func (a *Agent) History() []llm.ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]llm.ChatMessage, len(a.history))
	copy(out, a.history)
	return out
}
