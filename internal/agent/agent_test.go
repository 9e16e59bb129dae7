package agent

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/caravanai/caravan/internal/adapter/llm"
)

// scriptedClient returns queued responses in order and records every
// request it sees.
type scriptedClient struct {
	responses []string
	requests  []*llm.ChatRequest
}

func (c *scriptedClient) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	c.requests = append(c.requests, req)
	content := "ok"
	if len(c.responses) > 0 {
		content = c.responses[0]
		c.responses = c.responses[1:]
	}
	return &llm.ChatResponse{Content: content, FinishReason: "stop"}, nil
}

func (c *scriptedClient) CompleteStream(ctx context.Context, req *llm.ChatRequest, callback llm.StreamCallback) (*llm.ChatResponse, error) {
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := callback(resp.Content); err != nil {
		return nil, err
	}
	return resp, nil
}

func TestAgent_StepAccumulatesHistory(t *testing.T) {
	client := &scriptedClient{responses: []string{"first reply", "second reply"}}
	a := New(client, "gpt-4.1-mini", "Python Programmer", "You write clean code.")

	reply, err := a.Step(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Step error: %v", err)
	}
	if reply != "first reply" {
		t.Errorf("unexpected reply: %q", reply)
	}

	if _, err := a.Step(context.Background(), "again"); err != nil {
		t.Fatalf("Step error: %v", err)
	}

	// Second request should carry system prompt + full history + new input.
	req := client.requests[1]
	if len(req.Messages) != 4 {
		t.Fatalf("expected 4 messages in second request, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != "system" || !strings.Contains(req.Messages[0].Content, "Python Programmer") {
		t.Errorf("system prompt missing or wrong: %+v", req.Messages[0])
	}
	if req.Messages[1].Content != "hello" || req.Messages[2].Content != "first reply" {
		t.Errorf("history not carried: %+v", req.Messages[1:3])
	}

	if got := len(a.History()); got != 4 {
		t.Errorf("expected 4 history messages, got %d", got)
	}

	a.Reset()
	if got := len(a.History()); got != 0 {
		t.Errorf("expected empty history after reset, got %d", got)
	}
}

func TestAgent_NoSystemPromptWhenUnset(t *testing.T) {
	client := &scriptedClient{}
	a := New(client, "gpt-4.1-mini", "", "")

	if _, err := a.Step(context.Background(), "hi"); err != nil {
		t.Fatalf("Step error: %v", err)
	}
	if client.requests[0].Messages[0].Role != "user" {
		t.Errorf("expected no system message, got %+v", client.requests[0].Messages[0])
	}
}

func TestAgent_ConcurrentStepsSerialize(t *testing.T) {
	client := &scriptedClient{}
	a := New(client, "gpt-4.1-mini", "", "")

	const steps = 8
	var wg sync.WaitGroup
	for i := 0; i < steps; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := a.Step(context.Background(), "ping"); err != nil {
				t.Errorf("Step error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := len(a.History()); got != 2*steps {
		t.Errorf("expected %d history messages, got %d", 2*steps, got)
	}
	if got := len(client.requests); got != steps {
		t.Fatalf("expected %d requests, got %d", steps, got)
	}
	// Each step must see all previous exchanges plus its own input.
	for i, req := range client.requests {
		if len(req.Messages) != 2*i+1 {
			t.Errorf("request %d carries %d messages, want %d", i, len(req.Messages), 2*i+1)
		}
	}
}

func TestRolePlay_StepAndDone(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"Instruction: write the outline.",
		"Here is the outline.",
		TaskDoneMarker,
	}}
	rp := NewRolePlay(client, "gpt-4.1-mini", RolePlayParams{
		AssistantRole: "Writer",
		UserRole:      "Editor",
		TaskPrompt:    "Write a short story",
		WordLimit:     150,
	})

	turns, err := rp.Step(context.Background())
	if err != nil {
		t.Fatalf("Step error: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != "Editor" || turns[1].Role != "Writer" {
		t.Errorf("turns tagged with wrong roles: %+v", turns)
	}
	if rp.Done() {
		t.Error("session should not be done yet")
	}

	// The first user-agent request seeds the task; both system prompts
	// should carry the word limit.
	first := client.requests[0]
	if !strings.Contains(first.Messages[0].Content, "150") {
		t.Errorf("word limit missing from user agent system prompt")
	}
	if !strings.Contains(first.Messages[1].Content, "Write a short story") {
		t.Errorf("task prompt missing from seed message: %q", first.Messages[1].Content)
	}

	turns, err = rp.Step(context.Background())
	if err != nil {
		t.Fatalf("Step error: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn on done step, got %d", len(turns))
	}
	if !rp.Done() {
		t.Error("session should be done after the marker")
	}

	if _, err := rp.Step(context.Background()); err == nil {
		t.Error("expected error stepping a finished session")
	}
}

func TestRolePlay_SpecifyTask(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"Write a 500-word mystery set on a night train.",
	}}
	rp := NewRolePlay(client, "gpt-4.1-mini", RolePlayParams{
		AssistantRole: "Writer",
		UserRole:      "Editor",
		TaskPrompt:    "Write a story",
	})

	specified, err := rp.SpecifyTask(context.Background(), client, "gpt-4.1-mini")
	if err != nil {
		t.Fatalf("SpecifyTask error: %v", err)
	}
	if !strings.Contains(specified, "night train") {
		t.Errorf("unexpected specified task: %q", specified)
	}
	if rp.SpecifiedTask() != specified {
		t.Errorf("SpecifiedTask() = %q, want %q", rp.SpecifiedTask(), specified)
	}

	if _, err := rp.Step(context.Background()); err != nil {
		t.Fatalf("Step error: %v", err)
	}
	// Agents' prompts must be rebuilt around the specified task.
	stepReq := client.requests[1]
	if !strings.Contains(stepReq.Messages[0].Content, "night train") {
		t.Errorf("user agent system prompt not rebuilt: %q", stepReq.Messages[0].Content)
	}

	if _, err := rp.SpecifyTask(context.Background(), client, "gpt-4.1-mini"); err == nil {
		t.Error("expected error specifying after start")
	}
}
