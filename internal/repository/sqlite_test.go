package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/caravanai/caravan/internal/domain"
	"github.com/caravanai/caravan/tests/helpers"
)

func TestSessionLifecycle(t *testing.T) {
	s := helpers.NewTestSQLiteStore(t)
	ctx := context.Background()

	session := &domain.Session{
		SessionID: "sess_abc12345",
		Kind:      domain.SessionKindChat,
		Provider:  domain.ProviderOpenAI,
		Model:     "gpt-4.1-mini",
		Config:    []byte(`{"role":"Assistant"}`),
		CreatedAt: time.Now(),
	}
	if err := s.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}

	got, err := s.GetSession(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("GetSession error: %v", err)
	}
	if got == nil {
		t.Fatal("session not found after create")
	}
	if got.Provider != domain.ProviderOpenAI || got.Model != "gpt-4.1-mini" {
		t.Errorf("unexpected session: %+v", got)
	}
	if string(got.Config) != `{"role":"Assistant"}` {
		t.Errorf("config not round-tripped: %s", got.Config)
	}

	missing, err := s.GetSession(ctx, "sess_missing")
	if err != nil {
		t.Fatalf("GetSession error: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing session")
	}

	if err := s.DeleteSession(ctx, session.SessionID); err != nil {
		t.Fatalf("DeleteSession error: %v", err)
	}
	got, err = s.GetSession(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("GetSession error: %v", err)
	}
	if got != nil {
		t.Error("session still present after delete")
	}
}

func TestMessagesOrdered(t *testing.T) {
	s := helpers.NewTestSQLiteStore(t)
	ctx := context.Background()

	session := &domain.Session{
		SessionID: "sess_msg00001",
		Kind:      domain.SessionKindChat,
		Provider:  domain.ProviderAnthropic,
		Model:     "claude-sonnet-4-20250514",
		CreatedAt: time.Now(),
	}
	if err := s.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}

	base := time.Now()
	contents := []string{"first", "second", "third"}
	for i, content := range contents {
		msg := &domain.Message{
			MessageID: "msg_" + content,
			SessionID: session.SessionID,
			Role:      "user",
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		}
		if err := s.CreateMessage(ctx, msg); err != nil {
			t.Fatalf("CreateMessage error: %v", err)
		}
	}

	messages, err := s.GetMessages(ctx, session.SessionID, 0)
	if err != nil {
		t.Fatalf("GetMessages error: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	for i, content := range contents {
		if messages[i].Content != content {
			t.Errorf("message %d = %q, want %q", i, messages[i].Content, content)
		}
	}

	limited, err := s.GetMessages(ctx, session.SessionID, 2)
	if err != nil {
		t.Fatalf("GetMessages error: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 messages with limit, got %d", len(limited))
	}

	if err := s.ClearMessages(ctx, session.SessionID); err != nil {
		t.Fatalf("ClearMessages error: %v", err)
	}
	messages, err = s.GetMessages(ctx, session.SessionID, 0)
	if err != nil {
		t.Fatalf("GetMessages error: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected no messages after clear, got %d", len(messages))
	}
}

func TestTaskQueueLifecycle(t *testing.T) {
	s := helpers.NewTestSQLiteStore(t)
	ctx := context.Background()

	queue := &domain.TaskQueue{
		QueueID:   "queue_xyz12345",
		ModelSpec: "openai:gpt-4.1-mini",
		Role:      "Assistant",
		CreatedAt: time.Now(),
	}
	if err := s.CreateTaskQueue(ctx, queue); err != nil {
		t.Fatalf("CreateTaskQueue error: %v", err)
	}

	got, err := s.GetTaskQueue(ctx, queue.QueueID)
	if err != nil {
		t.Fatalf("GetTaskQueue error: %v", err)
	}
	if got == nil || got.ModelSpec != "openai:gpt-4.1-mini" || got.Role != "Assistant" {
		t.Fatalf("unexpected queue: %+v", got)
	}

	for i, desc := range []string{"write outline", "draft intro", "review"} {
		task := &domain.Task{
			TaskID:      "task_" + desc[:5],
			QueueID:     queue.QueueID,
			Position:    i,
			Description: desc,
			Status:      domain.TaskStatusPending,
			CreatedAt:   time.Now(),
		}
		if err := s.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask error: %v", err)
		}
	}

	tasks, err := s.GetTasks(ctx, queue.QueueID)
	if err != nil {
		t.Fatalf("GetTasks error: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	if tasks[0].Description != "write outline" || tasks[2].Description != "review" {
		t.Errorf("tasks out of position order: %+v", tasks)
	}

	if err := s.UpdateTaskStatus(ctx, tasks[0].TaskID, domain.TaskStatusRunning); err != nil {
		t.Fatalf("UpdateTaskStatus error: %v", err)
	}
	if err := s.UpdateTaskResult(ctx, tasks[0].TaskID, domain.TaskStatusCompleted, "outline done", ""); err != nil {
		t.Fatalf("UpdateTaskResult error: %v", err)
	}
	if err := s.UpdateTaskResult(ctx, tasks[1].TaskID, domain.TaskStatusFailed, "", "provider unavailable"); err != nil {
		t.Fatalf("UpdateTaskResult error: %v", err)
	}

	tasks, err = s.GetTasks(ctx, queue.QueueID)
	if err != nil {
		t.Fatalf("GetTasks error: %v", err)
	}
	if tasks[0].Status != domain.TaskStatusCompleted || tasks[0].Output != "outline done" {
		t.Errorf("completed task not recorded: %+v", tasks[0])
	}
	if tasks[0].CompletedAt == nil {
		t.Error("completed task missing completion time")
	}
	if tasks[1].Status != domain.TaskStatusFailed || tasks[1].Error != "provider unavailable" {
		t.Errorf("failed task not recorded: %+v", tasks[1])
	}
	if tasks[2].Status != domain.TaskStatusPending {
		t.Errorf("untouched task should stay pending: %+v", tasks[2])
	}

	if err := s.UpdateTaskStatus(ctx, "task_missing", domain.TaskStatusRunning); err == nil {
		t.Error("expected error updating missing task")
	}
}
