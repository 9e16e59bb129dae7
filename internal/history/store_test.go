package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/caravanai/caravan/internal/domain"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(t.TempDir())
	ts := time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC)
	s.now = func() time.Time { return ts }
	return s
}

func TestConversationRoundTrip(t *testing.T) {
	s := testStore(t)

	record := &domain.ConversationRecord{
		Role:     "Python Programmer",
		Provider: "openai",
		Model:    "gpt-4.1-mini",
		Messages: []domain.Turn{
			{Role: "user", Content: "hello", Ts: time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)},
			{Role: "assistant", Content: "hi there", Ts: time.Date(2025, 6, 1, 12, 30, 5, 0, time.UTC)},
		},
	}
	path, err := s.SaveConversation(record)
	if err != nil {
		t.Fatalf("SaveConversation error: %v", err)
	}
	if filepath.Base(path) != "conversation_20250601_123045.json" {
		t.Errorf("unexpected filename: %s", filepath.Base(path))
	}

	loaded, err := s.LoadConversations()
	if err != nil {
		t.Fatalf("LoadConversations error: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 record, got %d", len(loaded))
	}
	got := loaded[0]
	if got.Timestamp != "20250601_123045" || got.Role != record.Role || got.Provider != record.Provider {
		t.Errorf("metadata not round-tripped: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Content != "hello" || got.Messages[1].Role != "assistant" {
		t.Errorf("turns not round-tripped in order: %+v", got.Messages)
	}
}

func TestWriteOnceCollisionSuffix(t *testing.T) {
	s := testStore(t)

	for i := 0; i < 3; i++ {
		if _, err := s.SaveTaskRun(&domain.TaskRecord{
			ModelSpec: "openai:gpt-4.1-mini",
			Tasks:     []domain.TaskResult{{Description: "one", Status: "completed", Output: "done"}},
		}); err != nil {
			t.Fatalf("SaveTaskRun error: %v", err)
		}
	}

	entries, err := os.ReadDir(filepath.Join(s.baseDir, TaskDir))
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 files, got %d", len(entries))
	}

	records, err := s.LoadTaskRuns()
	if err != nil {
		t.Fatalf("LoadTaskRuns error: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("expected 3 records, got %d", len(records))
	}
}

func TestRolePlayRecordFields(t *testing.T) {
	s := testStore(t)

	record := &domain.RolePlayRecord{
		AssistantRole: "Writer",
		UserRole:      "Editor",
		TaskPrompt:    "Write a story",
		SpecifiedTask: "Write a mystery on a night train",
		Provider:      "anthropic",
		Model:         "claude-sonnet-4-20250514",
		Messages: []domain.Turn{
			{Role: "Editor", Content: "Start with the opening scene."},
			{Role: "Writer", Content: "The train left at midnight."},
		},
	}
	path, err := s.SaveRolePlay(record)
	if err != nil {
		t.Fatalf("SaveRolePlay error: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "role_playing_") {
		t.Errorf("unexpected filename: %s", filepath.Base(path))
	}

	loaded, err := s.LoadRolePlays()
	if err != nil {
		t.Fatalf("LoadRolePlays error: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 record, got %d", len(loaded))
	}
	if loaded[0].SpecifiedTask != record.SpecifiedTask {
		t.Errorf("specified task not round-tripped: %q", loaded[0].SpecifiedTask)
	}
	if loaded[0].Messages[0].Role != "Editor" || loaded[0].Messages[1].Role != "Writer" {
		t.Errorf("turn tags not round-tripped: %+v", loaded[0].Messages)
	}
}

func TestLoadSkipsMalformedFiles(t *testing.T) {
	s := testStore(t)

	if _, err := s.SaveConversation(&domain.ConversationRecord{
		Role:     "Assistant",
		Provider: "openai",
		Model:    "gpt-4.1-mini",
		Messages: []domain.Turn{{Role: "user", Content: "hi"}},
	}); err != nil {
		t.Fatalf("SaveConversation error: %v", err)
	}

	dir := filepath.Join(s.baseDir, ConversationDir)
	if err := os.WriteFile(filepath.Join(dir, "conversation_broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	loaded, err := s.LoadConversations()
	if err != nil {
		t.Fatalf("LoadConversations error: %v", err)
	}
	if len(loaded) != 1 {
		t.Errorf("expected 1 valid record, got %d", len(loaded))
	}
}

func TestLoadMissingDirIsEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nowhere"))

	records, err := s.LoadConversations()
	if err != nil {
		t.Fatalf("LoadConversations error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}
