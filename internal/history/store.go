// Package history persists completed conversations, role-play sessions
// and task runs as timestamp-named JSON documents on disk.
package history

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/caravanai/caravan/internal/domain"
)

// Per-feature record directories and filename prefixes.
const (
	ConversationDir = "conversation_history"
	RolePlayDir     = "role_play_history"
	TaskDir         = "task_history"

	conversationPrefix = "conversation"
	rolePlayPrefix     = "role_playing"
	taskPrefix         = "tasks"
)

// Store reads and writes history records under a base directory.
type Store struct {
	baseDir string
	now     func() time.Time
}

// NewStore creates a history store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

// SaveConversation writes a conversation record. Returns the file path.
func (s *Store) SaveConversation(record *domain.ConversationRecord) (string, error) {
	if record.Timestamp == "" {
		record.Timestamp = s.now().Format(domain.RecordTimeFormat)
	}
	return s.write(ConversationDir, conversationPrefix, record.Timestamp, record)
}

// SaveRolePlay writes a role-play record. Returns the file path.
func (s *Store) SaveRolePlay(record *domain.RolePlayRecord) (string, error) {
	if record.Timestamp == "" {
		record.Timestamp = s.now().Format(domain.RecordTimeFormat)
	}
	return s.write(RolePlayDir, rolePlayPrefix, record.Timestamp, record)
}

// SaveTaskRun writes a task run record. Returns the file path.
func (s *Store) SaveTaskRun(record *domain.TaskRecord) (string, error) {
	if record.Timestamp == "" {
		record.Timestamp = s.now().Format(domain.RecordTimeFormat)
	}
	return s.write(TaskDir, taskPrefix, record.Timestamp, record)
}

// write marshals the record and writes it under dir with a
// timestamp-derived name. Records are write-once: an existing name gets
// a numeric suffix rather than being overwritten.
func (s *Store) write(dir, prefix, timestamp string, record interface{}) (string, error) {
	fullDir := filepath.Join(s.baseDir, dir)
	if err := os.MkdirAll(fullDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}

	path := filepath.Join(fullDir, fmt.Sprintf("%s_%s.json", prefix, timestamp))
	for i := 1; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(fullDir, fmt.Sprintf("%s_%s_%d.json", prefix, timestamp, i))
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write record: %w", err)
	}
	return path, nil
}

// LoadConversations reads all conversation records, oldest first.
// Malformed files are skipped with a warning.
func (s *Store) LoadConversations() ([]domain.ConversationRecord, error) {
	var records []domain.ConversationRecord
	err := s.load(ConversationDir, func(data []byte) error {
		var record domain.ConversationRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return err
		}
		records = append(records, record)
		return nil
	})
	return records, err
}

// LoadRolePlays reads all role-play records, oldest first.
func (s *Store) LoadRolePlays() ([]domain.RolePlayRecord, error) {
	var records []domain.RolePlayRecord
	err := s.load(RolePlayDir, func(data []byte) error {
		var record domain.RolePlayRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return err
		}
		records = append(records, record)
		return nil
	})
	return records, err
}

// LoadTaskRuns reads all task run records, oldest first.
func (s *Store) LoadTaskRuns() ([]domain.TaskRecord, error) {
	var records []domain.TaskRecord
	err := s.load(TaskDir, func(data []byte) error {
		var record domain.TaskRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return err
		}
		records = append(records, record)
		return nil
	})
	return records, err
}

func (s *Store) load(dir string, decode func([]byte) error) error {
	fullDir := filepath.Join(s.baseDir, dir)
	entries, err := os.ReadDir(fullDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read history directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(fullDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("WARN: failed to read history file %s: %v", path, err)
			continue
		}
		if err := decode(data); err != nil {
			log.Printf("WARN: skipping malformed history file %s: %v", path, err)
		}
	}
	return nil
}
