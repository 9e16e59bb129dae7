package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/caravanai/caravan/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			config TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS task_queues (
			queue_id TEXT PRIMARY KEY,
			model_spec TEXT NOT NULL,
			role TEXT,
			role_description TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			task_id TEXT PRIMARY KEY,
			queue_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			description TEXT NOT NULL,
			status TEXT NOT NULL,
			output TEXT,
			error TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			completed_at DATETIME,
			FOREIGN KEY (queue_id) REFERENCES task_queues(queue_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_queue ON tasks(queue_id, position)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession creates a new session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, kind, provider, model, config, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		session.SessionID, session.Kind, session.Provider, session.Model, string(session.Config), session.CreatedAt)
	return err
}

// GetSession retrieves a session by ID. Returns nil if not found.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	var config sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, kind, provider, model, config, created_at FROM sessions WHERE session_id = ?`,
		sessionID).Scan(&session.SessionID, &session.Kind, &session.Provider, &session.Model, &config, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if config.Valid {
		session.Config = []byte(config.String)
	}
	return &session, nil
}

// DeleteSession removes a session and its messages.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.ClearMessages(ctx, sessionID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
	return err
}

// CreateMessage creates a new message.
func (s *SQLiteStore) CreateMessage(ctx context.Context, message *domain.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (message_id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		message.MessageID, message.SessionID, message.Role, message.Content, message.CreatedAt)
	return err
}

// GetMessages retrieves messages for a session in insertion order.
func (s *SQLiteStore) GetMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	query := `SELECT message_id, session_id, role, content, created_at FROM messages WHERE session_id = ? ORDER BY created_at ASC, message_id ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.MessageID, &msg.SessionID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// ClearMessages removes all messages for a session.
func (s *SQLiteStore) ClearMessages(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID)
	return err
}

// CreateTaskQueue creates a new task queue.
func (s *SQLiteStore) CreateTaskQueue(ctx context.Context, queue *domain.TaskQueue) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_queues (queue_id, model_spec, role, role_description, created_at) VALUES (?, ?, ?, ?, ?)`,
		queue.QueueID, queue.ModelSpec, nullString(queue.Role), nullString(queue.RoleDescription), queue.CreatedAt)
	return err
}

// GetTaskQueue retrieves a task queue by ID. Returns nil if not found.
func (s *SQLiteStore) GetTaskQueue(ctx context.Context, queueID string) (*domain.TaskQueue, error) {
	var queue domain.TaskQueue
	var role, roleDesc sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT queue_id, model_spec, role, role_description, created_at FROM task_queues WHERE queue_id = ?`,
		queueID).Scan(&queue.QueueID, &queue.ModelSpec, &role, &roleDesc, &queue.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	queue.Role = role.String
	queue.RoleDescription = roleDesc.String
	return &queue, nil
}

// CreateTask appends a task to a queue.
func (s *SQLiteStore) CreateTask(ctx context.Context, task *domain.Task) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (task_id, queue_id, position, description, status, output, error, created_at, completed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.TaskID, task.QueueID, task.Position, task.Description, task.Status,
		nullString(task.Output), nullString(task.Error), task.CreatedAt, task.CompletedAt)
	return err
}

// GetTasks retrieves all tasks for a queue in position order.
func (s *SQLiteStore) GetTasks(ctx context.Context, queueID string) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, queue_id, position, description, status, output, error, created_at, completed_at FROM tasks WHERE queue_id = ? ORDER BY position ASC`,
		queueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var task domain.Task
		var output, errMsg sql.NullString
		var completedAt sql.NullTime
		if err := rows.Scan(&task.TaskID, &task.QueueID, &task.Position, &task.Description, &task.Status, &output, &errMsg, &task.CreatedAt, &completedAt); err != nil {
			return nil, err
		}
		task.Output = output.String
		task.Error = errMsg.String
		if completedAt.Valid {
			t := completedAt.Time
			task.CompletedAt = &t
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// UpdateTaskStatus updates a task's status.
func (s *SQLiteStore) UpdateTaskStatus(ctx context.Context, taskID string, status domain.TaskStatus) error {
	result, err := s.db.ExecContext(ctx, `UPDATE tasks SET status = ? WHERE task_id = ?`, status, taskID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("task not found: %s", taskID)
	}
	return nil
}

// UpdateTaskResult records a task's terminal status, output and error.
func (s *SQLiteStore) UpdateTaskResult(ctx context.Context, taskID string, status domain.TaskStatus, output, errMsg string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, output = ?, error = ?, completed_at = ? WHERE task_id = ?`,
		status, nullString(output), nullString(errMsg), time.Now(), taskID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("task not found: %s", taskID)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
