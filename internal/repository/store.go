// Package store defines the storage interface and implementations for
// live session state.
package store

import (
	"context"

	"github.com/caravanai/caravan/internal/domain"
)

// Store defines the interface for data persistence.
type Store interface {
	// Session operations
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Message operations
	CreateMessage(ctx context.Context, message *domain.Message) error
	GetMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)
	ClearMessages(ctx context.Context, sessionID string) error

	// Task queue operations
	CreateTaskQueue(ctx context.Context, queue *domain.TaskQueue) error
	GetTaskQueue(ctx context.Context, queueID string) (*domain.TaskQueue, error)
	CreateTask(ctx context.Context, task *domain.Task) error
	GetTasks(ctx context.Context, queueID string) ([]domain.Task, error)
	UpdateTaskStatus(ctx context.Context, taskID string, status domain.TaskStatus) error
	UpdateTaskResult(ctx context.Context, taskID string, status domain.TaskStatus, output, errMsg string) error

	// Lifecycle
	Close() error
}
