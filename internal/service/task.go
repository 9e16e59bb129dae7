package service

import (
	"context"
	"fmt"
	"time"

	"github.com/caravanai/caravan/internal/agent"
	"github.com/caravanai/caravan/internal/domain"
)

// CreateTaskQueue creates an empty task queue. The model spec uses the
// provider:model syntax and is validated up front.
func (s *Service) CreateTaskQueue(ctx context.Context, modelSpec, role, roleDescription string) (*domain.TaskQueue, error) {
	if _, _, err := domain.ParseModelSpec(modelSpec); err != nil {
		return nil, invalid("%s", err.Error())
	}

	queue := &domain.TaskQueue{
		QueueID:         newID("queue"),
		ModelSpec:       modelSpec,
		Role:            role,
		RoleDescription: roleDescription,
		CreatedAt:       time.Now(),
	}
	if err := s.store.CreateTaskQueue(ctx, queue); err != nil {
		return nil, fmt.Errorf("failed to create task queue: %w", err)
	}
	return queue, nil
}

// AddTask appends a pending task at the end of a queue.
func (s *Service) AddTask(ctx context.Context, queueID, description string) (*domain.Task, error) {
	if description == "" {
		return nil, invalid("task description is required")
	}
	queue, err := s.store.GetTaskQueue(ctx, queueID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task queue: %w", err)
	}
	if queue == nil {
		return nil, notFound("task queue", queueID)
	}

	tasks, err := s.store.GetTasks(ctx, queueID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}

	task := &domain.Task{
		TaskID:      newID("task"),
		QueueID:     queueID,
		Position:    len(tasks),
		Description: description,
		Status:      domain.TaskStatusPending,
		CreatedAt:   time.Now(),
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// GetTaskQueue returns a queue and its tasks in position order.
func (s *Service) GetTaskQueue(ctx context.Context, queueID string) (*domain.TaskQueue, []domain.Task, error) {
	queue, err := s.store.GetTaskQueue(ctx, queueID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get task queue: %w", err)
	}
	if queue == nil {
		return nil, nil, notFound("task queue", queueID)
	}
	tasks, err := s.store.GetTasks(ctx, queueID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get tasks: %w", err)
	}
	return queue, tasks, nil
}

// RunTaskQueue executes all pending tasks strictly sequentially, in
// position order. Each task resolves to completed with output or failed
// with an error message before the next one starts. A failed task does
// not stop the queue. Runs of one queue are serialized.
func (s *Service) RunTaskQueue(ctx context.Context, queueID string) ([]domain.Task, error) {
	lock := s.queueLock(queueID)
	lock.Lock()
	defer lock.Unlock()

	queue, err := s.store.GetTaskQueue(ctx, queueID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task queue: %w", err)
	}
	if queue == nil {
		return nil, notFound("task queue", queueID)
	}

	provider, model, err := domain.ParseModelSpec(queue.ModelSpec)
	if err != nil {
		return nil, err
	}
	client, err := s.clientFor(ctx, provider)
	if err != nil {
		return nil, err
	}

	tasks, err := s.store.GetTasks(ctx, queueID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}

	// One agent for the whole run: later tasks see earlier results.
	a := agent.New(client, model, queue.Role, queue.RoleDescription)

	for _, task := range tasks {
		if task.Status != domain.TaskStatusPending {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := s.store.UpdateTaskStatus(ctx, task.TaskID, domain.TaskStatusRunning); err != nil {
			return nil, fmt.Errorf("failed to mark task running: %w", err)
		}

		output, stepErr := a.Step(ctx, task.Description)
		if stepErr != nil {
			if err := s.store.UpdateTaskResult(ctx, task.TaskID, domain.TaskStatusFailed, "", stepErr.Error()); err != nil {
				return nil, fmt.Errorf("failed to record task failure: %w", err)
			}
			continue
		}
		if err := s.store.UpdateTaskResult(ctx, task.TaskID, domain.TaskStatusCompleted, output, ""); err != nil {
			return nil, fmt.Errorf("failed to record task result: %w", err)
		}
	}

	return s.store.GetTasks(ctx, queueID)
}

// SaveTaskRun writes the queue's tasks and outcomes to a history record.
// Returns the record file path.
func (s *Service) SaveTaskRun(ctx context.Context, queueID string) (string, error) {
	queue, tasks, err := s.GetTaskQueue(ctx, queueID)
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return "", fmt.Errorf("no tasks to save")
	}

	results := make([]domain.TaskResult, 0, len(tasks))
	for _, task := range tasks {
		results = append(results, domain.TaskResult{
			Description: task.Description,
			Status:      task.Status,
			Output:      task.Output,
			Error:       task.Error,
		})
	}

	path, err := s.history.SaveTaskRun(&domain.TaskRecord{
		ModelSpec: queue.ModelSpec,
		Tasks:     results,
	})
	if err != nil {
		return "", fmt.Errorf("failed to save task record: %w", err)
	}
	return path, nil
}
