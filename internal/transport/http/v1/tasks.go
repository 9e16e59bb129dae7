package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type createQueueRequest struct {
	ModelSpec       string `json:"model_spec"`
	Role            string `json:"role"`
	RoleDescription string `json:"role_description"`
}

// CreateTaskQueue creates an empty task queue.
// POST /v1/tasks/queues
func (h *Handler) CreateTaskQueue(c echo.Context) error {
	var req createQueueRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}

	queue, err := h.service.CreateTaskQueue(c.Request().Context(), req.ModelSpec, req.Role, req.RoleDescription)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, queue)
}

type addTaskRequest struct {
	Description string `json:"description"`
}

// AddTask appends a task to a queue.
// POST /v1/tasks/queues/:queue_id/tasks
func (h *Handler) AddTask(c echo.Context) error {
	var req addTaskRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}

	task, err := h.service.AddTask(c.Request().Context(), c.Param("queue_id"), req.Description)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, task)
}

// RunTaskQueue executes all pending tasks sequentially.
// POST /v1/tasks/queues/:queue_id/run
func (h *Handler) RunTaskQueue(c echo.Context) error {
	tasks, err := h.service.RunTaskQueue(c.Request().Context(), c.Param("queue_id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tasks": tasks,
	})
}

// GetTaskQueue returns a queue and its tasks.
// GET /v1/tasks/queues/:queue_id
func (h *Handler) GetTaskQueue(c echo.Context) error {
	queue, tasks, err := h.service.GetTaskQueue(c.Request().Context(), c.Param("queue_id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"queue": queue,
		"tasks": tasks,
	})
}

// SaveTaskRun writes the queue's outcomes to a history record.
// POST /v1/tasks/queues/:queue_id/save
func (h *Handler) SaveTaskRun(c echo.Context) error {
	path, err := h.service.SaveTaskRun(c.Request().Context(), c.Param("queue_id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"path": path})
}
