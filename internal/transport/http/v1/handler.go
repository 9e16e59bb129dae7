// Package v1 provides the JSON API handlers for the playground.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/caravanai/caravan/internal/adapter/llm"
	"github.com/caravanai/caravan/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Provider / key API
	e.GET("/v1/providers", h.ListProviders)
	e.PUT("/v1/providers/keys", h.SaveAPIKey)

	// Chat API
	e.POST("/v1/chat/sessions", h.CreateChatSession)
	e.POST("/v1/chat/sessions/:session_id/messages", h.SendChatMessage)
	e.GET("/v1/chat/sessions/:session_id/messages", h.GetChatMessages)
	e.POST("/v1/chat/sessions/:session_id/save", h.SaveChatSession)
	e.DELETE("/v1/chat/sessions/:session_id", h.DeleteChatSession)

	// Role play API
	e.POST("/v1/roleplay/sessions", h.CreateRolePlaySession)
	e.POST("/v1/roleplay/sessions/:session_id/step", h.StepRolePlay)
	e.GET("/v1/roleplay/sessions/:session_id/messages", h.GetRolePlayMessages)
	e.POST("/v1/roleplay/sessions/:session_id/save", h.SaveRolePlaySession)

	// Task automation API
	e.POST("/v1/tasks/queues", h.CreateTaskQueue)
	e.POST("/v1/tasks/queues/:queue_id/tasks", h.AddTask)
	e.POST("/v1/tasks/queues/:queue_id/run", h.RunTaskQueue)
	e.GET("/v1/tasks/queues/:queue_id", h.GetTaskQueue)
	e.POST("/v1/tasks/queues/:queue_id/save", h.SaveTaskRun)

	// Analytics API
	e.GET("/v1/analytics", h.GetAnalytics)
	e.GET("/v1/analytics/export", h.ExportAnalytics)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// errorJSON maps a service error to an HTTP response. Not-found errors
// become 404, validation and policy failures 400, upstream provider
// failures 502, everything else 500 unless the handler chose a status.
func errorJSON(c echo.Context, err error) error {
	var notFound *service.ErrNotFound
	if errors.As(err, &notFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	var invalid *service.ErrInvalid
	if errors.As(err, &invalid) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
}
