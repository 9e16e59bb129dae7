package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/caravanai/caravan/internal/domain"
	"github.com/caravanai/caravan/internal/service"
)

type createRolePlayRequest struct {
	Provider             string `json:"provider"`
	Model                string `json:"model"`
	AssistantRole        string `json:"assistant_role"`
	AssistantDescription string `json:"assistant_description"`
	UserRole             string `json:"user_role"`
	UserDescription      string `json:"user_description"`
	TaskPrompt           string `json:"task_prompt"`
	WordLimit            int    `json:"word_limit"`
	SpecifyTask          bool   `json:"specify_task"`
}

// CreateRolePlaySession starts a two-agent role-play session.
// POST /v1/roleplay/sessions
func (h *Handler) CreateRolePlaySession(c echo.Context) error {
	var req createRolePlayRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}

	provider, err := domain.ParseProvider(req.Provider)
	if err != nil {
		return badRequest(c, err)
	}

	session, specifiedTask, err := h.service.CreateRolePlaySession(c.Request().Context(), service.RolePlayParams{
		Provider:             provider,
		Model:                req.Model,
		AssistantRole:        req.AssistantRole,
		AssistantDescription: req.AssistantDescription,
		UserRole:             req.UserRole,
		UserDescription:      req.UserDescription,
		TaskPrompt:           req.TaskPrompt,
		WordLimit:            req.WordLimit,
		SpecifyTask:          req.SpecifyTask,
	})
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"session":        session,
		"specified_task": specifiedTask,
	})
}

// StepRolePlay runs one two-agent exchange.
// POST /v1/roleplay/sessions/:session_id/step
func (h *Handler) StepRolePlay(c echo.Context) error {
	messages, done, err := h.service.StepRolePlay(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
		"done":     done,
	})
}

// GetRolePlayMessages retrieves a role-play session's turns.
// GET /v1/roleplay/sessions/:session_id/messages
func (h *Handler) GetRolePlayMessages(c echo.Context) error {
	messages, err := h.service.GetRolePlayMessages(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
	})
}

// SaveRolePlaySession writes the exchange to a history record.
// POST /v1/roleplay/sessions/:session_id/save
func (h *Handler) SaveRolePlaySession(c echo.Context) error {
	path, err := h.service.SaveRolePlaySession(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"path": path})
}
