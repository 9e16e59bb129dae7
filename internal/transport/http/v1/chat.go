package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/caravanai/caravan/internal/domain"
)

type createChatRequest struct {
	Provider        string `json:"provider"`
	Model           string `json:"model"`
	Role            string `json:"role"`
	RoleDescription string `json:"role_description"`
}

// CreateChatSession starts a chat session.
// POST /v1/chat/sessions
func (h *Handler) CreateChatSession(c echo.Context) error {
	var req createChatRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}

	provider, err := domain.ParseProvider(req.Provider)
	if err != nil {
		return badRequest(c, err)
	}

	session, err := h.service.CreateChatSession(c.Request().Context(), provider, req.Model, req.Role, req.RoleDescription)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, session)
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// SendChatMessage sends a user message and returns both stored messages.
// POST /v1/chat/sessions/:session_id/messages
func (h *Handler) SendChatMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}
	if req.Content == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "content is required"})
	}

	messages, err := h.service.SendChatMessage(c.Request().Context(), c.Param("session_id"), req.Content)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
	})
}

// GetChatMessages retrieves a chat session's messages.
// GET /v1/chat/sessions/:session_id/messages
func (h *Handler) GetChatMessages(c echo.Context) error {
	messages, err := h.service.GetChatMessages(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
	})
}

// SaveChatSession writes the conversation to a history record.
// POST /v1/chat/sessions/:session_id/save
func (h *Handler) SaveChatSession(c echo.Context) error {
	path, err := h.service.SaveChatSession(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"path": path})
}

// DeleteChatSession removes a chat session.
// DELETE /v1/chat/sessions/:session_id
func (h *Handler) DeleteChatSession(c echo.Context) error {
	if err := h.service.DeleteChatSession(c.Request().Context(), c.Param("session_id")); err != nil {
		return errorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
