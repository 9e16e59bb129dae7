package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/caravanai/caravan/internal/domain"
)

// ListProviders returns every provider's key status and default model.
// GET /v1/providers
func (h *Handler) ListProviders(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"providers": h.service.ListProviders(),
	})
}

type saveKeyRequest struct {
	Provider    string `json:"provider"`
	APIKey      string `json:"api_key"`
	MakeDefault bool   `json:"make_default"`
}

// SaveAPIKey stores or removes a provider API key.
// PUT /v1/providers/keys
func (h *Handler) SaveAPIKey(c echo.Context) error {
	var req saveKeyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}

	provider, err := domain.ParseProvider(req.Provider)
	if err != nil {
		return badRequest(c, err)
	}

	if err := h.service.SaveAPIKey(provider, req.APIKey, req.MakeDefault); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"providers": h.service.ListProviders(),
	})
}
