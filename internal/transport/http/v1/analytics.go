package v1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/caravanai/caravan/internal/analytics"
)

// GetAnalytics returns the computed aggregates over all saved records.
// GET /v1/analytics
func (h *Handler) GetAnalytics(c echo.Context) error {
	report, err := h.service.Analytics()
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// ExportAnalytics serves the analytics tables as a download.
// GET /v1/analytics/export?format=json|csv|xlsx
func (h *Handler) ExportAnalytics(c echo.Context) error {
	format := c.QueryParam("format")
	if format == "" {
		format = analytics.FormatJSON
	}

	data, contentType, err := h.service.ExportAnalytics(format)
	if err != nil {
		return badRequest(c, err)
	}

	filename := fmt.Sprintf("analytics_%s.%s", time.Now().Format("20060102_150405"), format)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, contentType, data)
}
