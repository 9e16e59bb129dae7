// Package http provides the HTTP server for the playground.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/caravanai/caravan/internal/service"
	v1 "github.com/caravanai/caravan/internal/transport/http/v1"
	"github.com/caravanai/caravan/internal/transport/ws"
)

// NewServer creates and configures the HTTP server: the JSON API, the
// chat WebSocket endpoint and the embedded UI.
func NewServer(svc *service.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	v1Handler := v1.NewHandler(svc)
	v1Handler.RegisterRoutes(e)

	wsHandler := ws.NewHandler(svc)
	wsHandler.RegisterRoutes(e)

	RegisterUI(e)

	return e
}
