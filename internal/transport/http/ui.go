package http

import (
	"embed"

	"github.com/labstack/echo/v4"
)

//go:embed web
var webFS embed.FS

// RegisterUI serves the embedded single-page UI at the root path.
func RegisterUI(e *echo.Echo) {
	e.FileFS("/", "web/index.html", webFS)
	e.StaticFS("/web", echo.MustSubFS(webFS, "web"))
}
