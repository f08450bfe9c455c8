package router

import (
	"github.com/labstack/echo/v4"

	"sewahome/internal/adapter/api/handler"
)

// SetupDevRouter registers development-only endpoints.
func SetupDevRouter(e *echo.Echo, devTokenHandler *handler.DevTokenHandler, environment string) {
	if environment == "production" {
		return
	}

	e.POST("/v1/dev/token", devTokenHandler.GenerateToken)
}
