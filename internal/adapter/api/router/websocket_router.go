package router

import (
	"github.com/labstack/echo/v4"

	"sewahome/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up WebSocket routes.
// Auth happens inside the handler so the token can also arrive as a query
// param (browsers cannot set headers on WebSocket upgrades).
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
