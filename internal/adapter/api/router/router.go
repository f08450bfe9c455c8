package router

import (
	"github.com/labstack/echo/v4"

	"sewahome/internal/adapter/api/handler"
	"sewahome/internal/adapter/api/middleware"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, chatHandler *handler.ChatHandler, blockHandler *handler.BlockHandler, wsHandler *handler.WebSocketHandler, healthHandler *handler.HealthHandler) {
	SetupHealthRouter(e, healthHandler)
	SetupChatRouter(e, chatHandler, authMiddleware)
	SetupBlockRouter(e, blockHandler, authMiddleware)
	SetupWebSocketRouter(e, wsHandler)
}
