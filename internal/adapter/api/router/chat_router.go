package router

import (
	"github.com/labstack/echo/v4"

	"sewahome/internal/adapter/api/handler"
	"sewahome/internal/adapter/api/middleware"
)

// SetupChatRouter sets up the conversation and message routes (excluding WebSocket)
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	group := e.Group("/v1/conversations")
	group.Use(authMiddleware.Authenticate)

	group.GET("", chatHandler.ListConversations)                  // GET /v1/conversations - conversation list
	group.GET("/:peerId/messages", chatHandler.GetMessages)       // GET /v1/conversations/:peerId/messages - history
	group.PUT("/:peerId/read", chatHandler.MarkConversationRead)  // PUT /v1/conversations/:peerId/read - mark read

	messages := e.Group("/v1/messages")
	messages.Use(authMiddleware.Authenticate)
	messages.POST("", chatHandler.SendMessage) // POST /v1/messages - durable send fallback
}
