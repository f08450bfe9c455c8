package router

import (
	"github.com/labstack/echo/v4"

	"sewahome/internal/adapter/api/handler"
	"sewahome/internal/adapter/api/middleware"
)

func SetupBlockRouter(e *echo.Echo, blockHandler *handler.BlockHandler, authMiddleware *middleware.AuthMiddleware) {
	group := e.Group("/v1/blocks")
	group.Use(authMiddleware.Authenticate)

	group.POST("", blockHandler.Block)             // POST /v1/blocks - block a user
	group.GET("", blockHandler.ListBlocks)         // GET /v1/blocks - list blocks
	group.DELETE("/:userId", blockHandler.Unblock) // DELETE /v1/blocks/:userId - unblock
}
