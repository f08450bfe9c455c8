package handler

import (
	"github.com/labstack/echo/v4"

	"sewahome/internal/usecase"
	"sewahome/pkg/response"
)

type BlockHandler struct {
	blockUseCase *usecase.BlockUseCase
}

func NewBlockHandler(blockUseCase *usecase.BlockUseCase) *BlockHandler {
	return &BlockHandler{
		blockUseCase: blockUseCase,
	}
}

type blockRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func (h *BlockHandler) Block(c echo.Context) error {
	userID := c.Get("uid").(string)

	var req blockRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.blockUseCase.Block(c.Request().Context(), userID, req.UserID); err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, map[string]string{"status": "blocked"})
}

func (h *BlockHandler) Unblock(c echo.Context) error {
	userID := c.Get("uid").(string)
	blockedID := c.Param("userId")

	if err := h.blockUseCase.Unblock(c.Request().Context(), userID, blockedID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "unblocked"})
}

func (h *BlockHandler) ListBlocks(c echo.Context) error {
	userID := c.Get("uid").(string)

	blocks, err := h.blockUseCase.ListBlocks(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, blocks)
}
