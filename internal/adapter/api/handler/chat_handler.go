package handler

import (
	"github.com/labstack/echo/v4"

	"sewahome/internal/usecase"
	"sewahome/pkg/response"
	"sewahome/pkg/utils"
)

type ChatHandler struct {
	messagingUseCase *usecase.MessagingUseCase
}

func NewChatHandler(messagingUseCase *usecase.MessagingUseCase) *ChatHandler {
	return &ChatHandler{
		messagingUseCase: messagingUseCase,
	}
}

type sendMessageRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	ListingID   string `json:"listing_id,omitempty"`
	Content     string `json:"content" validate:"required"`
	DedupKey    string `json:"dedup_key,omitempty"`
}

type markReadRequest struct {
	ListingID     string `json:"listing_id,omitempty"`
	UptoMessageID string `json:"upto_message_id" validate:"required"`
}

// ListConversations returns the caller's conversations, newest first.
func (h *ChatHandler) ListConversations(c echo.Context) error {
	userID := c.Get("uid").(string)

	conversations, err := h.messagingUseCase.ListConversations(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversations)
}

// GetMessages returns message history with a peer, ascending, paginated by
// cursor.
func (h *ChatHandler) GetMessages(c echo.Context) error {
	userID := c.Get("uid").(string)
	peerID := c.Param("peerId")
	listingID := c.QueryParam("listing_id")
	params := utils.GetCursorParams(c)

	messages, err := h.messagingUseCase.GetHistory(c.Request().Context(), userID, peerID, listingID, params.Cursor, params.Limit)
	if err != nil {
		return response.Error(c, err)
	}

	nextCursor := ""
	if len(messages) == params.Limit && params.Limit > 0 {
		nextCursor = messages[len(messages)-1].ID
	}

	return response.Paginated(c, messages, int64(len(messages)), nextCursor)
}

// SendMessage is the durable fallback for when the live channel is down.
// Idempotence of retried sends is the caller's job via dedup_key.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	userID := c.Get("uid").(string)

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.messagingUseCase.SendMessage(c.Request().Context(), userID, usecase.SendMessageInput{
		RecipientID: req.RecipientID,
		ListingID:   req.ListingID,
		Content:     req.Content,
		TempID:      req.DedupKey,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// MarkConversationRead marks everything up to a message as read by the
// caller. Safe to retry.
func (h *ChatHandler) MarkConversationRead(c echo.Context) error {
	userID := c.Get("uid").(string)
	peerID := c.Param("peerId")

	var req markReadRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.messagingUseCase.MarkReadByPeer(c.Request().Context(), userID, peerID, req.ListingID, req.UptoMessageID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "read"})
}
