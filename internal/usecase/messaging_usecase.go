package usecase

import (
	"context"
	"strings"

	"sewahome/internal/domain/entity"
	"sewahome/internal/domain/repository"
	"sewahome/internal/domain/service"
	"sewahome/internal/infrastructure/ratelimit"
	"sewahome/pkg/errors"
	"sewahome/pkg/logger"
)

type MessagingUseCase struct {
	messageRepo      repository.MessageRepository
	userRepo         repository.UserRepository
	listingRepo      repository.ListingRepository
	blocks           *BlockUseCase
	dispatcher       Dispatcher
	rateLimiter      *ratelimit.RateLimiter
	maxContentLength int
}

func NewMessagingUseCase(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	listingRepo repository.ListingRepository,
	blocks *BlockUseCase,
	dispatcher Dispatcher,
	rateLimiter *ratelimit.RateLimiter,
	maxContentLength int,
) *MessagingUseCase {
	return &MessagingUseCase{
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		listingRepo:      listingRepo,
		blocks:           blocks,
		dispatcher:       dispatcher,
		rateLimiter:      rateLimiter,
		maxContentLength: maxContentLength,
	}
}

type SendMessageInput struct {
	RecipientID string
	ListingID   string
	Content     string
	// TempID is the client-generated dedup token for optimistic sends.
	TempID string
	// OriginConnID identifies the live connection that issued the send, so
	// the dispatcher can ack it and skip it on the message_sent echo. Empty
	// for REST sends.
	OriginConnID string
}

type ConversationResponse struct {
	*entity.Conversation
	OtherUser *entity.User    `json:"other_user,omitempty"`
	Listing   *entity.Listing `json:"listing,omitempty"`
}

// SendMessage validates, persists, then dispatches. Dispatch strictly
// follows durability: a message the caller believes stored must actually be
// stored, and a live-delivery failure is not an error here.
func (uc *MessagingUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*entity.Message, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, errors.Validation("Message content is required", nil)
	}
	if uc.maxContentLength > 0 && len([]rune(content)) > uc.maxContentLength {
		return nil, errors.Validation("Message content exceeds the maximum length", nil)
	}

	conversationKey, err := service.ResolveConversationKey(senderID, input.RecipientID, input.ListingID)
	if err != nil {
		return nil, err
	}

	if uc.rateLimiter != nil {
		if allowed, waitTime := uc.rateLimiter.Allow(senderID, "send_message"); !allowed {
			logger.Warn("SendMessage rate limited: user %s must wait %v", senderID, waitTime)
			return nil, errors.TooManyRequests("You are sending messages too quickly. Please slow down", waitTime)
		}
	}

	if _, err := uc.userRepo.GetByID(ctx, input.RecipientID); err != nil {
		logger.Warn("SendMessage: recipient %s not found: %v", input.RecipientID, err)
		return nil, errors.NotFound("Recipient", err)
	}

	if input.ListingID != "" {
		if _, err := uc.listingRepo.GetByID(ctx, input.ListingID); err != nil {
			logger.Warn("SendMessage: listing %s not found: %v", input.ListingID, err)
			return nil, errors.NotFound("Listing", err)
		}
	}

	blocked, err := uc.blocks.IsBlockedEitherWay(ctx, senderID, input.RecipientID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, errors.Blocked("You cannot message this user")
	}

	message := &entity.Message{
		ConversationKey: conversationKey,
		SenderID:        senderID,
		RecipientID:     input.RecipientID,
		ListingID:       input.ListingID,
		Content:         content,
	}

	if err := uc.messageRepo.Append(ctx, message); err != nil {
		logger.Error("SendMessage: failed to append message for conversation %s: %v", conversationKey, err)
		return nil, err
	}

	uc.dispatcher.DeliverMessage(ctx, message, input.OriginConnID, input.TempID)

	return message, nil
}

// SendFromSocket adapts a live-channel frame onto SendMessage.
func (uc *MessagingUseCase) SendFromSocket(ctx context.Context, senderID, originConnID, tempID, recipientID, listingID, content string) (*entity.Message, error) {
	return uc.SendMessage(ctx, senderID, SendMessageInput{
		RecipientID:  recipientID,
		ListingID:    listingID,
		Content:      content,
		TempID:       tempID,
		OriginConnID: originConnID,
	})
}

// GetHistory returns messages between the caller and a peer in ascending
// createdAt order. cursor restarts pagination from the last seen message id.
func (uc *MessagingUseCase) GetHistory(ctx context.Context, userID, peerID, listingID, cursor string, limit int) ([]*entity.Message, error) {
	conversationKey, err := service.ResolveConversationKey(userID, peerID, listingID)
	if err != nil {
		return nil, err
	}
	return uc.messageRepo.ListSince(ctx, conversationKey, cursor, limit)
}

// MarkRead appends read receipts up to uptoMessageID. Idempotent.
func (uc *MessagingUseCase) MarkRead(ctx context.Context, readerID, conversationKey, uptoMessageID string) error {
	if !service.IsParticipant(conversationKey, readerID) {
		return errors.Forbidden("You are not a participant in this conversation", nil)
	}

	if err := uc.messageRepo.MarkRead(ctx, conversationKey, readerID, uptoMessageID); err != nil {
		return err
	}

	a, b, _, err := service.ParticipantsFromKey(conversationKey)
	if err != nil {
		return err
	}
	peerID := a
	if readerID == a {
		peerID = b
	}
	uc.dispatcher.PublishReadReceipt(conversationKey, readerID, peerID, uptoMessageID)

	return nil
}

// MarkReadByPeer is the REST-facing variant addressed by peer rather than by
// conversation key.
func (uc *MessagingUseCase) MarkReadByPeer(ctx context.Context, readerID, peerID, listingID, uptoMessageID string) error {
	conversationKey, err := service.ResolveConversationKey(readerID, peerID, listingID)
	if err != nil {
		return err
	}
	return uc.MarkRead(ctx, readerID, conversationKey, uptoMessageID)
}

// ListConversations returns the caller's conversations newest-first, with
// the peer and listing embedded for the list view. Embed lookups are best
// effort; a missing profile never hides the conversation.
func (uc *MessagingUseCase) ListConversations(ctx context.Context, userID string) ([]*ConversationResponse, error) {
	conversations, err := uc.messageRepo.ListConversations(ctx, userID)
	if err != nil {
		logger.Error("ListConversations: failed for user %s: %v", userID, err)
		return nil, err
	}

	responses := make([]*ConversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		resp := &ConversationResponse{Conversation: conversation}

		if peerID := conversation.PeerOf(userID); peerID != "" {
			if peer, err := uc.userRepo.GetByID(ctx, peerID); err == nil {
				resp.OtherUser = peer
			} else {
				logger.Warn("ListConversations: peer %s not found for conversation %s: %v", peerID, conversation.Key, err)
			}
		}

		if conversation.ListingID != "" {
			if listing, err := uc.listingRepo.GetByID(ctx, conversation.ListingID); err == nil {
				resp.Listing = listing
			} else {
				logger.Warn("ListConversations: listing %s not found for conversation %s: %v", conversation.ListingID, conversation.Key, err)
			}
		}

		responses = append(responses, resp)
	}

	return responses, nil
}
