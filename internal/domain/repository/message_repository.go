package repository

import (
	"context"

	"sewahome/internal/domain/entity"
)

type MessageRepository interface {
	// Append persists a new message. The implementation assigns the id and
	// the authoritative createdAt timestamp, and maintains the conversation
	// summary document.
	Append(ctx context.Context, message *entity.Message) error

	// ListSince returns messages for a conversation in ascending createdAt
	// order. cursor is the id of the last message already seen ("" walks
	// from the beginning); limit bounds the page size.
	ListSince(ctx context.Context, conversationKey, cursor string, limit int) ([]*entity.Message, error)

	// MarkRead appends a read receipt for readerID to every message up to
	// and including uptoMessageID that the reader has not already read.
	// Idempotent: re-marking a read message is a no-op.
	MarkRead(ctx context.Context, conversationKey, readerID, uptoMessageID string) error

	GetConversation(ctx context.Context, conversationKey string) (*entity.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]*entity.Conversation, error)
}
