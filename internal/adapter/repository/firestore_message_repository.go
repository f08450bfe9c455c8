package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sewahome/internal/domain/entity"
	"sewahome/internal/domain/repository"
	"sewahome/internal/domain/service"
	"sewahome/pkg/errors"
	"sewahome/pkg/logger"
)

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) messages(conversationKey string) *firestore.CollectionRef {
	return r.client.Collection("conversations").Doc(conversationKey).Collection("messages")
}

func (r *firestoreMessageRepository) Append(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	// Server timestamp is the ordering authority; whatever the caller set is
	// overwritten here.
	message.CreatedAt = time.Now()
	if message.ReadBy == nil {
		message.ReadBy = []entity.ReadReceipt{}
	}

	if _, err := r.messages(message.ConversationKey).Doc(message.ID).Set(ctx, message); err != nil {
		return errors.Internal("Failed to append message", err)
	}

	return r.touchConversation(ctx, message)
}

// touchConversation maintains the summary document the conversation list is
// built from. The document is created lazily on first append; the key itself
// is valid without it.
func (r *firestoreMessageRepository) touchConversation(ctx context.Context, message *entity.Message) error {
	a, b, listingID, err := service.ParticipantsFromKey(message.ConversationKey)
	if err != nil {
		return err
	}

	docRef := r.client.Collection("conversations").Doc(message.ConversationKey)

	summary := map[string]interface{}{
		"key":           message.ConversationKey,
		"participants":  []string{a, b},
		"updatedAt":     message.CreatedAt,
		"lastMessage":   message.Content,
		"lastMessageAt": message.CreatedAt,
		"lastSenderId":  message.SenderID,
	}
	if listingID != "" {
		summary["listingId"] = listingID
	}

	if _, err := docRef.Set(ctx, summary, firestore.MergeAll); err != nil {
		return errors.Internal("Failed to update conversation summary", err)
	}

	updates := []firestore.Update{
		{Path: "unreadCount." + message.RecipientID, Value: firestore.Increment(1)},
	}
	if _, err := docRef.Update(ctx, updates); err != nil {
		logger.Warn("Failed to bump unread count for conversation %s: %v", message.ConversationKey, err)
	}

	return nil
}

func (r *firestoreMessageRepository) ListSince(ctx context.Context, conversationKey, cursor string, limit int) ([]*entity.Message, error) {
	query := r.messages(conversationKey).
		OrderBy("createdAt", firestore.Asc).
		OrderBy("id", firestore.Asc)

	if cursor != "" {
		cursorDoc, err := r.messages(conversationKey).Doc(cursor).Get(ctx)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil, errors.NotFound("Cursor message", err)
			}
			return nil, errors.Internal("Failed to resolve cursor", err)
		}
		var cursorMsg entity.Message
		if err := cursorDoc.DataTo(&cursorMsg); err != nil {
			return nil, errors.Internal("Failed to parse cursor message", err)
		}
		query = query.StartAfter(cursorMsg.CreatedAt, cursorMsg.ID)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages for conversation %s: %v", conversationKey, err)
			return nil, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}

	return messages, nil
}

func (r *firestoreMessageRepository) MarkRead(ctx context.Context, conversationKey, readerID, uptoMessageID string) error {
	uptoDoc, err := r.messages(conversationKey).Doc(uptoMessageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Message", err)
		}
		return errors.Internal("Failed to get message", err)
	}

	var upto entity.Message
	if err := uptoDoc.DataTo(&upto); err != nil {
		return errors.Internal("Failed to parse message data", err)
	}

	readAt := time.Now()
	query := r.messages(conversationKey).
		Where("createdAt", "<=", upto.CreatedAt).
		OrderBy("createdAt", firestore.Asc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return errors.Internal("Failed to iterate messages for read marking", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return errors.Internal("Failed to parse message data", err)
		}

		// Senders do not read-receipt their own messages, and re-marking is
		// a no-op.
		if message.SenderID == readerID || message.ReadByUser(readerID) {
			continue
		}

		message.ReadBy = append(message.ReadBy, entity.ReadReceipt{UserID: readerID, ReadAt: readAt})
		if _, err := doc.Ref.Set(ctx, message); err != nil {
			return errors.Internal("Failed to update message read status", err)
		}
	}

	summaryRef := r.client.Collection("conversations").Doc(conversationKey)
	if _, err := summaryRef.Update(ctx, []firestore.Update{
		{Path: "unreadCount." + readerID, Value: 0},
	}); err != nil && status.Code(err) != codes.NotFound {
		logger.Warn("Failed to reset unread count for conversation %s: %v", conversationKey, err)
	}

	return nil
}

func (r *firestoreMessageRepository) GetConversation(ctx context.Context, conversationKey string) (*entity.Conversation, error) {
	doc, err := r.client.Collection("conversations").Doc(conversationKey).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	return &conversation, nil
}

func (r *firestoreMessageRepository) ListConversations(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	query := r.client.Collection("conversations").
		Where("participants", "array-contains", userID).
		OrderBy("updatedAt", firestore.Desc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var conversations []*entity.Conversation
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while fetching conversations for user %s: %v", userID, err)
			return nil, errors.Internal("Failed to fetch conversations", err)
		}

		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			return nil, errors.Internal("Failed to parse conversation data", err)
		}
		conversations = append(conversations, &conversation)
	}

	return conversations, nil
}
