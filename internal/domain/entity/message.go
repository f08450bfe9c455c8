package entity

import "time"

// ReadReceipt records a single reader acknowledging a message.
type ReadReceipt struct {
	UserID string    `json:"user_id" firestore:"userId"`
	ReadAt time.Time `json:"read_at" firestore:"readAt"`
}

type Message struct {
	ID              string        `json:"id" firestore:"id"`
	ConversationKey string        `json:"conversation_key" firestore:"conversationKey"`
	SenderID        string        `json:"sender_id" firestore:"senderId"`
	RecipientID     string        `json:"recipient_id" firestore:"recipientId"`
	ListingID       string        `json:"listing_id,omitempty" firestore:"listingId,omitempty"`
	Content         string        `json:"content" firestore:"content"`
	ReadBy          []ReadReceipt `json:"read_by" firestore:"readBy"`
	CreatedAt       time.Time     `json:"created_at" firestore:"createdAt"`
}

// ReadByUser reports whether reader already acknowledged this message.
func (m *Message) ReadByUser(readerID string) bool {
	for _, r := range m.ReadBy {
		if r.UserID == readerID {
			return true
		}
	}
	return false
}
