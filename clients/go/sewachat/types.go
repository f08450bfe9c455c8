package sewachat

import "time"

// Message mirrors the server's message payload.
type Message struct {
	ID              string        `json:"id"`
	ConversationKey string        `json:"conversation_key"`
	SenderID        string        `json:"sender_id"`
	RecipientID     string        `json:"recipient_id"`
	ListingID       string        `json:"listing_id,omitempty"`
	Content         string        `json:"content"`
	ReadBy          []ReadReceipt `json:"read_by"`
	CreatedAt       time.Time     `json:"created_at"`
}

type ReadReceipt struct {
	UserID string    `json:"user_id"`
	ReadAt time.Time `json:"read_at"`
}

// Conversation is one entry in the caller's conversation list.
type Conversation struct {
	Key           string         `json:"key"`
	Participants  []string       `json:"participants"`
	ListingID     string         `json:"listing_id,omitempty"`
	LastMessage   string         `json:"last_message,omitempty"`
	LastMessageAt time.Time      `json:"last_message_at"`
	LastSenderID  string         `json:"last_sender_id,omitempty"`
	UnreadCount   map[string]int `json:"unread_count"`
}

type TypingEvent struct {
	ConversationKey string `json:"conversation_key"`
	SenderID        string `json:"sender_id"`
	IsTyping        bool   `json:"is_typing"`
}

type PresenceEvent struct {
	UserID   string `json:"user_id"`
	Online   bool   `json:"-"`
	LastSeen string `json:"last_seen,omitempty"`
}

type ReadReceiptEvent struct {
	ConversationKey string `json:"conversation_key"`
	ReaderID        string `json:"reader_id"`
	UptoMessageID   string `json:"upto_message_id"`
}

type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TempID  string `json:"temp_id,omitempty"`
}
