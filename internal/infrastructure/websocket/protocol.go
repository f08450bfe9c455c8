package websocket

import (
	"time"

	"sewahome/internal/domain/entity"
)

// Frame types, client to server.
const (
	FramePing              = "ping"
	FrameSendMessage       = "send_message"
	FrameStartTyping       = "start_typing"
	FrameStopTyping        = "stop_typing"
	FrameMarkRead          = "mark_read"
	FramePresenceSubscribe = "presence_subscribe"
)

// Frame types, server to client.
const (
	FramePong            = "pong"
	FrameMessageReceived = "message_received"
	FrameMessageSent     = "message_sent"
	FrameMessageAck      = "message_ack"
	FrameUserTyping      = "user_typing"
	FrameUserOnline      = "user_online"
	FrameUserOffline     = "user_offline"
	FrameMessageRead     = "message_read"
	FrameError           = "error"
)

// Frame is the envelope every payload travels in, both directions.
type Frame struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func newFrame(frameType string, data interface{}) Frame {
	return Frame{
		Type:      frameType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

type SendMessageData struct {
	TempID      string `json:"temp_id,omitempty"`
	RecipientID string `json:"recipient_id"`
	ListingID   string `json:"listing_id,omitempty"`
	Content     string `json:"content"`
}

type TypingSignalData struct {
	RecipientID string `json:"recipient_id"`
	ListingID   string `json:"listing_id,omitempty"`
	Seq         int64  `json:"seq,omitempty"`
}

type MarkReadData struct {
	ConversationKey string `json:"conversation_key"`
	UptoMessageID   string `json:"upto_message_id"`
}

type PresenceSubscribeData struct {
	UserID string `json:"user_id"`
}

type MessageEventData struct {
	Message *entity.Message `json:"message"`
}

// MessageAckData confirms a socket send back to the connection that issued
// it, carrying the client dedup token so the session can reconcile its
// pending list.
type MessageAckData struct {
	TempID  string          `json:"temp_id,omitempty"`
	Message *entity.Message `json:"message"`
}

type TypingEventData struct {
	ConversationKey string `json:"conversation_key"`
	SenderID        string `json:"sender_id"`
	IsTyping        bool   `json:"is_typing"`
}

type PresenceEventData struct {
	UserID   string `json:"user_id"`
	LastSeen string `json:"last_seen,omitempty"`
}

type ReadReceiptData struct {
	ConversationKey string `json:"conversation_key"`
	ReaderID        string `json:"reader_id"`
	UptoMessageID   string `json:"upto_message_id"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TempID  string `json:"temp_id,omitempty"`
}
