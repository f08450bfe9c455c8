package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"sewahome/internal/domain/service"
	apperrors "sewahome/pkg/errors"
	"sewahome/pkg/logger"
)

const frameTimeout = 10 * time.Second

// HandleClientMessage routes one inbound frame from a live connection.
func (m *Manager) HandleClientMessage(client *Client, payload []byte) {
	var frame Frame
	if err := json.Unmarshal(payload, &frame); err != nil {
		logger.Warn("WebSocket: malformed frame from user %s: %v", client.UserID, err)
		m.sendError(client, "BAD_FRAME", "Invalid frame format", "")
		return
	}

	switch frame.Type {
	case FramePing:
		m.touch(client.UserID)
		m.sendFrame(client, newFrame(FramePong, map[string]string{"status": "alive"}))

	case FrameSendMessage:
		m.handleSendMessage(client, frame.Data)

	case FrameStartTyping:
		m.handleTyping(client, frame.Data, true)

	case FrameStopTyping:
		m.handleTyping(client, frame.Data, false)

	case FrameMarkRead:
		m.handleMarkRead(client, frame.Data)

	case FramePresenceSubscribe:
		m.handlePresenceSubscribe(client, frame.Data)

	default:
		logger.Warn("WebSocket: unknown frame type '%s' from user %s", frame.Type, client.UserID)
		m.sendError(client, "BAD_FRAME", "Unknown frame type", "")
	}
}

func (m *Manager) handleSendMessage(client *Client, data interface{}) {
	var send SendMessageData
	if !m.decode(client, data, &send) {
		return
	}

	if send.RecipientID == "" || send.Content == "" {
		m.sendError(client, "VALIDATION_ERROR", "recipient_id and content are required", send.TempID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	_, err := m.service.SendFromSocket(ctx, client.UserID, client.ID, send.TempID, send.RecipientID, send.ListingID, send.Content)
	if err != nil {
		// The failed frame carries the dedup token so the session can
		// restore the draft instead of silently losing it.
		code, message := "INTERNAL_ERROR", "Failed to send message"
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			code, message = appErr.Code, appErr.Message
		}
		logger.Warn("WebSocket: send from %s rejected: %v", client.UserID, err)
		m.sendError(client, code, message, send.TempID)
		return
	}
}

func (m *Manager) handleTyping(client *Client, data interface{}, isTyping bool) {
	var signal TypingSignalData
	if !m.decode(client, data, &signal) {
		return
	}
	if signal.RecipientID == "" {
		return
	}

	// Excess typing signals are dropped silently, never surfaced.
	if m.limiter != nil {
		if allowed, _ := m.limiter.Allow(client.UserID, "typing"); !allowed {
			return
		}
	}

	conversationKey, err := service.ResolveConversationKey(client.UserID, signal.RecipientID, signal.ListingID)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	m.typing.Signal(ctx, conversationKey, client.UserID, signal.RecipientID, isTyping, signal.Seq)
}

func (m *Manager) handleMarkRead(client *Client, data interface{}) {
	var read MarkReadData
	if !m.decode(client, data, &read) {
		return
	}
	if read.ConversationKey == "" || read.UptoMessageID == "" {
		m.sendError(client, "VALIDATION_ERROR", "conversation_key and upto_message_id are required", "")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	if err := m.service.MarkRead(ctx, client.UserID, read.ConversationKey, read.UptoMessageID); err != nil {
		logger.Warn("WebSocket: mark_read from %s failed: %v", client.UserID, err)
	}
}

func (m *Manager) handlePresenceSubscribe(client *Client, data interface{}) {
	var sub PresenceSubscribeData
	if !m.decode(client, data, &sub) {
		return
	}
	if sub.UserID == "" {
		return
	}

	m.Subscribe(client.UserID, sub.UserID)

	// Answer with the current state so the subscriber does not wait for the
	// next transition.
	frameType := FrameUserOffline
	if m.IsOnline(sub.UserID) {
		frameType = FrameUserOnline
	}
	lastSeen := ""
	if t, ok := m.LastSeen(sub.UserID); ok {
		lastSeen = t.UTC().Format(time.RFC3339)
	}
	m.sendFrame(client, newFrame(frameType, PresenceEventData{UserID: sub.UserID, LastSeen: lastSeen}))
}

// decode re-marshals the envelope's loose data field into a typed payload.
func (m *Manager) decode(client *Client, data interface{}, out interface{}) bool {
	raw, err := json.Marshal(data)
	if err != nil {
		m.sendError(client, "BAD_FRAME", "Invalid frame data", "")
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		m.sendError(client, "BAD_FRAME", "Invalid frame data", "")
		return false
	}
	return true
}

func (m *Manager) sendError(client *Client, code, message, tempID string) {
	m.sendFrame(client, newFrame(FrameError, ErrorData{
		Code:    code,
		Message: message,
		TempID:  tempID,
	}))
}
