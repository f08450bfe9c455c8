package websocket

import (
	"context"
	"encoding/json"
	"time"

	"sewahome/internal/domain/entity"
	"sewahome/pkg/logger"
)

// Dispatcher routes persisted messages and ephemeral events to live
// connections. Live-delivery failures are logged and swallowed: durability
// already succeeded upstream, so an undelivered event simply arrives on the
// recipient's next history fetch.
type Dispatcher struct {
	manager *Manager
	blocks  BlockChecker
}

func NewDispatcher(manager *Manager, blocks BlockChecker) *Dispatcher {
	return &Dispatcher{
		manager: manager,
		blocks:  blocks,
	}
}

// DeliverMessage fans a freshly persisted message out: message_received to
// every live handle of the recipient, message_sent to every other session of
// the sender, and message_ack to the connection that issued the send (when
// the send came over the socket). The block gate is rechecked here to cover
// a block racing an in-flight send.
func (d *Dispatcher) DeliverMessage(ctx context.Context, msg *entity.Message, originConnID, tempID string) {
	deliver := true
	if d.blocks != nil {
		blocked, err := d.blocks.IsBlockedEitherWay(ctx, msg.SenderID, msg.RecipientID)
		if err != nil {
			// Fail closed for the recipient: this recheck exists to catch a
			// block racing the send, and the message is already durable, so
			// it still arrives on the next history fetch.
			logger.Warn("Dispatch: block check failed for message %s: %v", msg.ID, err)
			deliver = false
		} else if blocked {
			deliver = false
		}
	}

	if deliver {
		d.publish(FrameMessageReceived, MessageEventData{Message: msg}, msg.RecipientID, "")
	}

	if originConnID != "" {
		ack := d.marshal(newFrame(FrameMessageAck, MessageAckData{TempID: tempID, Message: msg}))
		if ack != nil {
			d.manager.SendToConn(msg.SenderID, originConnID, ack)
		}
	}
	d.publish(FrameMessageSent, MessageEventData{Message: msg}, msg.SenderID, originConnID)
}

// PublishTyping implements TypingPublisher.
func (d *Dispatcher) PublishTyping(recipientID, senderID, conversationKey string, isTyping bool) {
	d.publish(FrameUserTyping, TypingEventData{
		ConversationKey: conversationKey,
		SenderID:        senderID,
		IsTyping:        isTyping,
	}, recipientID, "")
}

// PublishPresence implements PresencePublisher. Transitions go only to the
// users subscribed to this one, which bounds fan-out to known
// correspondents.
func (d *Dispatcher) PublishPresence(userID string, online bool, lastSeen time.Time) {
	frameType := FrameUserOffline
	if online {
		frameType = FrameUserOnline
	}

	payload := d.marshal(newFrame(frameType, PresenceEventData{
		UserID:   userID,
		LastSeen: lastSeen.UTC().Format(time.RFC3339),
	}))
	if payload == nil {
		return
	}

	for _, watcherID := range d.manager.WatchersOf(userID) {
		d.manager.SendToUser(watcherID, payload)
	}
}

// PublishReadReceipt tells the peer's sessions the reader caught up.
func (d *Dispatcher) PublishReadReceipt(conversationKey, readerID, peerID, uptoMessageID string) {
	d.publish(FrameMessageRead, ReadReceiptData{
		ConversationKey: conversationKey,
		ReaderID:        readerID,
		UptoMessageID:   uptoMessageID,
	}, peerID, "")
}

func (d *Dispatcher) publish(frameType string, data interface{}, targetUserID, exceptConnID string) {
	payload := d.marshal(newFrame(frameType, data))
	if payload == nil {
		return
	}
	if exceptConnID != "" {
		d.manager.SendToUserExcept(targetUserID, exceptConnID, payload)
		return
	}
	d.manager.SendToUser(targetUserID, payload)
}

func (d *Dispatcher) marshal(frame Frame) []byte {
	payload, err := json.Marshal(frame)
	if err != nil {
		logger.Error("Dispatch: failed to marshal %s frame: %v", frame.Type, err)
		return nil
	}
	return payload
}
