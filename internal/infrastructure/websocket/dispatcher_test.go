package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sewahome/internal/domain/entity"
)

func drainFrames(t *testing.T, c *Client) []Frame {
	t.Helper()
	var frames []Frame
	for {
		select {
		case payload := <-c.Send:
			var f Frame
			require.NoError(t, json.Unmarshal(payload, &f))
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func frameTypes(frames []Frame) []string {
	types := make([]string, 0, len(frames))
	for _, f := range frames {
		types = append(types, f.Type)
	}
	return types
}

func TestDeliverMessageFansOutPerRole(t *testing.T) {
	m := NewManager(0)
	d := NewDispatcher(m, &staticBlockChecker{})

	recipient1 := newTestClient("r1", "anita")
	recipient2 := newTestClient("r2", "anita")
	origin := newTestClient("origin", "bram")
	otherSession := newTestClient("other", "bram")
	for _, c := range []*Client{recipient1, recipient2, origin, otherSession} {
		m.Register(c)
	}

	msg := &entity.Message{
		ID:              "m1",
		ConversationKey: "anita_bram_l42",
		SenderID:        "bram",
		RecipientID:     "anita",
		ListingID:       "l42",
		Content:         "Is this room still available?",
		CreatedAt:       time.Now(),
	}

	d.DeliverMessage(context.Background(), msg, "origin", "tmp-1")

	// Every recipient handle gets the message.
	for _, c := range []*Client{recipient1, recipient2} {
		frames := drainFrames(t, c)
		require.Len(t, frames, 1, "connection %s", c.ID)
		assert.Equal(t, FrameMessageReceived, frames[0].Type)
	}

	// The sender's other session gets the echo, not the original event.
	frames := drainFrames(t, otherSession)
	require.Len(t, frames, 1)
	assert.Equal(t, FrameMessageSent, frames[0].Type)

	// The origin connection gets an ack carrying the dedup token.
	frames = drainFrames(t, origin)
	require.Len(t, frames, 1)
	assert.Equal(t, FrameMessageAck, frames[0].Type)
	data, err := json.Marshal(frames[0].Data)
	require.NoError(t, err)
	var ack MessageAckData
	require.NoError(t, json.Unmarshal(data, &ack))
	assert.Equal(t, "tmp-1", ack.TempID)
	require.NotNil(t, ack.Message)
	assert.Equal(t, "m1", ack.Message.ID)
}

func TestDeliverMessageSuppressesRecipientWhenBlocked(t *testing.T) {
	m := NewManager(0)
	d := NewDispatcher(m, &staticBlockChecker{blocked: true})

	recipient := newTestClient("r1", "anita")
	origin := newTestClient("origin", "bram")
	m.Register(recipient)
	m.Register(origin)

	msg := &entity.Message{ID: "m1", ConversationKey: "anita_bram", SenderID: "bram", RecipientID: "anita", Content: "hi"}
	d.DeliverMessage(context.Background(), msg, "origin", "tmp-1")

	// Block raced the send: the persisted message stays undelivered live,
	// but the sender's own sessions are still reconciled.
	assert.Empty(t, drainFrames(t, recipient))
	assert.Equal(t, []string{FrameMessageAck}, frameTypes(drainFrames(t, origin)))
}

func TestPublishPresenceReachesOnlyWatchers(t *testing.T) {
	m := NewManager(0)
	d := NewDispatcher(m, nil)

	watcher := newTestClient("w1", "bram")
	bystander := newTestClient("b1", "citra")
	m.Register(watcher)
	m.Register(bystander)
	m.Subscribe("bram", "anita")

	d.PublishPresence("anita", true, time.Now())

	assert.Equal(t, []string{FrameUserOnline}, frameTypes(drainFrames(t, watcher)))
	assert.Empty(t, drainFrames(t, bystander))
}

func TestPublishReadReceiptTargetsPeer(t *testing.T) {
	m := NewManager(0)
	d := NewDispatcher(m, nil)

	peer := newTestClient("p1", "bram")
	reader := newTestClient("r1", "anita")
	m.Register(peer)
	m.Register(reader)

	d.PublishReadReceipt("anita_bram", "anita", "bram", "m7")

	frames := drainFrames(t, peer)
	require.Len(t, frames, 1)
	assert.Equal(t, FrameMessageRead, frames[0].Type)
	assert.Empty(t, drainFrames(t, reader))
}

type erroringBlockChecker struct{}

func (erroringBlockChecker) IsBlockedEitherWay(ctx context.Context, a, b string) (bool, error) {
	return false, fmt.Errorf("block store unavailable")
}

func TestDeliverMessageFailsClosedOnBlockCheckError(t *testing.T) {
	m := NewManager(0)
	d := NewDispatcher(m, erroringBlockChecker{})

	recipient := newTestClient("r1", "anita")
	origin := newTestClient("origin", "bram")
	otherSession := newTestClient("other", "bram")
	for _, c := range []*Client{recipient, origin, otherSession} {
		m.Register(c)
	}

	msg := &entity.Message{ID: "m1", ConversationKey: "anita_bram", SenderID: "bram", RecipientID: "anita", Content: "hi"}
	d.DeliverMessage(context.Background(), msg, "origin", "tmp-1")

	// An unverifiable block gate withholds live delivery; the durable copy
	// surfaces on the recipient's next fetch. The sender's sessions still
	// reconcile.
	assert.Empty(t, drainFrames(t, recipient))
	assert.Equal(t, []string{FrameMessageAck}, frameTypes(drainFrames(t, origin)))
	assert.Equal(t, []string{FrameMessageSent}, frameTypes(drainFrames(t, otherSession)))
}
