package websocket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type typingTransition struct {
	recipientID     string
	senderID        string
	conversationKey string
	isTyping        bool
}

type recordingTypingPublisher struct {
	mu          sync.Mutex
	transitions []typingTransition
}

func (p *recordingTypingPublisher) PublishTyping(recipientID, senderID, conversationKey string, isTyping bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transitions = append(p.transitions, typingTransition{recipientID, senderID, conversationKey, isTyping})
}

func (p *recordingTypingPublisher) snapshot() []typingTransition {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]typingTransition, len(p.transitions))
	copy(out, p.transitions)
	return out
}

type staticBlockChecker struct {
	blocked bool
}

func (c *staticBlockChecker) IsBlockedEitherWay(ctx context.Context, a, b string) (bool, error) {
	return c.blocked, nil
}

func TestTypingStartRefreshStop(t *testing.T) {
	publisher := &recordingTypingPublisher{}
	coordinator := NewTypingCoordinator(time.Minute, publisher, nil)
	defer coordinator.Shutdown()
	ctx := context.Background()

	coordinator.Signal(ctx, "anita_bram", "bram", "anita", true, 1)
	assert.True(t, coordinator.IsTyping("anita_bram", "bram"))

	// Keystroke refreshes extend the state without re-broadcasting.
	coordinator.Signal(ctx, "anita_bram", "bram", "anita", true, 2)
	coordinator.Signal(ctx, "anita_bram", "bram", "anita", true, 3)

	coordinator.Signal(ctx, "anita_bram", "bram", "anita", false, 4)
	assert.False(t, coordinator.IsTyping("anita_bram", "bram"))

	transitions := publisher.snapshot()
	require.Len(t, transitions, 2)
	assert.Equal(t, typingTransition{"anita", "bram", "anita_bram", true}, transitions[0])
	assert.Equal(t, typingTransition{"anita", "bram", "anita_bram", false}, transitions[1])
}

func TestTypingExpiresWithoutRefresh(t *testing.T) {
	publisher := &recordingTypingPublisher{}
	coordinator := NewTypingCoordinator(20*time.Millisecond, publisher, nil)
	defer coordinator.Shutdown()

	coordinator.Signal(context.Background(), "anita_bram", "bram", "anita", true, 1)

	assert.Eventually(t, func() bool {
		transitions := publisher.snapshot()
		return len(transitions) == 2 && !transitions[1].isTyping
	}, time.Second, 5*time.Millisecond)
	assert.False(t, coordinator.IsTyping("anita_bram", "bram"))
}

func TestTypingStaleSignalDropped(t *testing.T) {
	publisher := &recordingTypingPublisher{}
	coordinator := NewTypingCoordinator(time.Minute, publisher, nil)
	defer coordinator.Shutdown()
	ctx := context.Background()

	coordinator.Signal(ctx, "anita_bram", "bram", "anita", true, 1)
	coordinator.Signal(ctx, "anita_bram", "bram", "anita", false, 3)

	// A start that was delayed in flight must not resurrect TYPING.
	coordinator.Signal(ctx, "anita_bram", "bram", "anita", true, 2)
	assert.False(t, coordinator.IsTyping("anita_bram", "bram"))

	transitions := publisher.snapshot()
	require.Len(t, transitions, 2)
	assert.False(t, transitions[1].isTyping)
}

func TestTypingStopWithoutStartIsNoop(t *testing.T) {
	publisher := &recordingTypingPublisher{}
	coordinator := NewTypingCoordinator(time.Minute, publisher, nil)
	defer coordinator.Shutdown()

	coordinator.Signal(context.Background(), "anita_bram", "bram", "anita", false, 1)
	assert.Empty(t, publisher.snapshot())
}

func TestTypingBlockedPairNeverBroadcasts(t *testing.T) {
	publisher := &recordingTypingPublisher{}
	coordinator := NewTypingCoordinator(time.Minute, publisher, &staticBlockChecker{blocked: true})
	defer coordinator.Shutdown()

	coordinator.Signal(context.Background(), "anita_bram", "bram", "anita", true, 1)
	assert.False(t, coordinator.IsTyping("anita_bram", "bram"))
	assert.Empty(t, publisher.snapshot())
}

func TestTypingStatesAreIndependentPerConversation(t *testing.T) {
	publisher := &recordingTypingPublisher{}
	coordinator := NewTypingCoordinator(time.Minute, publisher, nil)
	defer coordinator.Shutdown()
	ctx := context.Background()

	coordinator.Signal(ctx, "anita_bram", "bram", "anita", true, 1)
	coordinator.Signal(ctx, "bram_citra", "bram", "citra", true, 1)

	coordinator.Signal(ctx, "anita_bram", "bram", "anita", false, 2)

	assert.False(t, coordinator.IsTyping("anita_bram", "bram"))
	assert.True(t, coordinator.IsTyping("bram_citra", "bram"))
}
