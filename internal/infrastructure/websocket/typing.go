package websocket

import (
	"context"
	"sync"
	"time"

	"sewahome/pkg/logger"
)

// TypingPublisher delivers typing transitions to the other participant.
type TypingPublisher interface {
	PublishTyping(recipientID, senderID, conversationKey string, isTyping bool)
}

type typingState struct {
	recipientID string
	expiresAt   time.Time
	timer       *time.Timer
}

// TypingCoordinator is the per-(conversation, user) IDLE/TYPING state
// machine. Signals refresh an expiry timer so a client that vanishes
// mid-keystroke cannot leave the peer's UI stuck on "typing". State is
// process-local and never persisted.
type TypingCoordinator struct {
	mu      sync.Mutex
	states  map[string]*typingState
	lastSeq map[string]int64 // outlives states so a late start cannot undo a stop

	ttl     time.Duration
	publish TypingPublisher
	blocks  BlockChecker
	now     func() time.Time
}

func NewTypingCoordinator(ttl time.Duration, publish TypingPublisher, blocks BlockChecker) *TypingCoordinator {
	return &TypingCoordinator{
		states:  make(map[string]*typingState),
		lastSeq: make(map[string]int64),
		ttl:     ttl,
		publish: publish,
		blocks:  blocks,
		now:     time.Now,
	}
}

func stateKey(conversationKey, userID string) string {
	return conversationKey + "|" + userID
}

// Signal processes a start (isTyping=true) or stop signal. Stale signals,
// meaning seq at or below the last one processed for this state, are dropped
// so a late start can never resurrect TYPING after a stop. No transition
// happens in a blocked relationship.
func (t *TypingCoordinator) Signal(ctx context.Context, conversationKey, senderID, recipientID string, isTyping bool, seq int64) {
	if t.blocks != nil {
		blocked, err := t.blocks.IsBlockedEitherWay(ctx, senderID, recipientID)
		if err != nil {
			logger.Warn("Typing: block check failed for %s/%s: %v", senderID, recipientID, err)
			return
		}
		if blocked {
			return
		}
	}

	key := stateKey(conversationKey, senderID)

	t.mu.Lock()
	if seq != 0 {
		if seq <= t.lastSeq[key] {
			t.mu.Unlock()
			return
		}
		t.lastSeq[key] = seq
	}
	state, exists := t.states[key]

	if !isTyping {
		if !exists {
			t.mu.Unlock()
			return
		}
		state.timer.Stop()
		delete(t.states, key)
		t.mu.Unlock()

		t.publish.PublishTyping(recipientID, senderID, conversationKey, false)
		return
	}

	if exists {
		// Keystroke refresh: push the expiry out, no re-broadcast.
		state.expiresAt = t.now().Add(t.ttl)
		state.timer.Reset(t.ttl)
		t.mu.Unlock()
		return
	}

	state = &typingState{
		recipientID: recipientID,
		expiresAt:   t.now().Add(t.ttl),
	}
	state.timer = time.AfterFunc(t.ttl, func() {
		t.expire(conversationKey, senderID)
	})
	t.states[key] = state
	t.mu.Unlock()

	t.publish.PublishTyping(recipientID, senderID, conversationKey, true)
}

// expire is the implicit TYPING -> IDLE path when no refresh arrived in time.
func (t *TypingCoordinator) expire(conversationKey, senderID string) {
	key := stateKey(conversationKey, senderID)

	t.mu.Lock()
	state, exists := t.states[key]
	if !exists {
		t.mu.Unlock()
		return
	}
	if t.now().Before(state.expiresAt) {
		// Refreshed while the timer callback was in flight.
		t.mu.Unlock()
		return
	}
	delete(t.states, key)
	recipientID := state.recipientID
	t.mu.Unlock()

	t.publish.PublishTyping(recipientID, senderID, conversationKey, false)
}

// IsTyping reports the current state for tests and diagnostics.
func (t *TypingCoordinator) IsTyping(conversationKey, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.states[stateKey(conversationKey, userID)]
	return ok
}

// Shutdown stops all expiry timers.
func (t *TypingCoordinator) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, state := range t.states {
		state.timer.Stop()
		delete(t.states, key)
	}
	t.lastSeq = make(map[string]int64)
}
