// Package sewachat provides a client for the sewahome messaging service: a
// live WebSocket session with reconnect handling plus REST fallbacks for
// sending and history.
package sewachat

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
	dialTimeout    = 10 * time.Second
)

// Session is a live conversation session for one authenticated user. Create
// one with NewSession, set the callbacks you care about, then call Start.
// Sends issued while the socket is down are queued and flushed in order once
// the session reconnects.
type Session struct {
	baseURL string
	token   string
	httpc   *http.Client

	// Callbacks fire from the session's read goroutine. Set them before
	// calling Start.
	OnConnect     func()
	OnMessage     func(Message)
	OnTyping      func(TypingEvent)
	OnPresence    func(PresenceEvent)
	OnReadReceipt func(ReadReceiptEvent)
	OnError       func(ErrorEvent)

	mu      sync.Mutex
	conn    *websocket.Conn
	pending []pendingSend
	seen    map[string]struct{}
	watched map[string]struct{}
	closed  bool
	done    chan struct{}

	writeMu   sync.Mutex
	typingSeq int64
}

type pendingSend struct {
	TempID      string `json:"temp_id"`
	RecipientID string `json:"recipient_id"`
	ListingID   string `json:"listing_id,omitempty"`
	Content     string `json:"content"`
}

type frame struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

type serverFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewSession creates a session against baseURL (e.g. "https://api.sewahome.id")
// authenticating with the given bearer token.
func NewSession(baseURL, token string) *Session {
	return &Session{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		seen:    make(map[string]struct{}),
		watched: make(map[string]struct{}),
		done:    make(chan struct{}),
	}
}

// Start begins the connect/read/reconnect loop in the background.
func (s *Session) Start() {
	go s.run()
}

// Close shuts the session down. Queued sends that never got acknowledged are
// dropped; use the REST fallback if durability matters at teardown.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	s.conn = nil
	close(s.done)
	s.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (s *Session) run() {
	backoff := initialBackoff

	for {
		if s.isClosed() {
			return
		}

		conn, err := s.dial()
		if err != nil {
			select {
			case <-s.done:
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = initialBackoff

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conn = conn
		watched := make([]string, 0, len(s.watched))
		for userID := range s.watched {
			watched = append(watched, userID)
		}
		queued := make([]pendingSend, len(s.pending))
		copy(queued, s.pending)
		s.mu.Unlock()

		if s.OnConnect != nil {
			s.OnConnect()
		}

		// Replay presence subscriptions, then flush the pending queue in
		// the order the sends were issued.
		for _, userID := range watched {
			s.writeFrame(conn, "presence_subscribe", map[string]string{"user_id": userID})
		}
		for _, p := range queued {
			s.writeFrame(conn, "send_message", p)
		}

		s.readLoop(conn)

		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.mu.Unlock()
		conn.Close()
	}
}

func (s *Session) dial() (*websocket.Conn, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = "/ws"

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.token)

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, resp, err := dialer.Dial(u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", u.String(), resp.Status, err)
		}
		return nil, err
	}
	return conn, nil
}

func (s *Session) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var f serverFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			continue
		}
		s.handleFrame(f)
	}
}

func (s *Session) handleFrame(f serverFrame) {
	switch f.Type {
	case "message_received", "message_sent":
		var payload struct {
			Message *Message `json:"message"`
		}
		if err := json.Unmarshal(f.Data, &payload); err != nil || payload.Message == nil {
			return
		}
		s.deliver(*payload.Message)

	case "message_ack":
		var payload struct {
			TempID  string   `json:"temp_id"`
			Message *Message `json:"message"`
		}
		if err := json.Unmarshal(f.Data, &payload); err != nil || payload.Message == nil {
			return
		}
		s.resolvePending(payload.TempID)
		s.deliver(*payload.Message)

	case "user_typing":
		var ev TypingEvent
		if err := json.Unmarshal(f.Data, &ev); err != nil {
			return
		}
		if s.OnTyping != nil {
			s.OnTyping(ev)
		}

	case "user_online", "user_offline":
		var ev PresenceEvent
		if err := json.Unmarshal(f.Data, &ev); err != nil {
			return
		}
		ev.Online = f.Type == "user_online"
		if s.OnPresence != nil {
			s.OnPresence(ev)
		}

	case "message_read":
		var ev ReadReceiptEvent
		if err := json.Unmarshal(f.Data, &ev); err != nil {
			return
		}
		if s.OnReadReceipt != nil {
			s.OnReadReceipt(ev)
		}

	case "error":
		var ev ErrorEvent
		if err := json.Unmarshal(f.Data, &ev); err != nil {
			return
		}
		// A rejected send never completes; drop it from the queue so the
		// session does not retry it on reconnect.
		if ev.TempID != "" {
			s.resolvePending(ev.TempID)
		}
		if s.OnError != nil {
			s.OnError(ev)
		}
	}
}

// deliver hands a message to OnMessage at most once per message id. A send
// acknowledged on this connection and echoed to another session of the same
// user arrives twice on the wire but only once here.
func (s *Session) deliver(msg Message) {
	s.mu.Lock()
	if _, dup := s.seen[msg.ID]; dup {
		s.mu.Unlock()
		return
	}
	s.seen[msg.ID] = struct{}{}
	s.mu.Unlock()

	if s.OnMessage != nil {
		s.OnMessage(msg)
	}
}

func (s *Session) resolvePending(tempID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.pending {
		if p.TempID == tempID {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// SendMessage queues a message for delivery and returns its client dedup
// token. The message is written immediately when the socket is up, otherwise
// it waits in the pending queue for the next reconnect. The token stays
// pending until the server acknowledges or rejects the send.
func (s *Session) SendMessage(recipientID, listingID, content string) string {
	p := pendingSend{
		TempID:      uuid.New().String(),
		RecipientID: recipientID,
		ListingID:   listingID,
		Content:     content,
	}

	s.mu.Lock()
	s.pending = append(s.pending, p)
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		s.writeFrame(conn, "send_message", p)
	}
	return p.TempID
}

// PendingCount reports how many sends are still awaiting acknowledgment.
func (s *Session) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// StartTyping signals that the user is composing a message to recipientID.
// Typing signals are ephemeral: when the socket is down they are dropped,
// never queued.
func (s *Session) StartTyping(recipientID, listingID string) {
	s.sendTyping("start_typing", recipientID, listingID)
}

// StopTyping clears the typing signal.
func (s *Session) StopTyping(recipientID, listingID string) {
	s.sendTyping("stop_typing", recipientID, listingID)
}

func (s *Session) sendTyping(frameType, recipientID, listingID string) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}

	payload := struct {
		RecipientID string `json:"recipient_id"`
		ListingID   string `json:"listing_id,omitempty"`
		Seq         int64  `json:"seq"`
	}{recipientID, listingID, atomic.AddInt64(&s.typingSeq, 1)}

	s.writeFrame(conn, frameType, payload)
}

// MarkRead acknowledges every message in the conversation up to and
// including uptoMessageID.
func (s *Session) MarkRead(conversationKey, uptoMessageID string) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("session not connected")
	}

	payload := struct {
		ConversationKey string `json:"conversation_key"`
		UptoMessageID   string `json:"upto_message_id"`
	}{conversationKey, uptoMessageID}

	return s.writeFrame(conn, "mark_read", payload)
}

// SubscribePresence registers interest in a user's online state. The
// subscription is replayed automatically after every reconnect.
func (s *Session) SubscribePresence(userID string) {
	s.mu.Lock()
	s.watched[userID] = struct{}{}
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		s.writeFrame(conn, "presence_subscribe", map[string]string{"user_id": userID})
	}
}

func (s *Session) writeFrame(conn *websocket.Conn, frameType string, data interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteJSON(frame{
		Type:      frameType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
