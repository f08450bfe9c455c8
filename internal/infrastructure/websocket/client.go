package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sewahome/pkg/logger"
)

// Pump tuning. The pong deadline doubles as the liveness timeout for stale
// handles that never sent a transport-level close.
const (
	writeWait      = 10 * time.Second
	pongWait       = 20 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

// Client represents one live WebSocket connection for a user. A user may
// hold several clients at once (one per open session).
type Client struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	mu     sync.Mutex
	closed bool
}

type enqueueResult int

const (
	enqueueOK enqueueResult = iota
	enqueueClosed
	enqueueFull
)

// enqueue places a payload on the send queue. Enqueue and shutdown serialize
// on the client mutex, so a fan-out racing a disconnect can never send on a
// closed channel.
func (c *Client) enqueue(payload []byte) enqueueResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return enqueueClosed
	}
	select {
	case c.Send <- payload:
		return enqueueOK
	default:
		return enqueueFull
	}
}

// shutdown closes the send queue exactly once. WritePump drains what is left
// and then writes the transport close frame.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// ReadPump reads frames from the connection and hands them to the manager.
// It owns the read deadline: a peer that stops answering pings is treated as
// gone and unregistered.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		m.touch(c.UserID)
		return nil
	})

	for {
		_, payload, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error for user %s: %v", c.UserID, err)
			}
			break
		}

		m.HandleClientMessage(c, payload)
	}
}

// WritePump drains the send channel onto the connection and keeps the
// heartbeat going.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Warn("WebSocket write error for user %s: %v", c.UserID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
