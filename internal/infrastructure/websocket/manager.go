package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"sewahome/internal/domain/entity"
	"sewahome/internal/infrastructure/ratelimit"
	"sewahome/pkg/logger"
)

// MessageService is the slice of the messaging use case the live channel
// needs. Implemented outside this package; attached by the composition root.
type MessageService interface {
	SendFromSocket(ctx context.Context, senderID, originConnID, tempID, recipientID, listingID, content string) (*entity.Message, error)
	MarkRead(ctx context.Context, readerID, conversationKey, uptoMessageID string) error
}

// BlockChecker gates typing signals and live delivery.
type BlockChecker interface {
	IsBlockedEitherWay(ctx context.Context, a, b string) (bool, error)
}

// PresencePublisher receives online/offline transitions from the registry.
type PresencePublisher interface {
	PublishPresence(userID string, online bool, lastSeen time.Time)
}

// Manager is the presence registry plus the inbound frame router. It owns the
// only mutable connection state in the process: userID -> connID -> client,
// last-seen stamps, and presence watch subscriptions. All map mutation is
// mutex-scoped; nothing here holds a lock across a network call.
type Manager struct {
	mu             sync.RWMutex
	clients        map[string]map[string]*Client
	lastSeen       map[string]time.Time
	watchers       map[string]map[string]struct{} // watched user -> set of watchers
	watching       map[string]map[string]struct{} // watcher -> set of watched users
	offlinePending map[string]*time.Timer

	grace    time.Duration
	service  MessageService
	typing   *TypingCoordinator
	limiter  *ratelimit.RateLimiter
	presence PresencePublisher
}

// NewManager creates a presence registry with the given offline debounce
// grace. Reconnects inside the grace window do not produce an offline/online
// flap.
func NewManager(grace time.Duration) *Manager {
	return &Manager{
		clients:        make(map[string]map[string]*Client),
		lastSeen:       make(map[string]time.Time),
		watchers:       make(map[string]map[string]struct{}),
		watching:       make(map[string]map[string]struct{}),
		offlinePending: make(map[string]*time.Timer),
		grace:          grace,
	}
}

// Attach wires the collaborators that cannot exist before the manager does.
func (m *Manager) Attach(service MessageService, typing *TypingCoordinator, limiter *ratelimit.RateLimiter, presence PresencePublisher) {
	m.service = service
	m.typing = typing
	m.limiter = limiter
	m.presence = presence
}

// Register adds a live connection for a user. The first handle for a user
// (outside the debounce window) emits a single online transition.
func (m *Manager) Register(client *Client) {
	m.mu.Lock()
	wasOnline := len(m.clients[client.UserID]) > 0
	if timer, ok := m.offlinePending[client.UserID]; ok {
		// Reconnect within the grace window: swallow the pending offline.
		timer.Stop()
		delete(m.offlinePending, client.UserID)
		wasOnline = true
	}

	conns, ok := m.clients[client.UserID]
	if !ok {
		conns = make(map[string]*Client)
		m.clients[client.UserID] = conns
	}
	conns[client.ID] = client
	m.lastSeen[client.UserID] = time.Now()
	m.mu.Unlock()

	logger.Info("WebSocket: client %s registered for user %s", client.ID, client.UserID)

	if !wasOnline && m.presence != nil {
		m.presence.PublishPresence(client.UserID, true, time.Now())
	}
}

// Unregister removes a live connection. Removing a handle that is already
// gone (duplicate close events) is a no-op. When the last handle goes, the
// offline transition fires exactly once, after the debounce grace.
func (m *Manager) Unregister(client *Client) {
	m.mu.Lock()
	conns, ok := m.clients[client.UserID]
	if !ok {
		m.mu.Unlock()
		return
	}
	if _, ok := conns[client.ID]; !ok {
		m.mu.Unlock()
		return
	}

	delete(conns, client.ID)
	client.shutdown()
	now := time.Now()
	m.lastSeen[client.UserID] = now

	if len(conns) > 0 {
		m.mu.Unlock()
		logger.Info("WebSocket: client %s unregistered for user %s", client.ID, client.UserID)
		return
	}
	delete(m.clients, client.UserID)
	m.dropSubscriptions(client.UserID)

	userID := client.UserID
	if m.grace <= 0 {
		delete(m.offlinePending, userID)
		m.mu.Unlock()
		if m.presence != nil {
			m.presence.PublishPresence(userID, false, now)
		}
		return
	}

	if timer, ok := m.offlinePending[userID]; ok {
		timer.Stop()
	}
	m.offlinePending[userID] = time.AfterFunc(m.grace, func() {
		m.mu.Lock()
		if _, ok := m.offlinePending[userID]; !ok {
			m.mu.Unlock()
			return
		}
		delete(m.offlinePending, userID)
		if len(m.clients[userID]) > 0 {
			m.mu.Unlock()
			return
		}
		last := m.lastSeen[userID]
		m.mu.Unlock()

		if m.presence != nil {
			m.presence.PublishPresence(userID, false, last)
		}
	})
	m.mu.Unlock()

	logger.Info("WebSocket: client %s unregistered for user %s (last handle)", client.ID, client.UserID)
}

func (m *Manager) IsOnline(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients[userID]) > 0
}

// HandlesFor returns a snapshot of the live connections for a user.
func (m *Manager) HandlesFor(userID string) []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conns := m.clients[userID]
	handles := make([]*Client, 0, len(conns))
	for _, c := range conns {
		handles = append(handles, c)
	}
	return handles
}

func (m *Manager) LastSeen(userID string) (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.lastSeen[userID]
	return t, ok
}

// Subscribe registers watcherID for presence transitions of targetID.
// Presence is scoped to declared correspondents, never broadcast globally.
func (m *Manager) Subscribe(watcherID, targetID string) {
	if watcherID == targetID {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.watchers[targetID]
	if !ok {
		set = make(map[string]struct{})
		m.watchers[targetID] = set
	}
	set[watcherID] = struct{}{}

	targets, ok := m.watching[watcherID]
	if !ok {
		targets = make(map[string]struct{})
		m.watching[watcherID] = targets
	}
	targets[targetID] = struct{}{}
}

// dropSubscriptions removes every subscription userID holds on other users.
// Called with the manager lock held, when the user's last handle goes; the
// session re-subscribes on reconnect, which keeps both maps bounded by the
// live population.
func (m *Manager) dropSubscriptions(userID string) {
	for targetID := range m.watching[userID] {
		if set, ok := m.watchers[targetID]; ok {
			delete(set, userID)
			if len(set) == 0 {
				delete(m.watchers, targetID)
			}
		}
	}
	delete(m.watching, userID)
}

// WatchersOf returns the users subscribed to targetID's presence.
func (m *Manager) WatchersOf(targetID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.watchers[targetID]
	watchers := make([]string, 0, len(set))
	for w := range set {
		watchers = append(watchers, w)
	}
	return watchers
}

func (m *Manager) touch(userID string) {
	m.mu.Lock()
	m.lastSeen[userID] = time.Now()
	m.mu.Unlock()
}

// SendToUser fans a payload out to every live handle of a user.
func (m *Manager) SendToUser(userID string, payload []byte) {
	for _, client := range m.HandlesFor(userID) {
		m.sendToClient(client, payload)
	}
}

// SendToUserExcept fans out to every handle of a user except one connection,
// so a multi-session user stays in sync without echoing to the origin.
func (m *Manager) SendToUserExcept(userID, exceptConnID string, payload []byte) {
	for _, client := range m.HandlesFor(userID) {
		if client.ID == exceptConnID {
			continue
		}
		m.sendToClient(client, payload)
	}
}

// SendToConn targets a single connection.
func (m *Manager) SendToConn(userID, connID string, payload []byte) {
	m.mu.RLock()
	client, ok := m.clients[userID][connID]
	m.mu.RUnlock()
	if ok {
		m.sendToClient(client, payload)
	}
}

func (m *Manager) sendToClient(client *Client, payload []byte) {
	switch client.enqueue(payload) {
	case enqueueFull:
		// Slow consumer: drop the connection rather than block the
		// dispatcher.
		logger.Warn("WebSocket: send buffer full for user %s, dropping connection %s", client.UserID, client.ID)
		m.Unregister(client)
	case enqueueClosed:
		// The handle was unregistered between the snapshot and this send.
	}
}

func (m *Manager) sendFrame(client *Client, frame Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		logger.Error("WebSocket: failed to marshal %s frame for user %s: %v", frame.Type, client.UserID, err)
		return
	}
	m.sendToClient(client, payload)
}
