package entity

import "time"

// Conversation is a derived summary of a two-party thread. The key is
// deterministic (sorted participants plus optional listing suffix), so the
// thread exists the moment two participants do; this document is only the
// materialized view used by the conversation list.
type Conversation struct {
	Key           string         `json:"key" firestore:"key"`
	Participants  []string       `json:"participants" firestore:"participants"`
	ListingID     string         `json:"listing_id,omitempty" firestore:"listingId,omitempty"`
	CreatedAt     time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time      `json:"updated_at" firestore:"updatedAt"`
	LastMessage   string         `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt time.Time      `json:"last_message_at" firestore:"lastMessageAt"`
	LastSenderID  string         `json:"last_sender_id,omitempty" firestore:"lastSenderId,omitempty"`
	UnreadCount   map[string]int `json:"unread_count" firestore:"unreadCount"`
}

// PeerOf returns the other participant, or "" when userID is not a participant.
func (c *Conversation) PeerOf(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}
