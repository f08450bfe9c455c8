package entity

import "time"

// BlockRelation is directional: Blocker blocked Blocked. The messaging gate
// checks both directions.
type BlockRelation struct {
	BlockerID string    `json:"blocker_id" firestore:"blockerId"`
	BlockedID string    `json:"blocked_id" firestore:"blockedId"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
