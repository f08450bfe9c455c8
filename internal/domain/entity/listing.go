package entity

import "time"

// Listing is the rental property a conversation may be anchored to. Listing
// CRUD lives outside this service; messaging only reads title, owner and
// status for conversation embeds.
type Listing struct {
	ID        string    `json:"id" firestore:"id"`
	OwnerID   string    `json:"owner_id" firestore:"ownerId"`
	Title     string    `json:"title" firestore:"title"`
	City      string    `json:"city,omitempty" firestore:"city,omitempty"`
	Price     float64   `json:"price" firestore:"price"`
	Status    string    `json:"status" firestore:"status"` // "active", "rented", "archived"
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}
