package entity

import "time"

type User struct {
	ID          string    `json:"id" firestore:"id"`
	Email       string    `json:"email" firestore:"email"`
	Username    string    `json:"username" firestore:"username"`
	Phone       string    `json:"phone,omitempty" firestore:"phone,omitempty"`
	Role        string    `json:"role" firestore:"role"` // "tenant", "owner", "admin"
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updated_at" firestore:"updatedAt"`
	LastLoginAt time.Time `json:"last_login_at,omitempty" firestore:"lastLoginAt,omitempty"`
}
