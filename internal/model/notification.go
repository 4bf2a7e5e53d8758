package model

import "time"

// Notification is a notice sent by the food authority to the admins.
type Notification struct {
	ID         uint64    `json:"id"`
	SenderID   uint64    `json:"sender_id"`
	SenderName string    `json:"sender_name,omitempty"`
	CafeID     *uint64   `json:"cafe_id,omitempty"`
	Subject    string    `json:"subject"`
	Message    string    `json:"message"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}
