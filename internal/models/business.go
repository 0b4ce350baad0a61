package models

import "time"

// Business is the free-text description a user trains the assistant with.
// There is at most one per user.
type Business struct {
	UserID       string    `json:"user_id"`
	BusinessText string    `json:"business_text"`
	UpdatedAt    time.Time `json:"updated_at"`
}
