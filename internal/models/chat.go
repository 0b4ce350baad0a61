package models

import "time"

// ChatTurn is one entry of a user's append-only chat log.
type ChatTurn struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Message         string    `json:"message"`
	Reply           string    `json:"reply"`
	IsFromAssistant bool      `json:"isFromAssistant"`
	CreatedAt       time.Time `json:"createdAt"`
}
