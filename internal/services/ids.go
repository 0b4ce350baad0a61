package services

import "github.com/google/uuid"

func newTurnID() string {
	return uuid.New().String()
}
