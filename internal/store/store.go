// Package store is the persistence boundary for users, business profiles and
// chat history. Services depend on the Store interface; SQLite is the only
// implementation.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/isdelr/replydesk/internal/models"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Store is the set of persistence operations the services consume.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	FindUserByID(ctx context.Context, id string) (models.User, error)
	// InsertUser fails with ErrDuplicateEmail, without writing anything, when
	// the email is already taken in any letter case.
	InsertUser(ctx context.Context, user models.User) error

	FindBusinessByUser(ctx context.Context, userID string) (models.Business, error)
	// UpsertBusiness creates or replaces the profile keyed by UserID atomically.
	UpsertBusiness(ctx context.Context, business models.Business) error

	RecordChatTurn(ctx context.Context, turn models.ChatTurn) error
	// RecordExchange appends several turns in one transaction: all or none.
	RecordExchange(ctx context.Context, turns ...models.ChatTurn) error
	// ListChatTurns returns up to limit turns for a user, newest first.
	ListChatTurns(ctx context.Context, userID string, limit int) ([]models.ChatTurn, error)

	Ping(ctx context.Context) error
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
