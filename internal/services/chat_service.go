package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/replydesk/internal/models"
	"github.com/isdelr/replydesk/internal/store"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// ReplyGenerator drafts a reply; it never fails.
type ReplyGenerator interface {
	Generate(ctx context.Context, businessText, userMessage string) string
}

// TurnNotifier is told about every recorded chat turn.
type TurnNotifier interface {
	NotifyUser(userID string, turn models.ChatTurn)
}

// ChatServiceProvider defines the interface for chat services.
type ChatServiceProvider interface {
	Reply(ctx context.Context, userID, message, extraContext string) (models.ChatTurn, error)
	History(ctx context.Context, userID string, limit int) ([]models.ChatTurn, error)
}

// ChatService runs the reply pipeline: profile lookup, generation, logging.
type ChatService struct {
	store     store.Store
	generator ReplyGenerator
	notifier  TurnNotifier
	now       func() time.Time
}

// NewChatService creates a new ChatService. notifier may be nil.
func NewChatService(st store.Store, generator ReplyGenerator, notifier TurnNotifier) *ChatService {
	return &ChatService{
		store:     st,
		generator: generator,
		notifier:  notifier,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Reply drafts an answer to message using the user's business profile, logs
// both sides of the exchange and returns the assistant turn. A user without a
// profile gets a reply built from an empty description. extraContext, when
// given, is appended to the description for this call only.
func (s *ChatService) Reply(ctx context.Context, userID, message, extraContext string) (models.ChatTurn, error) {
	if strings.TrimSpace(message) == "" {
		return models.ChatTurn{}, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}

	business, err := s.store.FindBusinessByUser(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return models.ChatTurn{}, err
	}

	businessText := business.BusinessText
	if extra := strings.TrimSpace(extraContext); extra != "" {
		if businessText != "" {
			businessText += "\n\n"
		}
		businessText += extra
	}

	userTurn := models.ChatTurn{UserID: userID, Message: message, CreatedAt: s.now()}
	replyText := s.generator.Generate(ctx, businessText, message)
	assistantTurn := models.ChatTurn{
		UserID:          userID,
		Message:         message,
		Reply:           replyText,
		IsFromAssistant: true,
		CreatedAt:       s.now(),
	}

	userTurn.ID = newTurnID()
	assistantTurn.ID = newTurnID()

	// Both turns land or neither does; sockets only hear about stored turns.
	if err := s.store.RecordExchange(ctx, userTurn, assistantTurn); err != nil {
		return models.ChatTurn{}, err
	}
	if s.notifier != nil {
		s.notifier.NotifyUser(userID, userTurn)
		s.notifier.NotifyUser(userID, assistantTurn)
	}
	return assistantTurn, nil
}

// History returns the user's latest turns, newest first. Out-of-range limits
// are clamped.
func (s *ChatService) History(ctx context.Context, userID string, limit int) ([]models.ChatTurn, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.store.ListChatTurns(ctx, userID, limit)
}
