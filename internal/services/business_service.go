package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/isdelr/replydesk/internal/models"
	"github.com/isdelr/replydesk/internal/store"
)

// BusinessServiceProvider defines the interface for business profile services.
type BusinessServiceProvider interface {
	Train(ctx context.Context, userID, businessText string) (models.Business, error)
	Get(ctx context.Context, userID string) (models.Business, error)
}

// BusinessService stores the description replies are drafted from.
type BusinessService struct {
	store store.Store
}

// NewBusinessService creates a new BusinessService.
func NewBusinessService(st store.Store) *BusinessService {
	return &BusinessService{store: st}
}

// Train creates or replaces the user's business profile.
func (s *BusinessService) Train(ctx context.Context, userID, businessText string) (models.Business, error) {
	if strings.TrimSpace(businessText) == "" {
		return models.Business{}, fmt.Errorf("%w: business text is required", ErrInvalidInput)
	}

	if err := s.store.UpsertBusiness(ctx, models.Business{UserID: userID, BusinessText: businessText}); err != nil {
		return models.Business{}, err
	}
	return s.store.FindBusinessByUser(ctx, userID)
}

// Get returns the user's business profile or store.ErrNotFound.
func (s *BusinessService) Get(ctx context.Context, userID string) (models.Business, error) {
	return s.store.FindBusinessByUser(ctx, userID)
}
