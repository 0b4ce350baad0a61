package handlers

import (
	"net/http"

	"github.com/isdelr/replydesk/internal/models"
	"github.com/isdelr/replydesk/internal/services"
)

// BusinessHandler handles business profile requests.
type BusinessHandler struct {
	service services.BusinessServiceProvider
}

// NewBusinessHandler creates a new BusinessHandler.
func NewBusinessHandler(service services.BusinessServiceProvider) *BusinessHandler {
	return &BusinessHandler{service: service}
}

// TrainPayload defines the structure for train-business requests. UserID is
// optional and must match the token when present.
type TrainPayload struct {
	UserID       string `json:"user_id"`
	BusinessText string `json:"business_text" validate:"required,max=100000"`
}

// TrainResponse is returned after a profile is stored.
type TrainResponse struct {
	Status   string          `json:"status"`
	Business models.Business `json:"business"`
}

// Train creates or replaces the caller's business profile.
func (h *BusinessHandler) Train(w http.ResponseWriter, r *http.Request) {
	var payload TrainPayload
	if !decode(w, r, &payload) {
		return
	}
	userID, ok := subject(w, r, payload.UserID)
	if !ok {
		return
	}

	business, err := h.service.Train(r.Context(), userID, payload.BusinessText)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TrainResponse{Status: "trained", Business: business})
}

// Get returns the caller's business profile.
func (h *BusinessHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := subject(w, r, "")
	if !ok {
		return
	}

	business, err := h.service.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, business)
}
