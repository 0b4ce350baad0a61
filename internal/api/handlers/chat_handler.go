package handlers

import (
	"net/http"
	"strconv"

	"github.com/isdelr/replydesk/internal/services"
)

// ChatHandler handles reply requests and chat history.
type ChatHandler struct {
	service services.ChatServiceProvider
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(service services.ChatServiceProvider) *ChatHandler {
	return &ChatHandler{service: service}
}

// ChatPayload defines the structure for chat requests.
type ChatPayload struct {
	UserID  string `json:"user_id"`
	Message string `json:"message" validate:"required,max=10000"`
	Context string `json:"context" validate:"max=10000"`
}

// ChatResponse carries the drafted reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// Chat drafts a reply for the caller's business.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var payload ChatPayload
	if !decode(w, r, &payload) {
		return
	}
	userID, ok := subject(w, r, payload.UserID)
	if !ok {
		return
	}

	turn, err := h.service.Reply(r.Context(), userID, payload.Message, payload.Context)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{Reply: turn.Reply})
}

// History lists the caller's chat turns, newest first.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := subject(w, r, "")
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	turns, err := h.service.History(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turns)
}
