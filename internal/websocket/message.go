package websocket

import (
	"encoding/json"

	"github.com/isdelr/replydesk/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	ActionChat     = "chat"
	ActionChatTurn = "chat_turn"
	ActionError    = "error"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ChatRequest is the payload of an inbound ActionChat message.
type ChatRequest struct {
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
}

func encode(action string, payload any) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to encode websocket payload")
		raw = nil
	}
	out, _ := json.Marshal(Message{Action: action, Payload: raw})
	return out
}

// NewChatTurnMessage wraps a chat turn for delivery to the client.
func NewChatTurnMessage(turn models.ChatTurn) []byte {
	return encode(ActionChatTurn, turn)
}

// NewErrorMessage wraps an error string for delivery to the client.
func NewErrorMessage(msg string) []byte {
	return encode(ActionError, map[string]string{"error": msg})
}
