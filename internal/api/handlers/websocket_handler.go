package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/isdelr/replydesk/internal/services"
	ws "github.com/isdelr/replydesk/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades authenticated requests to a live chat channel.
type WebSocketHandler struct {
	hub         *ws.Hub
	chatService services.ChatServiceProvider
	upgrader    websocket.Upgrader
	timeout     time.Duration
}

// NewWebSocketHandler creates a new WebSocketHandler. allowedOrigins follows
// the CORS setting; "*" accepts any origin.
func NewWebSocketHandler(hub *ws.Hub, chatService services.ChatServiceProvider, allowedOrigins []string, timeout time.Duration) *WebSocketHandler {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &WebSocketHandler{
		hub:         hub,
		chatService: chatService,
		timeout:     timeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// Serve handles the WebSocket connection request.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID, ok := subject(w, r, "")
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, userID)
	if !h.hub.Join(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go func() {
		client.ReadPump(h.handleIncomingWSMessage)
		// Unregistering closes Send, which ends WritePump.
		h.hub.Leave(client)
	}()
}

// handleIncomingWSMessage processes messages received from a websocket client.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Warn().Err(err).Str("user_id", client.UserID).Msg("Error decoding websocket message")
		h.hub.Reply(client, ws.NewErrorMessage("invalid message"))
		return
	}

	switch msg.Action {
	case ws.ActionChat:
		var req ws.ChatRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil || strings.TrimSpace(req.Message) == "" {
			h.hub.Reply(client, ws.NewErrorMessage("chat payload requires a message"))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		// Both turns reach the client through the hub's notifier.
		if _, err := h.chatService.Reply(ctx, client.UserID, req.Message, req.Context); err != nil {
			log.Error().Err(err).Str("user_id", client.UserID).Msg("Websocket chat failed")
			h.hub.Reply(client, ws.NewErrorMessage("failed to generate reply"))
		}

	default:
		log.Warn().Str("action", msg.Action).Msg("Unknown websocket action received")
		h.hub.Reply(client, ws.NewErrorMessage("Unknown action: "+msg.Action))
	}
}
