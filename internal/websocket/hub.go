package websocket

import (
	"github.com/isdelr/replydesk/internal/metrics"
	"github.com/isdelr/replydesk/internal/models"
	"github.com/rs/zerolog/log"
)

// userMessage goes to every connection of userID, or only to client when set.
type userMessage struct {
	userID  string
	client  *Client
	payload []byte
}

// Hub maintains the set of active clients and fans chat turns out to every
// connection of the user they belong to. All maps are owned by Run.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Messages addressed to one user.
	direct chan userMessage

	// A map of user IDs to the set of their open connections.
	subscriptions map[string]map[*Client]bool

	stop chan struct{}
	done chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		direct:        make(chan userMessage, 64),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			h.addSubscription(client)
			metrics.IncrementLive()
			log.Info().Str("user_id", client.UserID).Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.Unregister:
			if h.drop(client) {
				log.Info().Str("user_id", client.UserID).Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case msg := <-h.direct:
			for client := range h.subscriptions[msg.userID] {
				if msg.client != nil && msg.client != client {
					continue
				}
				select {
				case client.Send <- msg.payload:
				default:
					log.Warn().Str("user_id", client.UserID).Msg("Client send buffer full, dropping connection")
					h.drop(client)
				}
			}
		case <-h.stop:
			for client := range h.clients {
				h.drop(client)
			}
			return
		}
	}
}

// Stop shuts down the loop and closes every client's send channel.
func (h *Hub) Stop() {
	select {
	case <-h.stop:
	default:
		close(h.stop)
	}
	<-h.done
}

// Join registers a client unless the hub has stopped.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.stop:
		return false
	}
}

// Leave unregisters a client. It is a no-op once the hub has stopped.
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.stop:
	}
}

// SendTo queues a raw message for every connection of userID. It is dropped
// when the hub is stopped or its queue is full.
func (h *Hub) SendTo(userID string, payload []byte) {
	h.enqueue(userMessage{userID: userID, payload: payload})
}

// Reply queues a raw message for a single connection.
func (h *Hub) Reply(client *Client, payload []byte) {
	h.enqueue(userMessage{userID: client.UserID, client: client, payload: payload})
}

func (h *Hub) enqueue(msg userMessage) {
	select {
	case <-h.stop:
		return
	default:
	}
	select {
	case h.direct <- msg:
	default:
		log.Warn().Str("user_id", msg.userID).Msg("Hub queue full, dropping message")
	}
}

// NotifyUser pushes a recorded chat turn to the user's open connections.
func (h *Hub) NotifyUser(userID string, turn models.ChatTurn) {
	h.SendTo(userID, NewChatTurnMessage(turn))
}

func (h *Hub) drop(client *Client) bool {
	if _, ok := h.clients[client]; !ok {
		return false
	}
	delete(h.clients, client)
	close(client.Send)
	h.removeSubscription(client)
	metrics.DecrementLive()
	return true
}

func (h *Hub) addSubscription(client *Client) {
	if h.subscriptions[client.UserID] == nil {
		h.subscriptions[client.UserID] = make(map[*Client]bool)
	}
	h.subscriptions[client.UserID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	if subs, ok := h.subscriptions[client.UserID]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.subscriptions, client.UserID)
		}
	}
}
