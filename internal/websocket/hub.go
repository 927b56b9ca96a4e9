package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/snake-arena/internal/domain"
)

// Message types
const (
	MessageTypeScoreSubmitted = "score_submitted"
	MessageTypeSubscribe      = "subscribe"
	MessageTypeUnsubscribe    = "unsubscribe"
	MessageTypePing           = "ping"
	MessageTypePong           = "pong"
	MessageTypeError          = "error"
)

// Message is the envelope for every frame sent to clients.
type Message struct {
	Type      string      `json:"type"`
	Mode      string      `json:"mode,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub fans accepted score submissions out to connected spectators.
// Clients may subscribe to a single game mode to only receive that
// mode's submissions; unsubscribed clients receive everything.
type Hub struct {
	// Clients subscribed per game mode
	byMode map[string]map[*Client]bool

	// All connected clients
	clients map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	broadcast   chan *Message
	subscribe   chan *subscription
	unsubscribe chan *subscription

	mu     sync.RWMutex
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

type subscription struct {
	client *Client
	mode   string
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		byMode:      make(map[string]map[*Client]bool),
		clients:     make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 256),
		subscribe:   make(chan *subscription, 64),
		unsubscribe: make(chan *subscription, 64),
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.logger.Info("websocket hub started")
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("websocket hub stopping")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				for mode, subscribers := range h.byMode {
					delete(subscribers, client)
					if len(subscribers) == 0 {
						delete(h.byMode, mode)
					}
				}
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", "client_id", client.id)

		case sub := <-h.subscribe:
			h.mu.Lock()
			if _, ok := h.byMode[sub.mode]; !ok {
				h.byMode[sub.mode] = make(map[*Client]bool)
			}
			h.byMode[sub.mode][sub.client] = true
			h.mu.Unlock()
			h.logger.Debug("client subscribed", "client_id", sub.client.id, "mode", sub.mode)

		case sub := <-h.unsubscribe:
			h.mu.Lock()
			if subscribers, ok := h.byMode[sub.mode]; ok {
				delete(subscribers, sub.client)
				if len(subscribers) == 0 {
					delete(h.byMode, sub.mode)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("client unsubscribed", "client_id", sub.client.id, "mode", sub.mode)

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// Stop stops the hub
func (h *Hub) Stop() {
	h.cancel()
}

// deliver sends a message to every client that should see it: the
// mode's subscribers plus all clients with no subscription at all.
func (h *Hub) deliver(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}

	subscribed := make(map[*Client]bool)
	for _, subscribers := range h.byMode {
		for client := range subscribers {
			subscribed[client] = true
		}
	}

	for client := range h.clients {
		wants := !subscribed[client]
		if !wants && message.Mode != "" {
			wants = h.byMode[message.Mode][client]
		}
		if !wants {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Client's buffer is full, skip
			h.logger.Warn("client buffer full, skipping", "client_id", client.id)
		}
	}
}

// BroadcastScore pushes an accepted submission to spectators.
func (h *Hub) BroadcastScore(entry domain.LeaderboardEntry) {
	message := &Message{
		Type:      MessageTypeScoreSubmitted,
		Mode:      string(entry.Mode),
		Data:      entry,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe restricts a client to one game mode's submissions
func (h *Hub) Subscribe(client *Client, mode string) {
	h.subscribe <- &subscription{client: client, mode: mode}
}

// Unsubscribe removes a client's mode restriction
func (h *Hub) Unsubscribe(client *Client, mode string) {
	h.unsubscribe <- &subscription{client: client, mode: mode}
}

// TotalConnections returns the number of connected clients
func (h *Hub) TotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
