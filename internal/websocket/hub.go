package websocket

import (
	"fmt"
	"log/slog"
	"sync"
)

// Message tells subscribers that something in their topic changed. Clients
// reload instead of patching state from the message.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     string         `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// TypeSubscribed is the first message on every connection.
const TypeSubscribed = "subscribed"

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action, id string, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub maintains the active clients grouped by topic.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Client]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		topics: make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

// Register adds a client to its topic.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.topics[c.topic]
	if !ok {
		clients = make(map[*Client]struct{})
		h.topics[c.topic] = clients
	}
	clients[c] = struct{}{}
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.topics[c.topic]
	if !ok {
		return
	}
	if _, ok := clients[c]; ok {
		delete(clients, c)
		close(c.send)
	}
	if len(clients) == 0 {
		delete(h.topics, c.topic)
	}
}

// Publish queues msg for every client subscribed to topic. Clients whose
// buffer is full miss it.
func (h *Hub) Publish(topic string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.topics[topic] {
		select {
		case c.send <- msg:
		default:
			h.logger.Debug("dropping message for slow client", "topic", topic, "type", msg.Type)
		}
	}
}

// ClientCount returns the number of clients subscribed to topic, or to any
// topic when topic is empty.
func (h *Hub) ClientCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if topic != "" {
		return len(h.topics[topic])
	}
	n := 0
	for _, clients := range h.topics {
		n += len(clients)
	}
	return n
}
