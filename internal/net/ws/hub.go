package ws

import (
	"encoding/json"
	"sync"

	"thetowers/server/internal/match"
	"thetowers/server/internal/telemetry"
)

// ProtocolVersion tracks the observer feed revision expected by clients.
const ProtocolVersion = 1

const (
	typeMessage   = "message"
	typeHeartbeat = "heartbeat"
)

type messageFrame struct {
	Ver     int    `json:"ver"`
	Type    string `json:"type"`
	Private bool   `json:"private,omitempty"`
	match.Message
}

// Hub fans match messages out to connected observers. It implements
// match.Broadcaster; sends never block the caller.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	logger  telemetry.Logger
	sendBuf int
}

func NewHub(logger telemetry.Logger) *Hub {
	if logger == nil {
		logger = telemetry.LoggerFunc(nil)
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
		sendBuf: 64,
	}
}

// Broadcast delivers msg to every observer.
func (h *Hub) Broadcast(msg match.Message) {
	data, err := json.Marshal(messageFrame{Ver: ProtocolVersion, Type: typeMessage, Message: msg})
	if err != nil {
		h.logger.Printf("[ws] failed to marshal broadcast: %v", err)
		return
	}
	for _, c := range h.snapshot() {
		h.deliver(c, data)
	}
}

// Notify delivers msg only to observers subscribed as combatantID.
func (h *Hub) Notify(combatantID string, msg match.Message) {
	data, err := json.Marshal(messageFrame{Ver: ProtocolVersion, Type: typeMessage, Private: true, Message: msg})
	if err != nil {
		h.logger.Printf("[ws] failed to marshal notification for %s: %v", combatantID, err)
		return
	}
	for _, c := range h.snapshot() {
		if c.id == combatantID {
			h.deliver(c, data)
		}
	}
}

// Count returns the number of connected observers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every observer.
func (h *Hub) Close() {
	for _, c := range h.snapshot() {
		h.remove(c)
	}
}

func (h *Hub) snapshot() []*client {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

func (h *Hub) deliver(c *client, data []byte) {
	if !c.enqueue(data) {
		h.logger.Printf("[ws] dropping slow observer %s", c.label())
		h.remove(c)
	}
}
