package ws

import (
	"encoding/json"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	"thetowers/server/internal/telemetry"
)

type clientMessage struct {
	Ver    int    `json:"ver,omitempty"`
	Type   string `json:"type"`
	SentAt int64  `json:"sentAt"`
}

type heartbeatMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

type HandlerConfig struct {
	Logger telemetry.Logger
}

// Handler upgrades observer connections and attaches them to the hub. The
// optional id query parameter subscribes the observer to a combatant's
// private notifications.
type Handler struct {
	hub      *Hub
	logger   telemetry.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = hub.logger
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		hub:      hub,
		logger:   logger,
		upgrader: upgrader,
	}
}

func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	id := r.URL.Query().Get("id")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("[ws] upgrade failed for %q: %v", id, err)
		return
	}

	c := newClient(id, conn, h.hub.sendBuf)
	h.hub.add(c)
	go c.writePump()
	defer h.hub.remove(c)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Printf("[ws] discarding malformed message from %s: %v", c.label(), err)
			continue
		}

		switch msg.Type {
		case typeHeartbeat:
			now := time.Now()
			ack := heartbeatMessage{
				Ver:        ProtocolVersion,
				Type:       typeHeartbeat,
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
			}
			if msg.SentAt > 0 {
				ack.RTTMillis = max(now.UnixMilli()-msg.SentAt, 0)
			}
			data, err := json.Marshal(ack)
			if err != nil {
				h.logger.Printf("[ws] failed to marshal heartbeat ack for %s: %v", c.label(), err)
				continue
			}
			if !c.enqueue(data) {
				return
			}
		default:
			h.logger.Printf("[ws] unknown message type %q from %s", msg.Type, c.label())
		}
	}
}
