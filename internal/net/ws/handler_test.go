package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"thetowers/server/internal/match"
)

func dial(t *testing.T, srv *httptest.Server, id string) *websocket.Conn {
	t.Helper()

	parsed, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("failed to parse test server url: %v", err)
	}
	parsed.Scheme = "ws"
	if id != "" {
		query := parsed.Query()
		query.Set("id", id)
		parsed.RawQuery = query.Encode()
	}

	conn, resp, err := websocket.DefaultDialer.Dial(parsed.String(), nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		if resp != nil {
			resp.Body.Close()
		}
	})
	return conn
}

func waitForObservers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() < n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d observers, got %d", n, hub.Count())
		}
		time.Sleep(time.Millisecond)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	var frame map[string]any
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("failed to decode frame: %v", err)
	}
	return frame
}

func TestBroadcastAndNotify(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, HandlerConfig{}).Handle))
	t.Cleanup(srv.Close)

	victim := dial(t, srv, "V")
	watcher := dial(t, srv, "")
	waitForObservers(t, hub, 2)

	hub.Notify("V", match.Message{Kind: match.MessageCountdown, Text: "Respawning in: 5s", Seconds: 5})
	hub.Broadcast(match.Message{Kind: match.MessageDeath, Text: "☠ » V died"})

	frame := readFrame(t, victim)
	if frame["kind"] != string(match.MessageCountdown) || frame["private"] != true || frame["seconds"] != float64(5) {
		t.Fatalf("expected private countdown first, got %v", frame)
	}
	frame = readFrame(t, victim)
	if frame["kind"] != string(match.MessageDeath) {
		t.Fatalf("expected death broadcast, got %v", frame)
	}

	frame = readFrame(t, watcher)
	if frame["type"] != typeMessage || frame["text"] != "☠ » V died" {
		t.Fatalf("expected watcher to see only the broadcast, got %v", frame)
	}
}

func TestHeartbeatAck(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, HandlerConfig{}).Handle))
	t.Cleanup(srv.Close)

	conn := dial(t, srv, "V")
	sentAt := time.Now().UnixMilli()
	if err := conn.WriteJSON(map[string]any{"type": "heartbeat", "sentAt": sentAt}); err != nil {
		t.Fatalf("failed to send heartbeat: %v", err)
	}

	frame := readFrame(t, conn)
	if frame["type"] != typeHeartbeat || frame["clientTime"] != float64(sentAt) {
		t.Fatalf("unexpected heartbeat ack: %v", frame)
	}
}

func TestCloseDisconnectsObservers(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, HandlerConfig{}).Handle))
	t.Cleanup(srv.Close)

	conn := dial(t, srv, "V")
	waitForObservers(t, hub, 1)
	hub.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal closure, got %v", err)
	}
	if hub.Count() != 0 {
		t.Fatalf("expected no observers after close, got %d", hub.Count())
	}
}
