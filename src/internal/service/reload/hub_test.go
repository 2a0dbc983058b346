package reload

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"b24serve/src/internal/domain"
)

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + domain.LiveReloadPath
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return c
}

func waitCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.Count() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Count() = %d, want %d", h.Count(), want)
}

func TestBroadcastReachesClients(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	a := dial(t, server)
	defer a.Close()
	b := dial(t, server)
	defer b.Close()
	waitCount(t, hub, 2)

	if n := hub.Broadcast("css/app.css"); n != 2 {
		t.Fatalf("Broadcast reached %d clients, want 2", n)
	}

	for _, c := range []*websocket.Conn{a, b} {
		_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg domain.ReloadMessage
		if err := c.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type != "reload" || msg.Path != "css/app.css" {
			t.Fatalf("message = %+v", msg)
		}
	}
}

func TestClosedClientIsRemoved(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	c := dial(t, server)
	waitCount(t, hub, 1)

	c.Close()
	waitCount(t, hub, 0)

	if n := hub.Broadcast("index.html"); n != 0 {
		t.Fatalf("Broadcast reached %d clients, want 0", n)
	}
}

func TestCloseDropsAllClients(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	c := dial(t, server)
	defer c.Close()
	waitCount(t, hub, 1)

	hub.Close()
	if hub.Count() != 0 {
		t.Fatalf("Count() = %d after Close", hub.Count())
	}

	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := c.ReadMessage(); err == nil {
		t.Fatal("expected read error after hub closed the connection")
	}
}
