package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/peterldowns/testy/check"
)

// dialTestConn stands up a real websocket pair and returns the
// server-side connection, which is the side the manager owns.
func dialTestConn(t *testing.T) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	conns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	t.Cleanup(srv.Close)

	peer, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("failed to dial test server: %v", err)
	}
	t.Cleanup(func() { peer.Close() })

	return <-conns
}

// subscribe places a client in the watch set without starting its
// writePump, so its Send channel fills the way a stalled client's would.
func subscribe(m *Manager, client *Client) {
	subscribers, _ := m.subscribers.LoadOrStore(client.AuctionID, &sync.Map{})
	subscribers.(*sync.Map).Store(client, true)
}

func TestBroadcast_SlowClientEvictionKeepsManagerResponsive(t *testing.T) {
	m := NewManager()
	go m.Run()

	slow := &Client{
		ID:        "slow",
		AuctionID: "a1",
		Conn:      dialTestConn(t),
		Send:      make(chan []byte), // nothing draining it
	}
	subscribe(m, slow)

	// First broadcast cannot hand the payload over and evicts the client.
	m.Broadcast("a1", []byte(`{"type":"bid_placed"}`))

	// The loop must still be serving: a registration that follows the
	// eviction has to go through.
	fast := &Client{
		ID:        "fast",
		AuctionID: "a1",
		Conn:      dialTestConn(t),
		Send:      make(chan []byte, 16),
	}
	registered := make(chan struct{})
	go func() {
		m.RegisterClient(fast)
		close(registered)
	}()
	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("registration stalled after slow-client eviction")
	}

	// Eventually only the healthy client remains subscribed.
	deadline := time.Now().Add(2 * time.Second)
	for m.GetSubscriberCount("a1") != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	check.Equal(t, 1, m.GetSubscriberCount("a1"))
}

func TestUnregisterClient_Idempotent(t *testing.T) {
	m := NewManager()
	client := &Client{
		ID:        "c1",
		AuctionID: "a1",
		Conn:      dialTestConn(t),
		Send:      make(chan []byte, 1),
	}
	subscribe(m, client)

	m.unregisterClient(client)
	// An evicted client unregisters again when its readPump tears down;
	// the second pass must not close Send a second time.
	m.unregisterClient(client)

	check.Equal(t, 0, m.GetSubscriberCount("a1"))
}
