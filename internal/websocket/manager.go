package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Manager manages all WebSocket connections watching auctions.
type Manager struct {
	// Map of auctionID -> set of connections watching that auction
	subscribers sync.Map // map[string]*sync.Map of *Client -> bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
}

// Client represents a WebSocket client connection
type Client struct {
	ID        string
	AuctionID string
	Conn      *websocket.Conn
	Send      chan []byte
}

// BroadcastMessage represents a message for all clients watching an auction
type BroadcastMessage struct {
	AuctionID string
	Payload   []byte
}

// NewManager creates a new WebSocket manager
func NewManager() *Manager {
	return &Manager{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256), // buffered for bid bursts
	}
}

// Run starts the manager's main loop. Run in a goroutine.
func (m *Manager) Run() {
	for {
		select {
		case client := <-m.register:
			m.registerClient(client)

		case client := <-m.unregister:
			m.unregisterClient(client)

		case message := <-m.broadcast:
			m.broadcastToAuction(message.AuctionID, message.Payload)
		}
	}
}

// RegisterClient adds a client to the manager
func (m *Manager) RegisterClient(client *Client) {
	m.register <- client
}

// UnregisterClient removes a client from the manager
func (m *Manager) UnregisterClient(client *Client) {
	m.unregister <- client
}

// Broadcast sends a message to all clients watching an auction
func (m *Manager) Broadcast(auctionID string, payload []byte) {
	m.broadcast <- &BroadcastMessage{
		AuctionID: auctionID,
		Payload:   payload,
	}
}

func (m *Manager) registerClient(client *Client) {
	subscribers, _ := m.subscribers.LoadOrStore(client.AuctionID, &sync.Map{})
	subscriberMap := subscribers.(*sync.Map)
	subscriberMap.Store(client, true)

	fmt.Printf("Client %s subscribed to auction %s\n", client.ID, client.AuctionID)

	go client.writePump()
}

// unregisterClient runs in the Run goroutine. Idempotent: a client can
// reach here twice (evicted during a broadcast, then again from its
// readPump teardown), and Send must only be closed once.
func (m *Manager) unregisterClient(client *Client) {
	subscribers, ok := m.subscribers.Load(client.AuctionID)
	if !ok {
		return
	}
	subscriberMap := subscribers.(*sync.Map)
	if _, present := subscriberMap.LoadAndDelete(client); !present {
		return
	}

	close(client.Send)
	client.Conn.Close()

	fmt.Printf("Client %s unsubscribed from auction %s\n", client.ID, client.AuctionID)
}

func (m *Manager) broadcastToAuction(auctionID string, payload []byte) {
	if subscribers, ok := m.subscribers.Load(auctionID); ok {
		subscriberMap := subscribers.(*sync.Map)

		count := 0
		subscriberMap.Range(func(key, value interface{}) bool {
			client := key.(*Client)
			select {
			case client.Send <- payload:
				count++
			default:
				// Slow client; disconnect so it cannot block others.
				// Already inside the Run goroutine, so the removal must
				// happen directly: sending on m.unregister here would
				// block forever waiting on this same loop.
				m.unregisterClient(client)
			}
			return true
		})

		fmt.Printf("Broadcasted to %d clients watching auction %s\n", count, auctionID)
	}
}

// GetSubscriberCount returns the number of clients watching an auction
func (m *Manager) GetSubscriberCount(auctionID string) int {
	if subscribers, ok := m.subscribers.Load(auctionID); ok {
		subscriberMap := subscribers.(*sync.Map)
		count := 0
		subscriberMap.Range(func(_, _ interface{}) bool {
			count++
			return true
		})
		return count
	}
	return 0
}

// writePump pumps messages from the Send channel to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Channel closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			// Keep-alive ping
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client messages and triggers cleanup on disconnect.
func (c *Client) readPump(unregister chan *Client) {
	defer func() {
		unregister <- c
	}()

	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fmt.Printf("WebSocket error: %v\n", err)
			}
			break
		}

		var msg map[string]interface{}
		if err := json.Unmarshal(message, &msg); err == nil {
			fmt.Printf("Client %s sent: %v\n", c.ID, msg)
		}
	}
}

// StartReadPump starts the read pump for this client
func (c *Client) StartReadPump(unregister chan *Client) {
	go c.readPump(unregister)
}
