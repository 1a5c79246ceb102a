package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/safe-eats/api/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Outbound frame buffer per connection
	sendBufferSize = 256
)

// Client represents a single WebSocket connection and its live
// subscriptions.
type Client struct {
	manager *SubscriptionManager
	conn    *websocket.Conn
	send    chan []byte

	mu        sync.Mutex
	subs      map[subKey]func() // cancel funcs, keyed by (stream, appliance)
	closed    bool
	closeOnce sync.Once
}

// NewClient creates a client for an upgraded connection
func NewClient(manager *SubscriptionManager, conn *websocket.Conn) *Client {
	return &Client{
		manager: manager,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		subs:    make(map[subKey]func()),
	}
}

func (c *Client) hasSubscription(key subKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subs[key]
	return ok
}

// addSubscription records a cancel func; returns false if the key is taken
// or the client already closed.
func (c *Client) addSubscription(key subKey, cancel func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if _, ok := c.subs[key]; ok {
		return false
	}
	c.subs[key] = cancel
	return true
}

// removeSubscription cancels one subscription. Publishes that begin after
// this returns push no frame for that key.
func (c *Client) removeSubscription(key subKey) bool {
	c.mu.Lock()
	cancel, ok := c.subs[key]
	if ok {
		delete(c.subs, key)
	}
	c.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (c *Client) cancelAll() {
	c.mu.Lock()
	cancels := make([]func(), 0, len(c.subs))
	for _, cancel := range c.subs {
		cancels = append(cancels, cancel)
	}
	c.subs = make(map[subKey]func())
	c.closed = true
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// push queues an outbound frame. Runs on the publisher's goroutine, so it
// must never block: a client whose buffer is full is dropped rather than
// allowed to stall delivery to other subscribers.
func (c *Client) push(event model.WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling WS event: %v", err)
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	select {
	case c.send <- data:
		c.mu.Unlock()
	default:
		c.mu.Unlock()
		log.Printf("⚠️  WS send buffer full, dropping connection")
		c.conn.Close()
	}
}

func (c *Client) sendError(message string) {
	c.push(model.WSEvent{
		Type:    model.WSEventError,
		Payload: model.ErrorResponse{Error: message},
	})
}

// ReadPump pumps frames from the WebSocket connection to the manager.
// Runs in a per-client goroutine; tears the client down on exit.
func (c *Client) ReadPump() {
	defer func() {
		c.manager.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var event model.WSEvent
		if err := json.Unmarshal(message, &event); err != nil {
			c.sendError("malformed frame")
			continue
		}
		c.manager.HandleFrame(c, event)
	}
}

// WritePump pumps queued frames to the WebSocket connection.
// Runs in a per-client goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Manager closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Write any queued messages to the current WebSocket frame
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte("\n"))
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
