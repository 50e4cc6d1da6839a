package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Client wraps one connection. gorilla connections allow a single concurrent writer,
// so every write goes through mu.
type Client struct {
	conn     *websocket.Conn
	mu       sync.Mutex
	playerID string
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn}
}

// Send writes a JSON message with a write deadline.
func (c *Client) Send(message ServerMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(message)
}

func (c *Client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// keepAlive pings until done is closed or a ping fails.
func (c *Client) keepAlive(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}
