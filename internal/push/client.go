// Package push delivers server events to connected clients over WebSocket.
package push

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/anonto42/postshare/backend/internal/observability"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBufferSize = 64
)

// Event names pushed to clients.
const (
	EventMessageReceived = "messageReceived"
	EventUsersOnline     = "usersOnline"
)

var (
	ErrClosed     = errors.New("push: connection closed")
	ErrBufferFull = errors.New("push: send buffer full")
)

// Event is the wire envelope of every pushed frame.
type Event struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Client is one connected push channel. Emit never blocks.
type Client struct {
	UserID   string
	Username string

	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient wraps an upgraded connection. conn may be nil in tests, in which
// case frames only accumulate in the send buffer.
func NewClient(conn *websocket.Conn, userID, username string) *Client {
	return &Client{
		UserID:   userID,
		Username: username,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
	}
}

// Emit queues an event for delivery. Fire-and-forget: no confirmation, no retry.
func (c *Client) Emit(event string, payload any) error {
	data, err := json.Marshal(Event{Event: event, Payload: payload})
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		observability.PushDrops.WithLabelValues("closed").Inc()
		return ErrClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		observability.PushDrops.WithLabelValues("full").Inc()
		observability.Log.Warn("push buffer full, dropped event", "user_id", c.UserID, "event", event)
		return ErrBufferFull
	}
}

// Close stops the write pump and closes the socket. Safe to call repeatedly.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// Done is closed once the client is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// ReadPump consumes inbound frames until the peer goes away, then closes the
// client and calls onClose. Inbound payloads are ignored; the channel is
// server-to-client.
func (c *Client) ReadPump(onClose func()) {
	defer func() {
		c.Close()
		if onClose != nil {
			onClose()
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { _ = c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				observability.Log.Info("push read error", "user_id", c.UserID, "error", err)
			}
			return
		}
	}
}

// WritePump writes queued frames and keepalive pings until the client closes.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return

		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
