package ws

import (
	"encoding/json"
	"sync"
	"time"

	"groupchat/backend/pkg/logger"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10
)

// Client is one connected session. A reconnecting client is a brand-new
// session with a fresh id; no state survives a disconnect server-side.
type Client struct {
	ID      string
	conn    *websocket.Conn
	send    chan []byte
	hub     *Hub
	limiter *rate.Limiter
	log     *logger.Logger

	// mu guards closed. The hub closes the send channel exactly once via
	// closeSend; enqueue checks the flag so a frame arriving after eviction
	// is dropped rather than sent on a closed channel.
	mu     sync.Mutex
	closed bool
}

// closeSend shuts the client's outbound channel. Only the hub calls this,
// when it removes the client from the active set.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump reads frames off the connection and hands them to the hub loop.
// It owns the read side: deadlines, size limit, pong handling.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		c.log.Debug("read pump ended")
	}()

	c.conn.SetReadLimit(c.hub.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("unexpected close", "error", err.Error())
			}
			break
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.log.Warn("dropping unparseable frame", "error", err.Error())
			continue
		}

		c.hub.frames <- inboundFrame{client: c, frame: frame}
	}
}

// WritePump writes queued frames and keeps the connection alive with pings.
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
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Drain any queued frames as separate websocket messages.
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue marshals a frame onto the send channel, dropping it if the client
// is too far behind.
func (c *Client) enqueue(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Error("failed to marshal frame", "error", err.Error())
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.log.Debug("dropping frame for closed session")
		return
	}
	select {
	case c.send <- data:
	default:
		c.log.Warn("send buffer full, dropping frame")
	}
}

func (c *Client) sendEvent(event string, data any) {
	c.enqueue(outFrame{Event: event, Data: data})
}

func (c *Client) sendAck(ackID uint64, errMsg string, data any) {
	frame := ackFrame{Event: EventAck, AckID: ackID}
	if errMsg != "" {
		frame.Error = &errMsg
	}
	frame.Data = data
	c.enqueue(frame)
}
