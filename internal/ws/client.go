package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ugaemi/bombarena-server/internal/peer"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16384
	sendBuffer     = 512
)

// Client is one end of a WebSocket connection. On the host it is a joined
// peer; on a joining peer it is the link to the host.
type Client struct {
	ID   int
	Conn *websocket.Conn
	Send chan []byte

	codec    Codec
	onFrame  func(c *Client, f peer.Frame)
	onClose  func(c *Client)
	overflow sync.Once
}

// NewClient creates a new Client.
func NewClient(conn *websocket.Conn, codec Codec, onFrame func(*Client, peer.Frame), onClose func(*Client)) *Client {
	return &Client{
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		codec:   codec,
		onFrame: onFrame,
		onClose: onClose,
	}
}

// ReadPump decodes frames from the connection until it fails.
func (c *Client) ReadPump() {
	defer func() {
		if c.onClose != nil {
			c.onClose(c)
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("websocket read error", "peer", c.ID, "error", err)
			}
			return
		}

		var f peer.Frame
		if err := c.codec.Unmarshal(data, &f); err != nil {
			slog.Warn("invalid frame", "peer", c.ID, "codec", c.codec.Name(), "error", err)
			continue
		}
		if c.onFrame != nil {
			c.onFrame(c, f)
		}
	}
}

// WritePump pumps queued frames to the WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			w, err := c.Conn.NextWriter(c.codec.MessageType())
			if err != nil {
				return
			}
			w.Write(data)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendFrame queues a frame for this connection. A full buffer closes the
// connection, and the peer leaves through the normal disconnect path.
func (c *Client) SendFrame(f peer.Frame) bool {
	data, err := c.codec.Marshal(f)
	if err != nil {
		slog.Error("failed to marshal frame", "method", f.Method, "error", err)
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		c.overflow.Do(func() {
			slog.Warn("client send buffer full, closing connection", "peer", c.ID, "method", f.Method)
			c.Conn.Close()
		})
		return false
	}
}
