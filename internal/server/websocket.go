package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kingoftheravens/fliwr.io/internal/config"
	"github.com/kingoftheravens/fliwr.io/internal/log"
)

var (
	// ErrConnClosed is returned by Client.Send after the socket has gone away.
	ErrConnClosed = errors.New("connection closed")
	// ErrSendQueueFull is returned when a slow client's outbound queue is full.
	ErrSendQueueFull = errors.New("send queue full")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is one WebSocket peer. It implements Transport.
type Client struct {
	id     string
	conn   *websocket.Conn
	router *Router
	cfg    config.WebSocketConfig

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Send queues a text frame for delivery. It never blocks; frames for a
// client whose queue is full are dropped.
func (c *Client) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close sends a going-away close frame and tears the socket down. The read
// pump then reports the disconnect.
func (c *Client) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.cfg.WriteWait))
	c.shutdown()
	return err
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// readPump hands every inbound frame to the router. When the socket fails it
// tells the router the connection is gone.
func (c *Client) readPump() {
	defer func() {
		c.shutdown()
		c.router.Disconnect(c.id)
	}()
	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l := log.L()
				l.Debug().Err(err).Str(log.FieldConnID, c.id).Msg("ws read error")
			}
			return
		}
		c.router.Deliver(c.id, data)
	}
}

// writePump drains the send queue to the socket and keeps it alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()
	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS upgrades an HTTP connection to WebSocket and registers the client
// with the router. The client is unjoined until it sends a join message.
func ServeWS(router *Router, cfg config.WebSocketConfig, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l := log.Ctx(r.Context())
		l.Warn().Err(err).Msg("ws upgrade failed")
		return
	}

	client := &Client{
		conn:   conn,
		router: router,
		cfg:    cfg,
		send:   make(chan []byte, cfg.SendBuffer),
		done:   make(chan struct{}),
	}
	client.id = router.Connect(client)

	go client.writePump()
	go client.readPump()
}
