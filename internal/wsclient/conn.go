package wsclient

import (
	"context"
	"time"

	"github.com/kingoftheravens/fliwr.io/internal/log"
	"github.com/kingoftheravens/fliwr.io/internal/protocol"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Conn follows a room over a persistent connection with automatic
// reconnect. Every reconnect rejoins the room and emits a fresh history frame.
type Conn struct {
	serverURL string
	room      string
	name      string

	events chan protocol.ServerMessage
}

// NewConn creates a persistent connection. Call Run to start it.
func NewConn(serverURL, room, name string) *Conn {
	return &Conn{
		serverURL: serverURL,
		room:      room,
		name:      name,
		events:    make(chan protocol.ServerMessage, 64),
	}
}

// Events returns the channel of server frames. It is closed when Run returns.
func (c *Conn) Events() <-chan protocol.ServerMessage {
	return c.events
}

// Run connects and reconnects with exponential backoff until ctx is done.
func (c *Conn) Run(ctx context.Context) {
	defer close(c.events)
	l := log.L()
	backoff := initialBackoff

	for {
		connected, err := c.connect(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			l.Warn().Err(err).Str(log.FieldRoom, c.room).Msg("websocket connection error")
		}
		if connected {
			backoff = initialBackoff
		}

		l.Info().Dur("backoff", backoff).Msg("reconnecting")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (c *Conn) connect(ctx context.Context) (bool, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	s, err := Join(dialCtx, c.serverURL, c.room, c.Name())
	cancel()
	if err != nil {
		return false, err
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-stop:
		}
	}()
	defer s.Close()

	l := log.L()
	l.Info().Str(log.FieldRoom, c.room).Str(log.FieldUsername, c.Name()).Msg("joined room")

	c.emit(ctx, protocol.ServerMessage{Type: protocol.TypeHistory, Events: s.History})
	c.emit(ctx, protocol.ServerMessage{Type: protocol.TypeUsers, Users: s.Users})
	for {
		msg, err := s.Read()
		if err != nil {
			return true, err
		}
		c.emit(ctx, msg)
	}
}

// emit hands msg to the consumer, dropping it if the consumer has fallen
// behind.
func (c *Conn) emit(ctx context.Context, msg protocol.ServerMessage) {
	select {
	case c.events <- msg:
	case <-ctx.Done():
	default:
		l := log.L()
		l.Warn().Str("type", msg.Type).Msg("event channel full, dropping frame")
	}
}

// Name returns the display name used when joining.
func (c *Conn) Name() string {
	return c.name
}
