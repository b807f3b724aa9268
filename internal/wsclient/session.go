// Package wsclient speaks the whiteboard WebSocket protocol from the client
// side. Session is a single joined connection; Conn keeps one alive across
// drops.
package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kingoftheravens/fliwr.io/internal/protocol"
)

const writeWait = 10 * time.Second

// ErrClosed is returned when writing to a closed session.
var ErrClosed = errors.New("session closed")

// Session is one WebSocket connection that has joined a room.
type Session struct {
	conn *websocket.Conn

	// History and Users are the frames the server sent in reply to the join.
	History []protocol.Event
	Users   []protocol.UserInfo

	mu     sync.Mutex
	closed bool
}

// Join dials serverURL, joins room under name and waits for the history and
// presence replies. An empty name keeps the server default.
func Join(ctx context.Context, serverURL, room, name string) (*Session, error) {
	wsURL, err := WSURL(serverURL)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}

	s := &Session{conn: conn}
	if err := s.Send(protocol.NewJoin(room, name)); err != nil {
		conn.Close()
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	}
	for gotHistory, gotUsers := false, false; !gotHistory || !gotUsers; {
		msg, err := s.Read()
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("await join reply: %w", err)
		}
		switch msg.Type {
		case protocol.TypeHistory:
			s.History, gotHistory = msg.Events, true
		case protocol.TypeUsers:
			if gotHistory {
				s.Users, gotUsers = msg.Users, true
			}
		}
	}
	conn.SetReadDeadline(time.Time{})

	return s, nil
}

// Send writes one client message.
func (s *Session) Send(msg protocol.ClientMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Type, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write %s: %w", msg.Type, err)
	}
	return nil
}

// Draw sends one stroke.
func (s *Session) Draw(points []protocol.Point, color string, width float64) error {
	return s.Send(protocol.NewDraw(points, color, width))
}

// Clear asks every peer to wipe the canvas.
func (s *Session) Clear() error {
	return s.Send(protocol.NewClear())
}


// Read blocks for the next server frame.
func (s *Session) Read() (protocol.ServerMessage, error) {
	var msg protocol.ServerMessage
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return msg, err
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("decode server frame: %w", err)
	}
	return msg, nil
}

// Close sends a close frame and drops the connection. Messages written before
// Close are processed by the server before it sees the disconnect.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return s.conn.Close()
}

// WSURL converts an http(s) server URL to the ws(s) endpoint URL.
func WSURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("parse server URL: missing host in %q", serverURL)
	}

	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	u.RawQuery = ""
	return u.String(), nil
}
