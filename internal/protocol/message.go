package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message types.
const (
	TypeJoin        = "join"
	TypeSetUsername = "set_username"
	TypeDraw        = "draw"
	TypeClear       = "clear"
	TypeHistory     = "history"
	TypeUsers       = "users"
)

var (
	// ErrMalformed means the frame is not a JSON object.
	ErrMalformed = errors.New("malformed message")
	// ErrUnknownType means the type field names no known client message.
	ErrUnknownType = errors.New("unknown message type")
	// ErrInvalid means a known message is missing a required field or has one of the wrong type.
	ErrInvalid = errors.New("invalid message")
)

// Inbound is a decoded client-to-server message: one of Join, SetUsername,
// Draw or Clear.
type Inbound interface {
	inbound()
}

// Join asks to enter a room. Username is nil when the client sent none.
type Join struct {
	Room     string
	Username *string
}

// SetUsername renames the sending connection.
type SetUsername struct {
	Username string
}

// Draw is one stroke segment.
type Draw struct {
	Points []Point
	Color  string
	Width  float64
}

// Clear wipes the canvas.
type Clear struct{}

func (Join) inbound()        {}
func (SetUsername) inbound() {}
func (Draw) inbound()        {}
func (Clear) inbound()       {}

// Point is a canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Decode parses one client frame into its typed variant.
func Decode(data []byte) (Inbound, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformed)
	}

	var msgType string
	if raw, ok := fields["type"]; ok {
		if err := json.Unmarshal(raw, &msgType); err != nil {
			return nil, fmt.Errorf("%w: type must be a string", ErrInvalid)
		}
	}

	switch msgType {
	case TypeJoin:
		var m struct {
			Room     *string `json:"room"`
			Username *string `json:"username"`
		}
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: join: %v", ErrInvalid, err)
		}
		j := Join{Username: m.Username}
		if m.Room != nil {
			j.Room = *m.Room
		}
		return j, nil

	case TypeSetUsername:
		var m struct {
			Username *string `json:"username"`
		}
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: set_username: %v", ErrInvalid, err)
		}
		if m.Username == nil {
			return nil, fmt.Errorf("%w: set_username: username required", ErrInvalid)
		}
		return SetUsername{Username: *m.Username}, nil

	case TypeDraw:
		var m struct {
			Points []struct {
				X *float64 `json:"x"`
				Y *float64 `json:"y"`
			} `json:"points"`
			Color *string  `json:"color"`
			Width *float64 `json:"width"`
		}
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: draw: %v", ErrInvalid, err)
		}
		switch {
		case len(m.Points) == 0:
			return nil, fmt.Errorf("%w: draw: points required", ErrInvalid)
		case m.Color == nil:
			return nil, fmt.Errorf("%w: draw: color required", ErrInvalid)
		case m.Width == nil:
			return nil, fmt.Errorf("%w: draw: width required", ErrInvalid)
		}
		points := make([]Point, len(m.Points))
		for i, p := range m.Points {
			if p.X == nil || p.Y == nil {
				return nil, fmt.Errorf("%w: draw: point %d needs x and y", ErrInvalid, i)
			}
			points[i] = Point{X: *p.X, Y: *p.Y}
		}
		return Draw{Points: points, Color: *m.Color, Width: *m.Width}, nil

	case TypeClear:
		return Clear{}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, msgType)
	}
}

// ClientMessage is the wire form of a client-to-server message. Clients
// encode it; the server never does.
type ClientMessage struct {
	Type     string   `json:"type"`
	Room     string   `json:"room,omitempty"`
	Username string   `json:"username,omitempty"`
	Points   []Point  `json:"points,omitempty"`
	Color    string   `json:"color,omitempty"`
	Width    *float64 `json:"width,omitempty"`
}

// NewJoin builds a join request. An empty username is left off the wire.
func NewJoin(room, username string) ClientMessage {
	return ClientMessage{Type: TypeJoin, Room: room, Username: username}
}

// NewSetUsername builds a rename request.
func NewSetUsername(username string) ClientMessage {
	return ClientMessage{Type: TypeSetUsername, Username: username}
}

// NewDraw builds a stroke message.
func NewDraw(points []Point, color string, width float64) ClientMessage {
	return ClientMessage{Type: TypeDraw, Points: points, Color: color, Width: &width}
}

// NewClear builds a clear message.
func NewClear() ClientMessage {
	return ClientMessage{Type: TypeClear}
}
