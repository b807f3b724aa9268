package protocol

import (
	"encoding/json"
	"time"
)

// Event is a stamped draw or clear, as stored in a room log and broadcast
// to room peers.
type Event struct {
	Type         string  `json:"type"`
	Points       []Point `json:"points"`
	Color        string  `json:"color"`
	Width        float64 `json:"width"`
	From         string  `json:"from"`
	FromUsername string  `json:"fromUsername"`
	TS           int64   `json:"ts"`
}

// MarshalJSON writes stroke fields only for draw events.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Type == TypeDraw {
		points := e.Points
		if points == nil {
			points = []Point{}
		}
		return json.Marshal(struct {
			Type         string  `json:"type"`
			Points       []Point `json:"points"`
			Color        string  `json:"color"`
			Width        float64 `json:"width"`
			From         string  `json:"from"`
			FromUsername string  `json:"fromUsername"`
			TS           int64   `json:"ts"`
		}{e.Type, points, e.Color, e.Width, e.From, e.FromUsername, e.TS})
	}
	return json.Marshal(struct {
		Type         string `json:"type"`
		From         string `json:"from"`
		FromUsername string `json:"fromUsername"`
		TS           int64  `json:"ts"`
	}{e.Type, e.From, e.FromUsername, e.TS})
}

// Time returns the server timestamp.
func (e Event) Time() time.Time {
	return time.UnixMilli(e.TS)
}

// UserInfo is one entry of a presence list.
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// History is sent once to a connection right after it joins.
type History struct {
	Type   string  `json:"type"`
	Events []Event `json:"events"`
}

// NewHistory wraps a room log. A nil log is sent as an empty list.
func NewHistory(events []Event) History {
	if events == nil {
		events = []Event{}
	}
	return History{Type: TypeHistory, Events: events}
}

// Users is the presence list broadcast to a room.
type Users struct {
	Type  string     `json:"type"`
	Users []UserInfo `json:"users"`
}

// NewUsers wraps a presence list. A nil list is sent as an empty list.
func NewUsers(users []UserInfo) Users {
	if users == nil {
		users = []UserInfo{}
	}
	return Users{Type: TypeUsers, Users: users}
}

// ServerMessage is any server-to-client frame, flattened for decoding on the
// client side. Which fields are set depends on Type.
type ServerMessage struct {
	Type         string     `json:"type"`
	Events       []Event    `json:"events,omitempty"`
	Users        []UserInfo `json:"users,omitempty"`
	Points       []Point    `json:"points,omitempty"`
	Color        string     `json:"color,omitempty"`
	Width        float64    `json:"width,omitempty"`
	From         string     `json:"from,omitempty"`
	FromUsername string     `json:"fromUsername,omitempty"`
	TS           int64      `json:"ts,omitempty"`
}

// AsEvent returns the draw or clear carried by a broadcast frame.
func (m ServerMessage) AsEvent() Event {
	return Event{
		Type:         m.Type,
		Points:       m.Points,
		Color:        m.Color,
		Width:        m.Width,
		From:         m.From,
		FromUsername: m.FromUsername,
		TS:           m.TS,
	}
}
