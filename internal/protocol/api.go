package protocol

// HealthResponse is the response for GET /api/health.
type HealthResponse struct {
	Status      string  `json:"status"`
	Uptime      string  `json:"uptime"`
	UptimeSec   float64 `json:"uptime_seconds"`
	Rooms       int     `json:"rooms"`
	Connections int     `json:"connections"`
}

// RoomInfo describes a room known to the server.
type RoomInfo struct {
	Name          string `json:"name"`
	Clients       int    `json:"clients"`
	EventCount    int    `json:"event_count"`
	TotalAppended int64  `json:"total_appended"`
	Evicted       int64  `json:"evicted"`
	LastEventTS   int64  `json:"last_event_ts,omitempty"`
}

// RoomList is the response for GET /api/rooms.
type RoomList struct {
	Rooms []RoomInfo `json:"rooms"`
}

// HistoryResponse is the response for GET /api/rooms/{room}/history.
type HistoryResponse struct {
	Room   string  `json:"room"`
	Events []Event `json:"events"`
	Count  int     `json:"count"`
}

// UserList is the response for GET /api/rooms/{room}/users.
type UserList struct {
	Room  string     `json:"room"`
	Users []UserInfo `json:"users"`
}
