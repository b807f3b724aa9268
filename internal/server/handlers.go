package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kingoftheravens/fliwr.io/internal/config"
	"github.com/kingoftheravens/fliwr.io/internal/protocol"
)

// Handlers holds references needed by HTTP handlers.
type Handlers struct {
	Store     *Store
	Registry  *Registry
	Router    *Router
	WebSocket config.WebSocketConfig
	StartTime time.Time
}

// Health handles GET /api/health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.StartTime)
	resp := protocol.HealthResponse{
		Status:      "ok",
		Uptime:      uptime.Round(time.Second).String(),
		UptimeSec:   uptime.Seconds(),
		Rooms:       h.Store.RoomCount(),
		Connections: h.Registry.Count(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListRooms handles GET /api/rooms.
func (h *Handlers) ListRooms(w http.ResponseWriter, r *http.Request) {
	snapshots := h.Store.Rooms()
	counts := h.Registry.RoomCounts()
	rooms := make([]protocol.RoomInfo, len(snapshots))
	for i, s := range snapshots {
		rooms[i] = protocol.RoomInfo{
			Name:          s.Name,
			Clients:       counts[s.Name],
			EventCount:    s.EventCount,
			TotalAppended: s.TotalAppended,
			Evicted:       s.Evicted,
			LastEventTS:   s.LastEventTS,
		}
	}
	writeJSON(w, http.StatusOK, protocol.RoomList{Rooms: rooms})
}

// History handles GET /api/rooms/{room}/history. Unknown rooms yield an
// empty list and are not created.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	roomName := r.PathValue("room")
	if roomName == "" {
		writeError(w, http.StatusBadRequest, "room name required")
		return
	}

	events := h.Store.History(roomName)
	if events == nil {
		events = []protocol.Event{}
	}
	writeJSON(w, http.StatusOK, protocol.HistoryResponse{Room: roomName, Events: events, Count: len(events)})
}

// Users handles GET /api/rooms/{room}/users.
func (h *Handlers) Users(w http.ResponseWriter, r *http.Request) {
	roomName := r.PathValue("room")
	if roomName == "" {
		writeError(w, http.StatusBadRequest, "room name required")
		return
	}
	writeJSON(w, http.StatusOK, protocol.UserList{Room: roomName, Users: h.Registry.ListInRoom(roomName)})
}

// HandleWS handles the WebSocket upgrade on /ws and /.
func (h *Handlers) HandleWS(w http.ResponseWriter, r *http.Request) {
	ServeWS(h.Router, h.WebSocket, w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
