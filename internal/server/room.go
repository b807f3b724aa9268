package server

import (
	"sync"

	"github.com/kingoftheravens/fliwr.io/internal/protocol"
)

// RoomSnapshot holds a point-in-time view of a room for listing.
type RoomSnapshot struct {
	Name          string
	EventCount    int
	TotalAppended int64
	Evicted       int64
	LastEventTS   int64
}

// Room holds the bounded event log of one board.
type Room struct {
	name       string
	historyCap int

	mu       sync.RWMutex
	events   []protocol.Event
	appended int64
	evicted  int64
}

// NewRoom creates a room with the given name and history cap.
func NewRoom(name string, historyCap int) *Room {
	return &Room{
		name:       name,
		historyCap: historyCap,
		events:     make([]protocol.Event, 0, 64),
	}
}

// Name returns the room identifier.
func (r *Room) Name() string {
	return r.name
}

// Append adds ev to the tail of the log, evicting from the head so the log
// never holds more than the cap once Append returns.
func (r *Room) Append(ev protocol.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	r.appended++
	if len(r.events) > r.historyCap {
		excess := len(r.events) - r.historyCap
		clear(r.events[:excess])
		r.events = r.events[excess:]
		r.evicted += int64(excess)
	}
}

// History returns a copy of the log in append order.
func (r *Room) History() []protocol.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]protocol.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of events in the log.
func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}

// Snapshot returns a point-in-time summary of this room.
func (r *Room) Snapshot() RoomSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := RoomSnapshot{
		Name:          r.name,
		EventCount:    len(r.events),
		TotalAppended: r.appended,
		Evicted:       r.evicted,
	}
	if n := len(r.events); n > 0 {
		s.LastEventTS = r.events[n-1].TS
	}
	return s
}
