package server

import (
	"sort"
	"sync"

	"github.com/kingoftheravens/fliwr.io/internal/protocol"
)

// DefaultHistoryCap is the per-room log limit used when none is configured.
const DefaultHistoryCap = 2000

// Store maps room names to their event logs.
type Store struct {
	mu         sync.RWMutex
	rooms      map[string]*Room
	historyCap int
}

// NewStore creates a Store with the given per-room history cap.
func NewStore(historyCap int) *Store {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}
	return &Store{
		rooms:      make(map[string]*Room),
		historyCap: historyCap,
	}
}

// Ensure returns the room with the given name, creating it if needed.
func (s *Store) Ensure(name string) *Room {
	s.mu.RLock()
	r, ok := s.rooms[name]
	s.mu.RUnlock()
	if ok {
		return r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Double-check after acquiring write lock.
	if r, ok = s.rooms[name]; ok {
		return r
	}
	r = NewRoom(name, s.historyCap)
	s.rooms[name] = r
	return r
}

// Get returns a room or nil if it doesn't exist.
func (s *Store) Get(name string) *Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[name]
}

// Append adds ev to the named room's log.
func (s *Store) Append(name string, ev protocol.Event) {
	s.Ensure(name).Append(ev)
}

// History returns a snapshot of the named room's log; nil for unknown rooms.
func (s *Store) History(name string) []protocol.Event {
	r := s.Get(name)
	if r == nil {
		return nil
	}
	return r.History()
}

// Rooms returns a summary of every room, sorted by name.
func (s *Store) Rooms() []RoomSnapshot {
	s.mu.RLock()
	out := make([]RoomSnapshot, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r.Snapshot())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RoomCount returns the number of rooms.
func (s *Store) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
