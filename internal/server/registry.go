package server

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kingoftheravens/fliwr.io/internal/protocol"
)

// Display name limits.
const (
	DefaultUsername = "anonymous"
	MaxUsernameLen  = 30
)

// ErrUnknownConn is returned when sending to an id that is not registered.
var ErrUnknownConn = errors.New("unknown connection")

// Transport delivers encoded frames to one peer. Send must not block.
type Transport interface {
	Send(data []byte) error
	Close() error
}

type connection struct {
	id        string
	seq       uint64
	username  string
	room      string
	joined    bool
	transport Transport
}

// Member is a point-in-time copy of one connection record.
type Member struct {
	ID       string
	Username string
	Room     string
	Joined   bool
}

// Registry tracks every live connection, its display name and its room.
type Registry struct {
	mu      sync.RWMutex
	conns   map[string]*connection
	nextSeq uint64
	newID   func() string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*connection),
		newID: func() string { return uuid.New().String() },
	}
}

// Register records a new connection with no room and the default name.
func (r *Registry) Register(t Transport) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.newID()
	r.nextSeq++
	r.conns[id] = &connection{
		id:        id,
		seq:       r.nextSeq,
		username:  DefaultUsername,
		transport: t,
	}
	return id
}

// SetRoom assigns the connection's current room.
func (r *Registry) SetRoom(id, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return false
	}
	c.room = room
	c.joined = true
	return true
}

// SetDisplayName stores the normalized name, even when it normalizes to "".
func (r *Registry) SetDisplayName(id, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return false
	}
	c.username = NormalizeUsername(name)
	return true
}

// Lookup returns a copy of the record for id.
func (r *Registry) Lookup(id string) (Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	if !ok {
		return Member{}, false
	}
	return c.member(), true
}

// ListInRoom returns the joined connections in room, oldest connection first.
func (r *Registry) ListInRoom(room string) []protocol.UserInfo {
	r.mu.RLock()
	matched := make([]*connection, 0, len(r.conns))
	for _, c := range r.conns {
		if c.joined && c.room == room {
			matched = append(matched, c)
		}
	}
	out := make([]protocol.UserInfo, len(matched))
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
	for i, c := range matched {
		out[i] = protocol.UserInfo{ID: c.id, Username: c.username}
	}
	r.mu.RUnlock()
	return out
}

// Remove deletes the record and returns its last state.
func (r *Registry) Remove(id string) (Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return Member{}, false
	}
	delete(r.conns, id)
	return c.member(), true
}

// Send hands data to the connection's transport. The transport decides
// whether it is still open; its error is returned for logging only.
func (r *Registry) Send(id string, data []byte) error {
	r.mu.RLock()
	c, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return ErrUnknownConn
	}
	return c.transport.Send(data)
}

// CloseAll closes every registered transport and returns how many there
// were. Records are removed as each transport reports its close.
func (r *Registry) CloseAll() int {
	r.mu.RLock()
	transports := make([]Transport, 0, len(r.conns))
	for _, c := range r.conns {
		transports = append(transports, c.transport)
	}
	r.mu.RUnlock()

	for _, t := range transports {
		t.Close()
	}
	return len(transports)
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// RoomCounts returns the number of joined connections per room.
func (r *Registry) RoomCounts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int)
	for _, c := range r.conns {
		if c.joined {
			counts[c.room]++
		}
	}
	return counts
}

func (c *connection) member() Member {
	return Member{ID: c.id, Username: c.username, Room: c.room, Joined: c.joined}
}

// NormalizeUsername trims name and cuts it to MaxUsernameLen runes.
func NormalizeUsername(name string) string {
	name = strings.TrimSpace(name)
	if runes := []rune(name); len(runes) > MaxUsernameLen {
		name = string(runes[:MaxUsernameLen])
	}
	return name
}
