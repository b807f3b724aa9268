package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/kingoftheravens/fliwr.io/internal/log"
	"github.com/kingoftheravens/fliwr.io/internal/protocol"
)

const inboxSize = 1024

type inbound struct {
	connID string
	data   []byte
	closed bool
}

// Router applies client messages to the Registry and Store and fans out the
// results. All messages from all connections are handled one at a time on
// the goroutine running Run.
type Router struct {
	registry    *Registry
	store       *Store
	defaultRoom string
	now         func() time.Time

	inbox   chan inbound
	stopped chan struct{}
}

// NewRouter creates a Router. defaultRoom is used for joins with a blank room.
func NewRouter(registry *Registry, store *Store, defaultRoom string) *Router {
	if strings.TrimSpace(defaultRoom) == "" {
		defaultRoom = "default"
	}
	return &Router{
		registry:    registry,
		store:       store,
		defaultRoom: defaultRoom,
		now:         time.Now,
		inbox:       make(chan inbound, inboxSize),
		stopped:     make(chan struct{}),
	}
}

// Connect registers a newly opened transport and returns its connection id.
func (r *Router) Connect(t Transport) string {
	id := r.registry.Register(t)
	l := log.L()
	l.Debug().Str(log.FieldConnID, id).Msg("connection opened")
	return id
}

// Deliver queues a raw client frame for processing.
func (r *Router) Deliver(connID string, data []byte) {
	r.enqueue(inbound{connID: connID, data: data})
}

// Disconnect queues the close of a transport. It must be called exactly once
// per connection.
func (r *Router) Disconnect(connID string) {
	r.enqueue(inbound{connID: connID, closed: true})
}

func (r *Router) enqueue(in inbound) {
	select {
	case r.inbox <- in:
	case <-r.stopped:
	}
}

// Run processes queued frames until ctx is cancelled.
func (r *Router) Run(ctx context.Context) {
	defer close(r.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case in := <-r.inbox:
			if in.closed {
				r.handleClose(in.connID)
			} else {
				r.handle(in.connID, in.data)
			}
		}
	}
}

func (r *Router) handle(connID string, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		l := log.L()
		if errors.Is(err, protocol.ErrMalformed) {
			l.Warn().Err(err).Str(log.FieldConnID, connID).Msg("dropping malformed message")
		} else {
			l.Debug().Err(err).Str(log.FieldConnID, connID).Msg("dropping message")
		}
		return
	}

	member, ok := r.registry.Lookup(connID)
	if !ok {
		return
	}

	switch m := msg.(type) {
	case protocol.Join:
		r.join(member, m)
	case protocol.SetUsername:
		r.setUsername(member, m)
	case protocol.Draw:
		r.publish(member, protocol.Event{
			Type:   protocol.TypeDraw,
			Points: m.Points,
			Color:  m.Color,
			Width:  m.Width,
		})
	case protocol.Clear:
		r.publish(member, protocol.Event{Type: protocol.TypeClear})
	default:
		l := log.L()
		l.Debug().Str(log.FieldConnID, connID).Msgf("dropping unhandled message %T", msg)
	}
}

func (r *Router) join(member Member, m protocol.Join) {
	room := m.Room
	if strings.TrimSpace(room) == "" {
		room = r.defaultRoom
	}

	r.store.Ensure(room)
	r.registry.SetRoom(member.ID, room)
	if m.Username != nil {
		if name := NormalizeUsername(*m.Username); name != "" {
			r.registry.SetDisplayName(member.ID, name)
		}
	}

	r.sendTo(member.ID, protocol.NewHistory(r.store.History(room)))
	r.broadcastUsers(room)
	if member.Joined && member.Room != room {
		r.broadcastUsers(member.Room)
	}

	l := log.L()
	l.Info().Str(log.FieldConnID, member.ID).Str(log.FieldRoom, room).Msg("client joined room")
}

func (r *Router) setUsername(member Member, m protocol.SetUsername) {
	if !member.Joined {
		return
	}
	name := NormalizeUsername(m.Username)
	if name == "" {
		return
	}
	r.registry.SetDisplayName(member.ID, name)
	r.broadcastUsers(member.Room)

	l := log.L()
	l.Debug().Str(log.FieldConnID, member.ID).Str(log.FieldUsername, name).Msg("client renamed")
}

// publish stamps ev, appends it to the sender's room and sends it to every
// other member of that room.
func (r *Router) publish(member Member, ev protocol.Event) {
	if !member.Joined {
		return
	}
	ev.From = member.ID
	ev.FromUsername = member.Username
	ev.TS = r.now().UnixMilli()

	r.store.Append(member.Room, ev)
	r.broadcast(member.Room, ev, member.ID)
}

func (r *Router) handleClose(connID string) {
	member, ok := r.registry.Remove(connID)
	if !ok {
		return
	}
	if member.Joined {
		r.broadcastUsers(member.Room)
	}

	l := log.L()
	l.Debug().Str(log.FieldConnID, connID).Str(log.FieldRoom, member.Room).Msg("connection closed")
}

func (r *Router) broadcastUsers(room string) {
	r.broadcast(room, protocol.NewUsers(r.registry.ListInRoom(room)), "")
}

// broadcast sends v to every connection in room except exclude. Membership is
// snapshotted first; one failed send never stops the rest.
func (r *Router) broadcast(room string, v any, exclude string) {
	data, err := json.Marshal(v)
	if err != nil {
		l := log.L()
		l.Error().Err(err).Str(log.FieldRoom, room).Msg("marshal broadcast")
		return
	}
	for _, u := range r.registry.ListInRoom(room) {
		if u.ID == exclude {
			continue
		}
		r.deliver(u.ID, data)
	}
}

func (r *Router) sendTo(connID string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		l := log.L()
		l.Error().Err(err).Str(log.FieldConnID, connID).Msg("marshal message")
		return
	}
	r.deliver(connID, data)
}

func (r *Router) deliver(connID string, data []byte) {
	if err := r.registry.Send(connID, data); err != nil {
		l := log.L()
		l.Debug().Err(err).Str(log.FieldConnID, connID).Msg("send skipped")
	}
}
