package server

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingoftheravens/fliwr.io/internal/protocol"
)

var testNow = time.UnixMilli(1700000000000)

func newTestRouter(t *testing.T, historyCap int) (*Router, *Registry, *Store) {
	t.Helper()
	reg := NewRegistry()
	store := NewStore(historyCap)
	r := NewRouter(reg, store, "default")
	r.now = func() time.Time { return testNow }
	return r, reg, store
}

func connect(r *Router) (string, *mockTransport) {
	tr := &mockTransport{}
	return r.Connect(tr), tr
}

func send(t *testing.T, r *Router, id string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	r.handle(id, data)
}

func frames(t *testing.T, tr *mockTransport) []protocol.ServerMessage {
	t.Helper()
	var out []protocol.ServerMessage
	for _, raw := range tr.getReceived() {
		var m protocol.ServerMessage
		require.NoError(t, json.Unmarshal(raw, &m))
		out = append(out, m)
	}
	return out
}

func names(users []protocol.UserInfo) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Username
	}
	return out
}

var stroke = []protocol.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}

func TestRouter_JoinSendsHistoryThenUsers(t *testing.T) {
	r, _, _ := newTestRouter(t, 10)
	a, ta := connect(r)

	send(t, r, a, protocol.NewJoin("r1", "Alice"))

	got := frames(t, ta)
	require.Len(t, got, 2)
	assert.Equal(t, protocol.TypeHistory, got[0].Type)
	assert.Empty(t, got[0].Events)
	assert.Equal(t, protocol.TypeUsers, got[1].Type)
	assert.Equal(t, []protocol.UserInfo{{ID: a, Username: "Alice"}}, got[1].Users)

	// History must be an empty list, not null.
	assert.JSONEq(t, `{"type":"history","events":[]}`, string(ta.getReceived()[0]))
}

func TestRouter_DrawRelayedToPeersOnly(t *testing.T) {
	r, _, store := newTestRouter(t, 10)
	a, ta := connect(r)
	b, tb := connect(r)
	send(t, r, a, protocol.NewJoin("r1", "Alice"))
	send(t, r, b, protocol.NewJoin("r1", "Bob"))
	ta.reset()
	tb.reset()

	send(t, r, a, protocol.NewDraw(stroke, "#f00", 3))

	assert.Empty(t, ta.getReceived())
	got := frames(t, tb)
	require.Len(t, got, 1)
	ev := got[0].AsEvent()
	assert.Equal(t, protocol.Event{
		Type:         protocol.TypeDraw,
		Points:       stroke,
		Color:        "#f00",
		Width:        3,
		From:         a,
		FromUsername: "Alice",
		TS:           testNow.UnixMilli(),
	}, ev)

	h := store.History("r1")
	require.Len(t, h, 1)
	assert.Equal(t, ev, h[0])
}

func TestRouter_ClearRelayedAndStored(t *testing.T) {
	r, _, store := newTestRouter(t, 10)
	a, _ := connect(r)
	b, tb := connect(r)
	send(t, r, a, protocol.NewJoin("r1", ""))
	send(t, r, b, protocol.NewJoin("r1", ""))
	send(t, r, a, protocol.NewDraw(stroke, "#000", 1))
	tb.reset()

	send(t, r, a, protocol.NewClear())

	raw := tb.getReceived()
	require.Len(t, raw, 1)
	assert.JSONEq(t,
		`{"type":"clear","from":"`+a+`","fromUsername":"anonymous","ts":1700000000000}`,
		string(raw[0]))

	// Clear is logged, not applied: history keeps the draw before it.
	h := store.History("r1")
	require.Len(t, h, 2)
	assert.Equal(t, protocol.TypeDraw, h[0].Type)
	assert.Equal(t, protocol.TypeClear, h[1].Type)
}

func TestRouter_LateJoinerReplaysHistory(t *testing.T) {
	r, _, _ := newTestRouter(t, 3)
	a, _ := connect(r)
	send(t, r, a, protocol.NewJoin("r1", "Alice"))
	for i := 0; i < 5; i++ {
		send(t, r, a, protocol.NewDraw([]protocol.Point{{X: float64(i)}}, "#000", 1))
	}

	b, tb := connect(r)
	send(t, r, b, protocol.NewJoin("r1", "Bob"))

	got := frames(t, tb)
	require.NotEmpty(t, got)
	require.Equal(t, protocol.TypeHistory, got[0].Type)
	require.Len(t, got[0].Events, 3)
	for i, ev := range got[0].Events {
		assert.Equal(t, float64(i+2), ev.Points[0].X)
		assert.Equal(t, "Alice", ev.FromUsername)
	}
}

func TestRouter_RoomsAreIsolated(t *testing.T) {
	r, _, store := newTestRouter(t, 10)
	a, _ := connect(r)
	b, tb := connect(r)
	send(t, r, a, protocol.NewJoin("r1", ""))
	send(t, r, b, protocol.NewJoin("r2", ""))
	tb.reset()

	send(t, r, a, protocol.NewDraw(stroke, "#000", 1))
	send(t, r, a, protocol.NewClear())

	assert.Empty(t, tb.getReceived())
	assert.Empty(t, store.History("r2"))
	assert.Len(t, store.History("r1"), 2)
}

func TestRouter_DefaultRoom(t *testing.T) {
	tests := []struct {
		name string
		msg  string
	}{
		{name: "room omitted", msg: `{"type":"join"}`},
		{name: "room empty", msg: `{"type":"join","room":""}`},
		{name: "room whitespace", msg: `{"type":"join","room":"   "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, reg, store := newTestRouter(t, 10)
			a, _ := connect(r)
			r.handle(a, []byte(tt.msg))

			m, ok := reg.Lookup(a)
			require.True(t, ok)
			assert.Equal(t, "default", m.Room)
			assert.NotNil(t, store.Get("default"))
		})
	}
}

func TestRouter_UnjoinedMessagesDropped(t *testing.T) {
	r, reg, store := newTestRouter(t, 10)
	a, ta := connect(r)
	b, tb := connect(r)
	send(t, r, b, protocol.NewJoin("default", ""))
	tb.reset()

	send(t, r, a, protocol.NewDraw(stroke, "#000", 1))
	send(t, r, a, protocol.NewClear())
	send(t, r, a, protocol.NewSetUsername("ghost"))

	assert.Empty(t, ta.getReceived())
	assert.Empty(t, tb.getReceived())
	assert.Empty(t, store.History("default"))
	m, _ := reg.Lookup(a)
	assert.Equal(t, DefaultUsername, m.Username)
}

func TestRouter_InvalidMessagesDropped(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: `{not json`},
		{name: "not an object", data: `[1,2]`},
		{name: "unknown type", data: `{"type":"erase"}`},
		{name: "missing type", data: `{"room":"x"}`},
		{name: "draw without points", data: `{"type":"draw","color":"#000","width":1}`},
		{name: "draw with bad width", data: `{"type":"draw","points":[{"x":1,"y":1}],"color":"#000","width":"wide"}`},
		{name: "draw with null point", data: `{"type":"draw","points":[null],"color":"#000","width":1}`},
		{name: "draw with point missing y", data: `{"type":"draw","points":[{"x":1}],"color":"#000","width":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, store := newTestRouter(t, 10)
			a, ta := connect(r)
			b, tb := connect(r)
			send(t, r, a, protocol.NewJoin("r1", ""))
			send(t, r, b, protocol.NewJoin("r1", ""))
			ta.reset()
			tb.reset()

			r.handle(a, []byte(tt.data))

			assert.Empty(t, ta.getReceived())
			assert.Empty(t, tb.getReceived())
			assert.Empty(t, store.History("r1"))

			// The connection stays usable.
			send(t, r, a, protocol.NewClear())
			assert.Len(t, tb.getReceived(), 1)
		})
	}
}

func TestRouter_SetUsername(t *testing.T) {
	r, _, _ := newTestRouter(t, 10)
	a, ta := connect(r)
	b, tb := connect(r)
	send(t, r, a, protocol.NewJoin("r1", "Alice"))
	send(t, r, b, protocol.NewJoin("r1", "Bob"))
	ta.reset()
	tb.reset()

	send(t, r, a, protocol.NewSetUsername("  Alicia  "))

	for _, tr := range []*mockTransport{ta, tb} {
		got := frames(t, tr)
		require.Len(t, got, 1)
		assert.Equal(t, protocol.TypeUsers, got[0].Type)
		assert.Equal(t, []string{"Alicia", "Bob"}, names(got[0].Users))
	}

	tb.reset()
	send(t, r, a, protocol.NewDraw(stroke, "#000", 1))
	got := frames(t, tb)
	require.Len(t, got, 1)
	assert.Equal(t, "Alicia", got[0].FromUsername)
}

func TestRouter_SetUsernameBlankKeepsName(t *testing.T) {
	r, reg, _ := newTestRouter(t, 10)
	a, ta := connect(r)
	send(t, r, a, protocol.NewJoin("r1", "Alice"))
	ta.reset()

	r.handle(a, []byte(`{"type":"set_username","username":"   "}`))
	r.handle(a, []byte(`{"type":"set_username","username":""}`))

	m, _ := reg.Lookup(a)
	assert.Equal(t, "Alice", m.Username)
	assert.Empty(t, ta.getReceived())
}

func TestRouter_DisconnectUpdatesPresence(t *testing.T) {
	r, reg, _ := newTestRouter(t, 10)
	a, _ := connect(r)
	b, tb := connect(r)
	send(t, r, a, protocol.NewJoin("r1", "Alice"))
	send(t, r, b, protocol.NewJoin("r1", "Bob"))
	tb.reset()

	r.handleClose(a)

	got := frames(t, tb)
	require.Len(t, got, 1)
	assert.Equal(t, []protocol.UserInfo{{ID: b, Username: "Bob"}}, got[0].Users)
	_, ok := reg.Lookup(a)
	assert.False(t, ok)

	// Frames that arrive after close are ignored.
	tb.reset()
	send(t, r, a, protocol.NewClear())
	r.handleClose(a)
	assert.Empty(t, tb.getReceived())
}

func TestRouter_RejoinMovesPresence(t *testing.T) {
	r, _, _ := newTestRouter(t, 10)
	a, ta := connect(r)
	b, tb := connect(r)
	send(t, r, a, protocol.NewJoin("r1", "Alice"))
	send(t, r, b, protocol.NewJoin("r1", "Bob"))
	ta.reset()
	tb.reset()

	send(t, r, a, protocol.NewJoin("r2", ""))

	gotB := frames(t, tb)
	require.Len(t, gotB, 1)
	assert.Equal(t, []string{"Bob"}, names(gotB[0].Users))

	gotA := frames(t, ta)
	require.Len(t, gotA, 2)
	assert.Equal(t, protocol.TypeHistory, gotA[0].Type)
	assert.Equal(t, []string{"Alice"}, names(gotA[1].Users))
}

func TestRouter_RejoinSameRoomReplaysDrawThenClear(t *testing.T) {
	r, _, _ := newTestRouter(t, 10)
	c1, _ := connect(r)
	send(t, r, c1, protocol.NewJoin("r1", "C1"))
	send(t, r, c1, protocol.NewDraw(stroke, "#f00", 2))

	c2, t2 := connect(r)
	send(t, r, c2, protocol.NewJoin("r1", "C2"))
	send(t, r, c1, protocol.NewClear())
	t2.reset()

	send(t, r, c2, protocol.NewJoin("r1", ""))

	got := frames(t, t2)
	require.Len(t, got, 2)
	require.Equal(t, protocol.TypeHistory, got[0].Type)
	require.Len(t, got[0].Events, 2)
	assert.Equal(t, protocol.TypeDraw, got[0].Events[0].Type)
	assert.Equal(t, stroke, got[0].Events[0].Points)
	assert.Equal(t, protocol.TypeClear, got[0].Events[1].Type)
	assert.Equal(t, c1, got[0].Events[1].From)

	// Same room: one presence frame, and the name survives a rejoin without one.
	assert.Equal(t, []string{"C1", "C2"}, names(got[1].Users))
}

func TestRouter_FailingPeerDoesNotBlockOthers(t *testing.T) {
	r, _, _ := newTestRouter(t, 10)
	a, _ := connect(r)
	bad := &mockTransport{sendErr: errors.New("queue full")}
	badID := r.Connect(bad)
	c, tc := connect(r)
	for _, id := range []string{a, badID, c} {
		send(t, r, id, protocol.NewJoin("r1", ""))
	}
	tc.reset()

	send(t, r, a, protocol.NewDraw(stroke, "#000", 1))

	assert.Len(t, tc.getReceived(), 1)
}

func TestRouter_RunProcessesInOrder(t *testing.T) {
	r, reg, store := newTestRouter(t, 10)
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)

	a, _ := connect(r)
	b, tb := connect(r)
	join, _ := json.Marshal(protocol.NewJoin("r1", ""))
	r.Deliver(a, join)
	r.Deliver(b, join)
	for i := 0; i < 20; i++ {
		d, _ := json.Marshal(protocol.NewDraw([]protocol.Point{{X: float64(i)}}, "#000", 1))
		r.Deliver(a, d)
	}
	r.Disconnect(a)

	// history, users, 20 draws, then users after a leaves.
	require.Eventually(t, func() bool {
		return len(tb.getReceived()) == 23
	}, time.Second, 5*time.Millisecond)

	_, ok := reg.Lookup(a)
	assert.False(t, ok)

	h := store.History("r1")
	require.Len(t, h, 10)
	assert.Equal(t, float64(10), h[0].Points[0].X)

	got := frames(t, tb)
	for i, m := range got[2:22] {
		assert.Equal(t, float64(i), m.Points[0].X)
	}
	assert.Equal(t, protocol.TypeUsers, got[22].Type)
	assert.Len(t, got[22].Users, 1)

	cancel()
	done := make(chan struct{})
	go func() {
		r.Deliver(b, join)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Deliver blocked after router stopped")
	}
}
