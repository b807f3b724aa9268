package synopsis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingoftheravens/fliwr.io/internal/protocol"
)

func draw(from, name, color string, ts int64, pts ...protocol.Point) protocol.Event {
	return protocol.Event{Type: protocol.TypeDraw, Points: pts, Color: color, Width: 2, From: from, FromUsername: name, TS: ts}
}

func clearBy(from, name string, ts int64) protocol.Event {
	return protocol.Event{Type: protocol.TypeClear, From: from, FromUsername: name, TS: ts}
}

func sampleLog() []protocol.Event {
	return []protocol.Event{
		draw("a", "Alice", "#f00", 1000, protocol.Point{X: 0, Y: 5}, protocol.Point{X: 10, Y: 5}),
		draw("a", "Alice", "#f00", 2000, protocol.Point{X: -3, Y: 1}),
		draw("b", "Bob", "#00f", 3000, protocol.Point{X: 4, Y: 20}),
		clearBy("b", "Bob", 4000),
		draw("a", "Alice", "#00f", 5000, protocol.Point{X: 1, Y: 1}),
		draw("a", "Alice", "#00f", 6000, protocol.Point{X: 2, Y: 2}),
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleLog())

	assert.Equal(t, 5, s.Strokes)
	assert.Equal(t, 1, s.Clears)
	assert.Equal(t, 6, s.Points)
	assert.Equal(t, 2, s.Visible)
	assert.Equal(t, []Contributor{
		{ID: "a", Username: "Alice", Strokes: 4, Points: 5},
		{ID: "b", Username: "Bob", Strokes: 1, Points: 1, Clears: 1},
	}, s.Contributors)
	assert.Equal(t, []string{"#00f", "#f00"}, s.Colors)
	require.NotNil(t, s.Bounds)
	assert.Equal(t, Bounds{MinX: -3, MinY: 1, MaxX: 10, MaxY: 20}, *s.Bounds)
	assert.Equal(t, int64(1000), s.First.UnixMilli())
	assert.Equal(t, int64(6000), s.Last.UnixMilli())
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Strokes)
	assert.Nil(t, s.Bounds)
	assert.Empty(t, s.Contributors)
	assert.True(t, s.First.IsZero())
}

func TestBuild(t *testing.T) {
	users := []protocol.UserInfo{{ID: "a", Username: "Alice"}}
	out := Build("board", sampleLog(), users, time.UnixMilli(7000))

	assert.Contains(t, out, "**Room**: board")
	assert.Contains(t, out, "**Online**: Alice")
	assert.Contains(t, out, "**Events**: 6 (5 strokes, 1 clears)")
	assert.Contains(t, out, "**Visible strokes**: 2")
	assert.Contains(t, out, "**Extent**: (-3, 1) to (10, 20)")
	assert.Contains(t, out, "| Alice | 4 | 5 | 0 |")
	assert.Contains(t, out, "| Bob | 1 | 1 | 1 |")
	assert.Contains(t, out, "**Alice** drew 2 strokes")
	assert.Contains(t, out, "**Bob** drew 1 stroke\n")
	assert.Contains(t, out, "**Bob** cleared the canvas")
}

func TestBuild_EmptyRoom(t *testing.T) {
	out := Build("quiet", nil, nil, time.Now())
	assert.Contains(t, out, "**Online**: nobody")
	assert.Contains(t, out, "*The canvas is empty.*")
	assert.NotContains(t, out, "## Contributors")
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Alice", displayName("Alice", "abc"))
	assert.Equal(t, "12345678", displayName("", "1234567890"))
	assert.Equal(t, "abc", displayName("", "abc"))
}
