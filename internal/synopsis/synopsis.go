// Package synopsis renders a room's event log as a markdown digest.
package synopsis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/kingoftheravens/fliwr.io/internal/protocol"
)

// Contributor totals one author's activity in a log.
type Contributor struct {
	ID       string
	Username string
	Strokes  int
	Points   int
	Clears   int
}

// Bounds is the axis-aligned box around a set of points.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Summary is the aggregate view of a room log.
type Summary struct {
	Strokes      int
	Clears       int
	Points       int
	Visible      int // strokes after the last clear
	Contributors []Contributor
	Colors       []string
	Bounds       *Bounds
	First, Last  time.Time
}

// Summarize aggregates events. Contributors keep first-appearance order;
// colors are sorted by use, most used first.
func Summarize(events []protocol.Event) Summary {
	var s Summary
	byID := map[string]int{}
	colorUse := map[string]int{}
	bounds := Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}

	for _, ev := range events {
		i, ok := byID[ev.From]
		if !ok {
			i = len(s.Contributors)
			byID[ev.From] = i
			s.Contributors = append(s.Contributors, Contributor{ID: ev.From})
		}
		c := &s.Contributors[i]
		c.Username = ev.FromUsername

		switch ev.Type {
		case protocol.TypeDraw:
			s.Strokes++
			s.Visible++
			s.Points += len(ev.Points)
			c.Strokes++
			c.Points += len(ev.Points)
			colorUse[ev.Color]++
			for _, p := range ev.Points {
				bounds.MinX = math.Min(bounds.MinX, p.X)
				bounds.MinY = math.Min(bounds.MinY, p.Y)
				bounds.MaxX = math.Max(bounds.MaxX, p.X)
				bounds.MaxY = math.Max(bounds.MaxY, p.Y)
			}
		case protocol.TypeClear:
			s.Clears++
			s.Visible = 0
			c.Clears++
		}
	}

	if s.Points > 0 {
		s.Bounds = &bounds
	}
	for color := range colorUse {
		s.Colors = append(s.Colors, color)
	}
	sort.Slice(s.Colors, func(i, j int) bool {
		a, b := s.Colors[i], s.Colors[j]
		if colorUse[a] != colorUse[b] {
			return colorUse[a] > colorUse[b]
		}
		return a < b
	})
	if len(events) > 0 {
		s.First = events[0].Time()
		s.Last = events[len(events)-1].Time()
	}
	return s
}

// Build creates a markdown digest of a room's log and current presence.
func Build(room string, events []protocol.Event, users []protocol.UserInfo, now time.Time) string {
	var b strings.Builder
	s := Summarize(events)

	fmt.Fprintf(&b, "# Whiteboard Digest: %s\n\n", now.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "**Room**: %s\n", room)

	online := make([]string, len(users))
	for i, u := range users {
		online[i] = u.Username
	}
	if len(online) == 0 {
		fmt.Fprintf(&b, "**Online**: nobody\n")
	} else {
		fmt.Fprintf(&b, "**Online**: %s\n", strings.Join(online, ", "))
	}

	if len(events) > 0 {
		fmt.Fprintf(&b, "**Time range**: %s to %s\n",
			s.First.Local().Format("15:04:05"), s.Last.Local().Format("15:04:05"))
	}
	fmt.Fprintf(&b, "**Events**: %d (%d strokes, %d clears)\n", len(events), s.Strokes, s.Clears)
	fmt.Fprintf(&b, "**Visible strokes**: %d\n", s.Visible)
	if s.Bounds != nil {
		fmt.Fprintf(&b, "**Extent**: (%g, %g) to (%g, %g)\n", s.Bounds.MinX, s.Bounds.MinY, s.Bounds.MaxX, s.Bounds.MaxY)
	}
	if len(s.Colors) > 0 {
		fmt.Fprintf(&b, "**Colors**: %s\n", strings.Join(s.Colors, ", "))
	}

	if len(s.Contributors) > 0 {
		fmt.Fprintf(&b, "\n---\n\n## Contributors\n\n")
		fmt.Fprintf(&b, "| user | strokes | points | clears |\n|---|---|---|---|\n")
		for _, c := range s.Contributors {
			fmt.Fprintf(&b, "| %s | %d | %d | %d |\n", displayName(c.Username, c.ID), c.Strokes, c.Points, c.Clears)
		}
	}

	fmt.Fprintf(&b, "\n---\n\n## Timeline\n\n")
	if len(events) == 0 {
		fmt.Fprintf(&b, "*The canvas is empty.*\n")
		return b.String()
	}
	for _, run := range timeline(events) {
		ts := run.start.Local().Format("15:04:05")
		name := displayName(run.username, run.from)
		if run.kind == protocol.TypeClear {
			fmt.Fprintf(&b, "- [%s] **%s** cleared the canvas\n", ts, name)
			continue
		}
		noun := "strokes"
		if run.count == 1 {
			noun = "stroke"
		}
		fmt.Fprintf(&b, "- [%s] **%s** drew %d %s\n", ts, name, run.count, noun)
	}

	return b.String()
}

type run struct {
	kind     string
	from     string
	username string
	count    int
	start    time.Time
}

// timeline collapses consecutive draws by the same author into one entry.
func timeline(events []protocol.Event) []run {
	var runs []run
	for _, ev := range events {
		if n := len(runs); n > 0 && ev.Type == protocol.TypeDraw &&
			runs[n-1].kind == protocol.TypeDraw && runs[n-1].from == ev.From {
			runs[n-1].count++
			continue
		}
		runs = append(runs, run{kind: ev.Type, from: ev.From, username: ev.FromUsername, count: 1, start: ev.Time()})
	}
	return runs
}

func displayName(username, id string) string {
	if username != "" {
		return username
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
