package cli

import (
	"fmt"
	"strings"

	"github.com/kingoftheravens/fliwr.io/internal/protocol"
)

// formatPlain formats an event for human-readable output.
func formatPlain(ev protocol.Event) string {
	var b strings.Builder
	ts := ev.Time().Local().Format("15:04:05")
	fmt.Fprintf(&b, "[%s] %s", ts, authorName(ev))

	switch ev.Type {
	case protocol.TypeDraw:
		fmt.Fprintf(&b, " drew %d points %s w=%g", len(ev.Points), ev.Color, ev.Width)
		if n := len(ev.Points); n > 0 {
			fmt.Fprintf(&b, " (%g,%g)", ev.Points[0].X, ev.Points[0].Y)
			if n > 1 {
				fmt.Fprintf(&b, " -> (%g,%g)", ev.Points[n-1].X, ev.Points[n-1].Y)
			}
		}
	case protocol.TypeClear:
		fmt.Fprintf(&b, " --- cleared the canvas")
	default:
		fmt.Fprintf(&b, " %s", ev.Type)
	}
	return b.String()
}

func formatUsers(users []protocol.UserInfo) string {
	if len(users) == 0 {
		return "online: nobody"
	}
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	return "online: " + strings.Join(names, ", ")
}

func authorName(ev protocol.Event) string {
	if ev.FromUsername != "" {
		return ev.FromUsername
	}
	return ev.From
}

// ANSI color codes for author coloring.
var authorColors = []string{
	"\033[36m", // Cyan
	"\033[32m", // Green
	"\033[33m", // Yellow
	"\033[35m", // Magenta
	"\033[34m", // Blue
	"\033[31m", // Red
	"\033[96m", // Bright Cyan
	"\033[92m", // Bright Green
}

const ansiReset = "\033[0m"

// authorColor returns a deterministic ANSI color for a connection id.
func authorColor(id string) string {
	var h uint32
	for _, c := range id {
		h = h*31 + uint32(c)
	}
	return authorColors[h%uint32(len(authorColors))]
}

// formatColor wraps formatPlain with ANSI color on the author name.
func formatColor(ev protocol.Event) string {
	plain := formatPlain(ev)
	name := authorName(ev)
	return strings.Replace(plain, "] "+name, "] "+authorColor(ev.From)+name+ansiReset, 1)
}
