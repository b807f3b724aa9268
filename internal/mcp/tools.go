package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kingoftheravens/fliwr.io/internal/apiclient"
	"github.com/kingoftheravens/fliwr.io/internal/protocol"
	"github.com/kingoftheravens/fliwr.io/internal/synopsis"
	"github.com/kingoftheravens/fliwr.io/internal/wsclient"
)

const (
	defaultColor = "#000000"
	defaultWidth = 2.0
	joinTimeout  = 10 * time.Second
)

// prop is a shorthand for building a JSON Schema property.
func prop(typ, desc string) any {
	return map[string]any{
		"type":        typ,
		"description": desc,
	}
}

var roomProp = prop("string", "Room name (defaults to the configured room)")

// board holds what every tool needs to reach the server.
type board struct {
	cfg Config
	api *apiclient.Client
}

func newBoard(cfg Config, api *apiclient.Client) *board {
	return &board{cfg: cfg, api: api}
}

func (b *board) room(request mcplib.CallToolRequest) string {
	if room := strings.TrimSpace(request.GetString("room", "")); room != "" {
		return room
	}
	return b.cfg.Room
}

// withSession joins room as a normal participant, runs fn and leaves.
func (b *board) withSession(ctx context.Context, room string, fn func(*wsclient.Session) error) error {
	joinCtx, cancel := context.WithTimeout(ctx, joinTimeout)
	defer cancel()
	s, err := wsclient.Join(joinCtx, b.cfg.ServerURL, room, b.cfg.Name)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// registerTools adds all whiteboard tools to the MCP server.
func registerTools(srv *mcpserver.MCPServer, b *board) {
	srv.AddTool(mcplib.Tool{
		Name:        "list_rooms",
		Description: "List the whiteboard rooms on the server with their client and event counts.",
		InputSchema: mcplib.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, makeListRoomsHandler(b))

	srv.AddTool(mcplib.Tool{
		Name:        "get_canvas",
		Description: "Summarize a room's canvas: who drew what, colors, extent, and a timeline of strokes and clears.",
		InputSchema: mcplib.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"room": roomProp,
			},
		},
	}, makeGetCanvasHandler(b))

	srv.AddTool(mcplib.Tool{
		Name:        "list_users",
		Description: "List the users currently connected to a room.",
		InputSchema: mcplib.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"room": roomProp,
			},
		},
	}, makeListUsersHandler(b))

	srv.AddTool(mcplib.Tool{
		Name:        "draw_stroke",
		Description: "Draw one stroke on a room's canvas. Every other participant sees it immediately and it is kept in the room history.",
		InputSchema: mcplib.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"points": map[string]any{
					"type":        "array",
					"description": "Stroke points in canvas pixels, in drawing order",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"x": prop("number", "X coordinate"),
							"y": prop("number", "Y coordinate"),
						},
						"required": []string{"x", "y"},
					},
				},
				"color": prop("string", "CSS color (default #000000)"),
				"width": prop("number", "Line width in pixels (default 2)"),
				"room":  roomProp,
			},
			Required: []string{"points"},
		},
	}, makeDrawStrokeHandler(b))

	srv.AddTool(mcplib.Tool{
		Name:        "clear_canvas",
		Description: "Clear a room's canvas for every participant.",
		InputSchema: mcplib.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"room": roomProp,
			},
		},
	}, makeClearCanvasHandler(b))
}

func makeListRoomsHandler(b *board) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		list, err := b.api.Rooms(ctx)
		if err != nil {
			return mcplib.NewToolResultError(fmt.Sprintf("failed to list rooms: %v", err)), nil
		}
		if len(list.Rooms) == 0 {
			return mcplib.NewToolResultText("No rooms on the server."), nil
		}

		var sb strings.Builder
		for _, r := range list.Rooms {
			fmt.Fprintf(&sb, "%s: %d clients, %d events", r.Name, r.Clients, r.EventCount)
			if r.Evicted > 0 {
				fmt.Fprintf(&sb, " (%d evicted)", r.Evicted)
			}
			sb.WriteString("\n")
		}
		return mcplib.NewToolResultText(sb.String()), nil
	}
}

func makeGetCanvasHandler(b *board) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		room := b.room(request)
		hist, err := b.api.History(ctx, room)
		if err != nil {
			return mcplib.NewToolResultError(fmt.Sprintf("failed to get history: %v", err)), nil
		}
		users, err := b.api.Users(ctx, room)
		if err != nil {
			return mcplib.NewToolResultError(fmt.Sprintf("failed to get users: %v", err)), nil
		}
		return mcplib.NewToolResultText(synopsis.Build(room, hist.Events, users.Users, time.Now())), nil
	}
}

func makeListUsersHandler(b *board) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		room := b.room(request)
		list, err := b.api.Users(ctx, room)
		if err != nil {
			return mcplib.NewToolResultError(fmt.Sprintf("failed to list users: %v", err)), nil
		}
		if len(list.Users) == 0 {
			return mcplib.NewToolResultText(fmt.Sprintf("Nobody is in %s.", room)), nil
		}

		var sb strings.Builder
		for _, u := range list.Users {
			fmt.Fprintf(&sb, "%s (id: %s)\n", u.Username, u.ID)
		}
		return mcplib.NewToolResultText(sb.String()), nil
	}
}

func makeDrawStrokeHandler(b *board) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		points, err := pointsArg(request)
		if err != nil {
			return mcplib.NewToolResultError(err.Error()), nil
		}
		color := request.GetString("color", defaultColor)
		width := request.GetFloat("width", defaultWidth)
		if width <= 0 {
			return mcplib.NewToolResultError("width must be positive"), nil
		}

		room := b.room(request)
		err = b.withSession(ctx, room, func(s *wsclient.Session) error {
			return s.Draw(points, color, width)
		})
		if err != nil {
			return mcplib.NewToolResultError(fmt.Sprintf("failed to draw: %v", err)), nil
		}
		return mcplib.NewToolResultText(fmt.Sprintf("Drew a %d-point %s stroke in %s.", len(points), color, room)), nil
	}
}

func makeClearCanvasHandler(b *board) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		room := b.room(request)
		err := b.withSession(ctx, room, func(s *wsclient.Session) error {
			return s.Clear()
		})
		if err != nil {
			return mcplib.NewToolResultError(fmt.Sprintf("failed to clear: %v", err)), nil
		}
		return mcplib.NewToolResultText(fmt.Sprintf("Cleared the canvas in %s.", room)), nil
	}
}

// pointsArg accepts points as an array of {x, y} objects or as an
// "x,y x,y" string.
func pointsArg(request mcplib.CallToolRequest) ([]protocol.Point, error) {
	switch v := request.GetArguments()["points"].(type) {
	case string:
		return protocol.ParsePoints(v)
	case []any:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("points: %w", err)
		}
		var points []protocol.Point
		if err := json.Unmarshal(data, &points); err != nil {
			return nil, fmt.Errorf("points must be objects with numeric x and y: %w", err)
		}
		if len(points) == 0 {
			return nil, fmt.Errorf("at least one point is required")
		}
		return points, nil
	default:
		return nil, fmt.Errorf("points is required")
	}
}
