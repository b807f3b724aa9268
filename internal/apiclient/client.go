// Package apiclient reads the whiteboard server's HTTP inspection API.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kingoftheravens/fliwr.io/internal/protocol"
)

// Client talks to the whiteboard server REST API.
type Client struct {
	BaseURL string
	client  *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Health fetches GET /api/health.
func (c *Client) Health(ctx context.Context) (*protocol.HealthResponse, error) {
	var health protocol.HealthResponse
	if err := c.get(ctx, "/api/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Rooms fetches GET /api/rooms.
func (c *Client) Rooms(ctx context.Context) (*protocol.RoomList, error) {
	var list protocol.RoomList
	if err := c.get(ctx, "/api/rooms", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// History fetches a room's event log.
func (c *Client) History(ctx context.Context, room string) (*protocol.HistoryResponse, error) {
	var hist protocol.HistoryResponse
	if err := c.get(ctx, roomPath(room, "history"), &hist); err != nil {
		return nil, err
	}
	return &hist, nil
}

// Users fetches a room's presence list.
func (c *Client) Users(ctx context.Context, room string) (*protocol.UserList, error) {
	var list protocol.UserList
	if err := c.get(ctx, roomPath(room, "users"), &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func roomPath(room, leaf string) string {
	return fmt.Sprintf("/api/rooms/%s/%s", url.PathEscape(room), leaf)
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	u := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
