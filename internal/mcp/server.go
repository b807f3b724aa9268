package mcp

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kingoftheravens/fliwr.io/internal/apiclient"
)

// Config holds the configuration for the MCP server.
type Config struct {
	ServerURL string
	Room      string
	Name      string
}

// NewServer builds the MCP server with every whiteboard tool registered.
func NewServer(cfg Config) *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer(
		"fliwr",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
	)
	registerTools(srv, newBoard(cfg, apiclient.New(cfg.ServerURL)))
	return srv
}

// Serve starts the MCP stdio server. It blocks until stdin is closed or a signal is received.
func Serve(cfg Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stdioSrv := mcpserver.NewStdioServer(NewServer(cfg))
	return stdioSrv.Listen(ctx, os.Stdin, os.Stdout)
}
