package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingoftheravens/fliwr.io/internal/mcp"
)

func newMCPServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "mcp-serve",
		Short:  "Start the MCP stdio server",
		Long:   `Runs a Model Context Protocol (MCP) server over stdio exposing whiteboard tools (list_rooms, get_canvas, list_users, draw_stroke, clear_canvas).`,
		Hidden: true, // Not typically called by users directly
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagServer == "" {
				return fmt.Errorf("server URL is required (use --server or .fliwr config)")
			}
			if err := requireRoom(); err != nil {
				return err
			}
			name := flagName
			if name == "" {
				name = "assistant"
			}

			return mcp.Serve(mcp.Config{
				ServerURL: flagServer,
				Room:      flagRoom,
				Name:      name,
			})
		},
	}

	return cmd
}
