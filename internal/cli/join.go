package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingoftheravens/fliwr.io/internal/apiclient"
)

func newJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <url> [room] [name]",
		Short: "Remember a whiteboard server for this directory",
		Long: `Verifies the server is reachable and writes a .fliwr file in the current
directory so later commands run from here (or below) need no flags.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ProjectConfig{Server: strings.TrimRight(args[0], "/"), Room: "default"}
			if len(args) >= 2 {
				cfg.Room = args[1]
			}
			if len(args) >= 3 {
				cfg.Name = args[2]
			}

			health, err := apiclient.New(cfg.Server).Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("server unreachable: %w", err)
			}

			if err := writeProjectConfig(projectConfigName, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "joined %s (up %s, %d rooms); wrote %s\n",
				cfg.Server, health.Uptime, health.Rooms, projectConfigName)
			return nil
		},
	}
}

func writeProjectConfig(path string, cfg ProjectConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
