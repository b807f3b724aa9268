package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kingoftheravens/fliwr.io/internal/apiclient"
)

var (
	flagServer string
	flagRoom   string
	flagName   string
)

// ProjectConfig is the .fliwr file written by "join".
type ProjectConfig struct {
	Server string `json:"server"`
	Room   string `json:"room"`
	Name   string `json:"name"`
}

const projectConfigName = ".fliwr"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fliwr",
		Short:         "Shared whiteboard server and command-line client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Resolve defaults: flags > env vars > .fliwr config > hardcoded defaults.
	defaultServer := "http://localhost:3000"
	defaultRoom := "default"
	defaultName := ""

	if cfg := loadProjectConfig(); cfg != nil {
		if cfg.Server != "" {
			defaultServer = cfg.Server
		}
		if cfg.Room != "" {
			defaultRoom = cfg.Room
		}
		if cfg.Name != "" {
			defaultName = cfg.Name
		}
	}

	root.PersistentFlags().StringVarP(&flagServer, "server", "s", envOrDefault("FLIWR_SERVER", defaultServer), "server URL")
	root.PersistentFlags().StringVarP(&flagRoom, "room", "r", envOrDefault("FLIWR_ROOM", defaultRoom), "room name")
	root.PersistentFlags().StringVarP(&flagName, "name", "n", envOrDefault("FLIWR_NAME", defaultName), "display name")

	root.AddCommand(
		newServeCmd(),
		newStatusCmd(),
		newRoomsCmd(),
		newHistoryCmd(),
		newUsersCmd(),
		newWatchCmd(),
		newDrawCmd(),
		newClearCmd(),
		newDigestCmd(),
		newJoinCmd(),
		newMCPServeCmd(),
	)

	return root
}

// Execute runs the CLI.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func api() *apiclient.Client {
	return apiclient.New(flagServer)
}

func requireRoom() error {
	if flagRoom == "" {
		return fmt.Errorf("room is required (use -r or FLIWR_ROOM)")
	}
	return nil
}

// loadProjectConfig looks for .fliwr in the working directory and its parents.
func loadProjectConfig() *ProjectConfig {
	dir, err := os.Getwd()
	if err != nil {
		return nil
	}

	for {
		data, err := os.ReadFile(filepath.Join(dir, projectConfigName))
		if err == nil {
			var cfg ProjectConfig
			if json.Unmarshal(data, &cfg) == nil {
				return &cfg
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}
