package cli

import (
	"github.com/spf13/cobra"

	"github.com/kingoftheravens/fliwr.io/internal/config"
	"github.com/kingoftheravens/fliwr.io/internal/log"
	"github.com/kingoftheravens/fliwr.io/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		port       int
		historyCap int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the whiteboard server",
		Long: `Runs the whiteboard server. Settings come from .env, config/config.yaml and
the environment (PORT, HISTORY_CAP, DEFAULT_ROOM, LOG_LEVEL, ...); the flags
below override them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("history-cap") {
				cfg.Room.HistoryCap = historyCap
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log.Init(cfg.Log)
			return server.Run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3000, "listen port")
	cmd.Flags().IntVar(&historyCap, "history-cap", 2000, "max events kept per room")

	return cmd
}
