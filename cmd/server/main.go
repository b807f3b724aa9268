package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kingoftheravens/fliwr.io/internal/config"
	"github.com/kingoftheravens/fliwr.io/internal/log"
	"github.com/kingoftheravens/fliwr.io/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := log.L()
		l.Fatal().Err(err).Msg("load config")
	}
	log.Init(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg); err != nil {
		l := log.L()
		l.Fatal().Err(err).Msg("server exited")
	}
}
