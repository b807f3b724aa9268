package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/kingoftheravens/fliwr.io/internal/config"
	"github.com/kingoftheravens/fliwr.io/internal/log"
)

const shutdownTimeout = 5 * time.Second

// Run builds the registry, store and router, serves HTTP on the configured
// address and blocks until ctx is cancelled or the listener fails.
func Run(ctx context.Context, cfg *config.Config) error {
	ln, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return serve(ctx, cfg, ln)
}

func serve(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	store := NewStore(cfg.Room.HistoryCap)
	registry := NewRegistry()
	router := NewRouter(registry, store, cfg.Room.Default)

	routerCtx, stopRouter := context.WithCancel(context.Background())
	defer stopRouter()
	go router.Run(routerCtx)

	srv := New(cfg, store, registry, router)
	l := log.L()

	errCh := make(chan error, 1)
	go func() {
		l.Info().Str("addr", ln.Addr().String()).Int("history_cap", cfg.Room.HistoryCap).Msg("fliwr server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	l.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)

	// Shutdown does not track hijacked connections.
	n := registry.CloseAll()
	l.Info().Int("connections", n).Msg("closed websocket clients")

	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	l.Info().Msg("server stopped")
	return nil
}
