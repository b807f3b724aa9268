package server

import (
	"net/http"
	"time"

	"github.com/kingoftheravens/fliwr.io/internal/config"
	"github.com/kingoftheravens/fliwr.io/internal/log"
)

// New creates a configured HTTP server with all routes registered.
func New(cfg *config.Config, store *Store, registry *Registry, router *Router) *http.Server {
	mux := http.NewServeMux()
	h := &Handlers{
		Store:     store,
		Registry:  registry,
		Router:    router,
		WebSocket: cfg.WebSocket,
		StartTime: time.Now(),
	}

	// REST API routes.
	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("GET /api/rooms", h.ListRooms)
	mux.HandleFunc("GET /api/rooms/{room}/history", h.History)
	mux.HandleFunc("GET /api/rooms/{room}/users", h.Users)

	// WebSocket routes. Browsers connect on the root path.
	mux.HandleFunc("GET /ws", h.HandleWS)
	mux.HandleFunc("GET /{$}", h.HandleWS)

	handler := log.HTTPMiddleware(log.L())(corsMiddleware(mux))

	return &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
