package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

type roomLister interface {
	ListRooms(ctx context.Context) ([]entity.RoomListItem, error)
}

// Server is the small HTTP side of the backend: health check and a read-only
// room browser for clients that poll instead of holding a socket open.
type Server struct {
	logger *slog.Logger
	rooms  roomLister
	router *chi.Mux
}

func New(logger *slog.Logger, rooms roomLister) *Server {
	server := &Server{
		logger: logger.With("component", "rest"),
		rooms:  rooms,
		router: chi.NewRouter(),
	}

	server.router.Use(middleware.RequestID)
	server.router.Use(middleware.Recoverer)
	server.router.Use(middleware.Timeout(10 * time.Second))

	server.router.Get("/ping", server.handlePing)
	server.router.Get("/rooms", server.handleRooms)

	return server
}

// Start - starts the HTTP server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Handler exposes the router for tests.
func (that *Server) Handler() http.Handler {
	return that.router
}

func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

func (that *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleRooms")

	items, err := that.rooms.ListRooms(r.Context())
	if err != nil {
		log.Error("failed to list rooms", "error", err)
		http.Error(w, "failed to list rooms", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(map[string]any{"rooms": items}); err != nil {
		log.Error("failed to encode response", "error", err)
	}
}
