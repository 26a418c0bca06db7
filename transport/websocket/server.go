package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/pkg"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
)

type handlerFunc func(ctx context.Context, client *Client, payload json.RawMessage) error

// Server upgrades connections, tracks clients by socket ID, and routes
// incoming actions to the room registry. It is the registry's Sender: every
// event the registry emits goes out through the client map here.
type Server struct {
	logger     *slog.Logger
	registry   roomRegistry
	identities repository.IdentityRepository
	upgrader   websocket.Upgrader

	handlers map[string]handlerFunc

	clientsMutex sync.RWMutex
	clients      map[string]*Client
}

// New builds the server without a registry: the registry needs the server as
// its Sender, so the two are tied together with Bind during wiring.
func New(logger *slog.Logger, identities repository.IdentityRepository) *Server {
	server := &Server{
		logger:     logger.With("component", "websocket"),
		identities: identities,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  maxMessageSize,
			WriteBufferSize: maxMessageSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		handlers: make(map[string]handlerFunc),
		clients:  make(map[string]*Client),
	}

	server.handlers[protocol.ActionCreateRoom] = server.handleCreateRoom
	server.handlers[protocol.ActionJoinRoom] = server.handleJoinRoom
	server.handlers[protocol.ActionLeaveRoom] = server.handleLeaveRoom
	server.handlers[protocol.ActionGetRoomList] = server.handleGetRoomList
	server.handlers[protocol.ActionToggleReady] = server.handleToggleReady
	server.handlers[protocol.ActionStartGame] = server.handleStartGame
	server.handlers[protocol.ActionQuickMatch] = server.handleQuickMatch
	server.handlers[protocol.ActionMove] = server.handleMove
	server.handlers[protocol.ActionGameOver] = server.handleGameOver
	server.handlers[protocol.ActionRematchRequest] = server.handleRematchRequest
	server.handlers[protocol.ActionRematchAccept] = server.handleRematchAccept
	server.handlers[protocol.ActionRematchDecline] = server.handleRematchDecline

	return server
}

// Bind attaches the room registry. Must happen before the first connection.
func (that *Server) Bind(reg roomRegistry) {
	that.registry = reg
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	router := chi.NewRouter()
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     router,
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

// Handler exposes the upgrade endpoint for embedding in another router or an
// httptest server.
func (that *Server) Handler(ctx context.Context) http.Handler {
	router := chi.NewRouter()
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	return router
}

func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	identity, err := that.resolveIdentity(ctx, r.URL.Query().Get("session"))
	if err != nil {
		log.Error("failed to resolve identity", "error", err)
		conn.Close()
		return
	}

	client := newClient(pkg.GenerateNewSessionID(), identity.ID, conn)
	client.username = identity.Username

	that.clientsMutex.Lock()
	that.clients[client.socketID] = client
	that.clientsMutex.Unlock()

	log.Info("connection established", "socketID", client.socketID, "userID", client.userID)

	go client.writePump(that.logger)

	client.enqueue(protocol.EventConnected, protocol.ConnectedEvent{
		SocketID: client.socketID,
		UserID:   client.userID,
		Username: client.username,
	})

	that.readLoop(ctx, client)
}

// readLoop processes messages until the connection drops, then runs the one
// atomic cleanup path: client map, matchmaking slot, room membership.
func (that *Server) readLoop(ctx context.Context, client *Client) {
	log := that.logger.With("method", "readLoop", "socketID", client.socketID)

	defer func() {
		that.clientsMutex.Lock()
		delete(that.clients, client.socketID)
		that.clientsMutex.Unlock()

		client.close()

		if err := that.registry.Disconnect(context.WithoutCancel(ctx), client.socketID); err != nil {
			log.Error("failed to clean up after disconnect", "error", err)
		}

		log.Info("connection closed")
	}()

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("unexpected close", "error", err)
			}
			return
		}

		var message protocol.Message
		if err = json.Unmarshal(raw, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)
			that.sendError(client, fmt.Sprintf("unknown action: %s", message.Action))
			continue
		}

		if err = handler(ctx, client, message.Payload); err != nil {
			log.Error("failed to process message", "action", message.Action, "error", err)
			that.sendError(client, err.Error())
		}
	}
}

// ToSocket implements registry.Sender.
func (that *Server) ToSocket(socketID, action string, payload any) {
	that.clientsMutex.RLock()
	client, ok := that.clients[socketID]
	that.clientsMutex.RUnlock()

	if !ok {
		return
	}

	if !client.enqueue(action, payload) {
		that.logger.Warn("dropped event for slow client", "socketID", socketID, "action", action)
	}
}

// Broadcast implements registry.Sender.
func (that *Server) Broadcast(action string, payload any) {
	that.clientsMutex.RLock()
	defer that.clientsMutex.RUnlock()

	for _, client := range that.clients {
		client.enqueue(action, payload)
	}
}

func (that *Server) sendError(client *Client, message string) {
	client.enqueue(protocol.EventError, protocol.ErrorEvent{Message: message})
}

// resolveIdentity loads the durable player record for a session, creating a
// fresh one when the session is unknown or absent.
func (that *Server) resolveIdentity(ctx context.Context, sessionID string) (*entity.Identity, error) {
	if sessionID != "" {
		identity, err := that.identities.GetByID(ctx, sessionID)
		if err == nil {
			return identity, nil
		}

		if !errors.Is(err, repository.ErrIdentityNotFound) {
			return nil, fmt.Errorf("failed to get identity: %w", err)
		}
	}

	identity := &entity.Identity{ID: pkg.GenerateNewSessionID()}
	if sessionID != "" {
		identity.ID = sessionID
	}

	if err := that.identities.CreateOrUpdate(ctx, identity); err != nil {
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	return identity, nil
}

func (that *Server) player(client *Client, username string) *entity.Player {
	if username != "" {
		client.username = username
	}

	return &entity.Player{
		SocketID: client.socketID,
		UserID:   client.userID,
		Username: client.username,
	}
}
