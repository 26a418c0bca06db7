package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
)

// roomRegistry is the slice of the registry the transport needs.
type roomRegistry interface {
	CreateRoom(ctx context.Context, name string, isPrivate bool, password string, host *entity.Player) (*entity.Room, error)
	JoinRoom(ctx context.Context, roomID, password string, player *entity.Player) (*entity.Room, error)
	LeaveRoom(ctx context.Context, socketID, reason string) error
	ListRooms(ctx context.Context) ([]entity.RoomListItem, error)
	ToggleReady(ctx context.Context, socketID string) error
	StartGame(ctx context.Context, socketID string) error
	QuickMatch(ctx context.Context, player *entity.Player) error
	RelayMove(ctx context.Context, socketID string, move protocol.MoveEvent) error
	GameOver(ctx context.Context, socketID string, winner gomoku.Cell) error
	RematchRequest(ctx context.Context, socketID string) error
	RematchAccept(ctx context.Context, socketID string) error
	RematchDecline(ctx context.Context, socketID string) error
	Disconnect(ctx context.Context, socketID string) error
}

func (that *Server) handleCreateRoom(ctx context.Context, client *Client, payload json.RawMessage) error {
	var req protocol.CreateRoomRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	room, err := that.registry.CreateRoom(ctx, req.RoomName, req.IsPrivate, req.Password, that.player(client, req.Username))
	if err != nil {
		return err
	}

	that.rememberUsername(ctx, client)
	client.enqueue(protocol.EventRoomCreated, protocol.RoomEvent{Room: room})

	return nil
}

func (that *Server) handleJoinRoom(ctx context.Context, client *Client, payload json.RawMessage) error {
	var req protocol.JoinRoomRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	_, err := that.registry.JoinRoom(ctx, req.RoomID, req.Password, that.player(client, req.Username))
	if err != nil {
		return err
	}

	that.rememberUsername(ctx, client)

	return nil
}

func (that *Server) handleLeaveRoom(ctx context.Context, client *Client, _ json.RawMessage) error {
	return that.registry.LeaveRoom(ctx, client.socketID, "left")
}

func (that *Server) handleGetRoomList(ctx context.Context, client *Client, _ json.RawMessage) error {
	rooms, err := that.registry.ListRooms(ctx)
	if err != nil {
		return err
	}

	client.enqueue(protocol.EventRoomListUpdate, protocol.RoomListEvent{Rooms: rooms})

	return nil
}

func (that *Server) handleToggleReady(ctx context.Context, client *Client, _ json.RawMessage) error {
	return that.registry.ToggleReady(ctx, client.socketID)
}

func (that *Server) handleStartGame(ctx context.Context, client *Client, _ json.RawMessage) error {
	return that.registry.StartGame(ctx, client.socketID)
}

func (that *Server) handleQuickMatch(ctx context.Context, client *Client, payload json.RawMessage) error {
	var req protocol.QuickMatchRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	if err := that.registry.QuickMatch(ctx, that.player(client, req.Username)); err != nil {
		return err
	}

	that.rememberUsername(ctx, client)

	return nil
}

func (that *Server) handleMove(ctx context.Context, client *Client, payload json.RawMessage) error {
	var move protocol.MoveEvent
	if err := json.Unmarshal(payload, &move); err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	return that.registry.RelayMove(ctx, client.socketID, move)
}

func (that *Server) handleGameOver(ctx context.Context, client *Client, payload json.RawMessage) error {
	var event protocol.GameOverEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	return that.registry.GameOver(ctx, client.socketID, event.Winner)
}

func (that *Server) handleRematchRequest(ctx context.Context, client *Client, _ json.RawMessage) error {
	return that.registry.RematchRequest(ctx, client.socketID)
}

func (that *Server) handleRematchAccept(ctx context.Context, client *Client, _ json.RawMessage) error {
	return that.registry.RematchAccept(ctx, client.socketID)
}

func (that *Server) handleRematchDecline(ctx context.Context, client *Client, _ json.RawMessage) error {
	return that.registry.RematchDecline(ctx, client.socketID)
}

// rememberUsername persists the name a player last used, so a reconnect with
// the same session resumes with it.
func (that *Server) rememberUsername(ctx context.Context, client *Client) {
	if client.username == "" {
		return
	}

	identity := &entity.Identity{ID: client.userID, Username: client.username}
	if err := that.identities.CreateOrUpdate(ctx, identity); err != nil {
		that.logger.Error("failed to persist username", "userID", client.userID, "error", err)
	}
}
