package protocol

import (
	"encoding/json"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
)

// Message is one frame on the client-server channel.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client to server actions, namespaced by game type.
const (
	ActionCreateRoom     = "gomoku:createRoom"
	ActionJoinRoom       = "gomoku:joinRoom"
	ActionLeaveRoom      = "gomoku:leaveRoom"
	ActionGetRoomList    = "gomoku:getRoomList"
	ActionToggleReady    = "gomoku:toggleReady"
	ActionStartGame      = "gomoku:startGame"
	ActionQuickMatch     = "gomoku:quickMatch"
	ActionMove           = "gomoku:move"
	ActionGameOver       = "gomoku:gameOver"
	ActionRematchRequest = "gomoku:rematchRequest"
	ActionRematchAccept  = "gomoku:rematchAccept"
	ActionRematchDecline = "gomoku:rematchDecline"
)

// Server to client events.
const (
	EventConnected      = "gomoku:connected"
	EventRoomCreated    = "gomoku:roomCreated"
	EventRoomListUpdate = "gomoku:roomListUpdate"
	EventPlayerJoined   = "gomoku:playerJoined"
	EventPlayerLeft     = "gomoku:playerLeft"
	EventPlayerReady    = "gomoku:playerReady"
	EventHostChanged    = "gomoku:hostChanged"
	EventWaiting        = "gomoku:waiting"
	EventAssigned       = "gomoku:assigned"
	EventGameStarted    = "gomoku:gameStarted"
	EventMoved          = "gomoku:moved"
	EventGameOver       = "gomoku:gameOver"
	EventGameAborted    = "gomoku:gameAborted"
	EventRematchVote    = "gomoku:rematchVote"
	EventRematchStart   = "gomoku:rematchStart"
	EventError          = "gomoku:error"
)

// ConnectedEvent tells a freshly upgraded client its socket and durable
// identity so it can resume the same identity across reconnects.
type ConnectedEvent struct {
	SocketID string `json:"socketId"`
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
}

type CreateRoomRequest struct {
	RoomName  string `json:"roomName"`
	IsPrivate bool   `json:"isPrivate"`
	Password  string `json:"password,omitempty"`
	Username  string `json:"username"`
}

type JoinRoomRequest struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password,omitempty"`
	Username string `json:"username"`
}

type QuickMatchRequest struct {
	Username string `json:"username"`
}

// MoveEvent is the relayed move. Seq is not part of the minimum protocol but
// is carried so receivers can spot duplicate or reordered delivery.
type MoveEvent struct {
	RoomID string      `json:"roomId"`
	Row    int         `json:"row"`
	Col    int         `json:"col"`
	Cell   gomoku.Cell `json:"cell"`
	Seq    int         `json:"seq"`
}

func (that MoveEvent) Move() gomoku.Move {
	return gomoku.Move{Row: that.Row, Col: that.Col, Cell: that.Cell, Seq: that.Seq}
}

type GameOverEvent struct {
	RoomID string      `json:"roomId"`
	Winner gomoku.Cell `json:"winner"`
}

type AssignedEvent struct {
	RoomID string      `json:"roomId"`
	Side   gomoku.Cell `json:"side"`
}

type RoomEvent struct {
	Room *entity.Room `json:"room"`
}

type PlayerEvent struct {
	RoomID string         `json:"roomId"`
	Player *entity.Player `json:"player"`
	Room   *entity.Room   `json:"room,omitempty"`
}

type HostChangedEvent struct {
	RoomID       string `json:"roomId"`
	HostSocketID string `json:"hostSocketId"`
}

type AbortedEvent struct {
	RoomID string `json:"roomId"`
	By     string `json:"by"`
	Reason string `json:"reason"`
}

type RematchVoteEvent struct {
	RoomID   string `json:"roomId"`
	SocketID string `json:"socketId"`
	Accepted bool   `json:"accepted"`
}

type RoomListEvent struct {
	Rooms []entity.RoomListItem `json:"rooms"`
}

type WaitingEvent struct {
	Queued bool `json:"queued"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}

func MustMarshal(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}

	return raw
}
