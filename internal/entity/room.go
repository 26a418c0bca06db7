package entity

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
)

const (
	StatusWaiting  = "waiting"
	StatusPlaying  = "playing"
	StatusFinished = "finished"
)

// DefaultMaxPlayers - gomoku rooms hold exactly two players.
const DefaultMaxPlayers = 2

// Player is the server-side record of one connected participant in a room.
// Side is assigned at game start, not at join time.
type Player struct {
	SocketID string      `json:"socketId"`
	UserID   string      `json:"userId"`
	Username string      `json:"username"`
	IsReady  bool        `json:"isReady"`
	Side     gomoku.Cell `json:"side,omitempty"`
}

// Room lives only in the server's in-memory registry; it is created on
// explicit "create room" or matchmaking pairing and destroyed when its player
// list becomes empty. While non-empty, exactly one player is the host.
type Room struct {
	ID              string          `json:"roomId"`
	Name            string          `json:"roomName"`
	HostSocketID    string          `json:"hostSocketId"`
	Players         []*Player       `json:"players"`
	MaxPlayers      int             `json:"maxPlayers"`
	IsPrivate       bool            `json:"isPrivate"`
	PasswordHash    string          `json:"-"`
	Status          string          `json:"status"`
	RematchRequests map[string]bool `json:"-"`
	Matchmade       bool            `json:"-"`
}

// Clone returns an independent copy of the player record.
func (that *Player) Clone() *Player {
	copied := *that
	return &copied
}

func NewRoom(id, name string, isPrivate bool, passwordHash string) *Room {
	return &Room{
		ID:              id,
		Name:            name,
		MaxPlayers:      DefaultMaxPlayers,
		IsPrivate:       isPrivate,
		PasswordHash:    passwordHash,
		Status:          StatusWaiting,
		Players:         make([]*Player, 0, DefaultMaxPlayers),
		RematchRequests: make(map[string]bool),
	}
}

// Clone deep-copies the room and its player list. The registry hands clones,
// never live records, to anything running outside its own goroutine.
func (that *Room) Clone() *Room {
	copied := *that

	copied.Players = make([]*Player, 0, len(that.Players))
	for _, player := range that.Players {
		copied.Players = append(copied.Players, player.Clone())
	}

	copied.RematchRequests = nil

	return &copied
}

func (that *Room) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Room) IsPlaying() bool {
	return that.Status == StatusPlaying
}

func (that *Room) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Room) IsFull() bool {
	return len(that.Players) >= that.MaxPlayers
}

func (that *Room) IsEmpty() bool {
	return len(that.Players) == 0
}

// AddPlayer appends a player, making them host if the room was empty.
func (that *Room) AddPlayer(player *Player) error {
	if that.IsFull() {
		return fmt.Errorf("%w: room %s", apperror.ErrRoomFull, that.ID)
	}

	if that.PlayerBySocket(player.SocketID) != nil {
		return fmt.Errorf("%w: room %s", apperror.ErrAlreadyJoined, that.ID)
	}

	that.Players = append(that.Players, player)
	if that.HostSocketID == "" {
		that.HostSocketID = player.SocketID
	}

	return nil
}

// RemovePlayer takes a player out and, if they were host, promotes the next
// remaining player immediately so a non-empty room always has a host.
func (that *Room) RemovePlayer(socketID string) (*Player, bool) {
	for i, player := range that.Players {
		if player.SocketID != socketID {
			continue
		}

		that.Players = append(that.Players[:i], that.Players[i+1:]...)
		delete(that.RematchRequests, socketID)

		if that.HostSocketID == socketID {
			that.HostSocketID = ""
			if len(that.Players) > 0 {
				that.HostSocketID = that.Players[0].SocketID
			}
		}

		return player, true
	}

	return nil, false
}

func (that *Room) PlayerBySocket(socketID string) *Player {
	for _, player := range that.Players {
		if player.SocketID == socketID {
			return player
		}
	}

	return nil
}

func (that *Room) Host() *Player {
	return that.PlayerBySocket(that.HostSocketID)
}

// GuestsReady reports whether every non-host player toggled ready.
func (that *Room) GuestsReady() bool {
	for _, player := range that.Players {
		if player.SocketID == that.HostSocketID {
			continue
		}

		if !player.IsReady {
			return false
		}
	}

	return true
}

// AssignSides gives the host black (the restricted side) and the guest white.
func (that *Room) AssignSides() {
	for _, player := range that.Players {
		if player.SocketID == that.HostSocketID {
			player.Side = gomoku.CellBlack
		} else {
			player.Side = gomoku.CellWhite
		}
	}
}

// OpponentsOf returns every player except the given socket.
func (that *Room) OpponentsOf(socketID string) []*Player {
	others := make([]*Player, 0, len(that.Players))
	for _, player := range that.Players {
		if player.SocketID != socketID {
			others = append(others, player)
		}
	}

	return others
}

// RematchAgreed reports whether every player other than the requester has
// accepted. The requester's own entry marks who asked.
func (that *Room) RematchAgreed() bool {
	if len(that.RematchRequests) == 0 {
		return false
	}

	for _, player := range that.Players {
		if !that.RematchRequests[player.SocketID] {
			return false
		}
	}

	return true
}

// ResetForRematch rebuilds the room's match state from scratch: waiting
// status, cleared sides and ready flags, empty rematch votes.
func (that *Room) ResetForRematch() {
	that.Status = StatusWaiting
	that.RematchRequests = make(map[string]bool)

	for _, player := range that.Players {
		player.Side = gomoku.CellEmpty
		player.IsReady = false
	}
}
