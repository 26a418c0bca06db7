package registry

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
)

// StartGame begins the match on explicit host action once the room is full
// and every guest is ready.
func (that *Registry) StartGame(ctx context.Context, socketID string) error {
	var opErr error

	err := that.do(ctx, func() {
		room, _, findErr := that.findBySocket(socketID)
		if findErr != nil {
			opErr = findErr
			return
		}

		if room.HostSocketID != socketID {
			opErr = apperror.ErrNotHost
			return
		}

		if !room.IsFull() {
			opErr = fmt.Errorf("%w: room %s", apperror.ErrPlayersNotReady, room.ID)
			return
		}

		if !room.GuestsReady() {
			opErr = fmt.Errorf("%w: room %s", apperror.ErrPlayersNotReady, room.ID)
			return
		}

		that.startGameLocked(room)
	})
	if err != nil {
		return err
	}
	if opErr != nil {
		return opErr
	}

	that.publishRoomList(ctx)

	return nil
}

// startGameLocked assigns sides and announces the start. Each player gets
// their side individually; the full room snapshot goes to everyone after.
func (that *Registry) startGameLocked(room *entity.Room) {
	room.AssignSides()
	room.Status = entity.StatusPlaying

	for _, player := range room.Players {
		that.sender.ToSocket(player.SocketID, protocol.EventAssigned, protocol.AssignedEvent{
			RoomID: room.ID,
			Side:   player.Side,
		})
	}

	that.emitToRoom(room, protocol.EventGameStarted, protocol.RoomEvent{Room: room.Clone()})

	that.logger.Info("game started", "roomID", room.ID)
}

// RelayMove forwards a move to every other socket in the room, untouched.
// The relay does not validate the move against the rules; both clients run
// their own engine and the sender is trusted.
func (that *Registry) RelayMove(ctx context.Context, socketID string, move protocol.MoveEvent) error {
	var opErr error

	err := that.do(ctx, func() {
		room, _, findErr := that.findBySocket(socketID)
		if findErr != nil {
			opErr = findErr
			return
		}

		if !room.IsPlaying() {
			opErr = fmt.Errorf("%w: room %s", apperror.ErrRoomNotPlaying, room.ID)
			return
		}

		move.RoomID = room.ID
		for _, other := range room.OpponentsOf(socketID) {
			that.sender.ToSocket(other.SocketID, protocol.EventMoved, move)
		}
	})
	if err != nil {
		return err
	}

	return opErr
}

// GameOver records the result reported by a client: the room finishes, the
// stats service hears about it (fire and forget), and matchmade rooms are
// deleted since there is no lobby to return to.
func (that *Registry) GameOver(ctx context.Context, socketID string, winner gomoku.Cell) error {
	var opErr error
	var winnerUserID, loserUserID string
	var removed bool

	err := that.do(ctx, func() {
		room, _, findErr := that.findBySocket(socketID)
		if findErr != nil {
			opErr = findErr
			return
		}

		if !room.IsPlaying() {
			opErr = fmt.Errorf("%w: room %s", apperror.ErrRoomNotPlaying, room.ID)
			return
		}

		room.Status = entity.StatusFinished

		for _, player := range room.Players {
			if player.Side == winner {
				winnerUserID = player.UserID
			} else {
				loserUserID = player.UserID
			}
		}

		that.emitToRoom(room, protocol.EventGameOver, protocol.GameOverEvent{
			RoomID: room.ID,
			Winner: winner,
		})

		if room.Matchmade {
			for _, player := range room.Players {
				delete(that.socketRoom, player.SocketID)
			}
			delete(that.rooms, room.ID)
			removed = true
		}
	})
	if err != nil {
		return err
	}
	if opErr != nil {
		return opErr
	}

	if winnerUserID != "" && loserUserID != "" {
		go that.stats.RecordResult(context.WithoutCancel(ctx), winnerUserID, loserUserID)
	}

	if removed {
		that.logger.Info("matchmade room removed after game over")
	}

	that.publishRoomList(ctx)

	return nil
}

// RematchRequest opens a rematch vote; the requester counts as having
// accepted their own proposal.
func (that *Registry) RematchRequest(ctx context.Context, socketID string) error {
	return that.rematchVote(ctx, socketID, true)
}

// RematchAccept registers consent. Once every player in the room has voted
// yes, the room resets and a fresh match starts.
func (that *Registry) RematchAccept(ctx context.Context, socketID string) error {
	return that.rematchVote(ctx, socketID, true)
}

// RematchDecline vetoes the rematch: the vote map clears immediately and the
// room hears about the decline.
func (that *Registry) RematchDecline(ctx context.Context, socketID string) error {
	var opErr error

	err := that.do(ctx, func() {
		room, player, findErr := that.findBySocket(socketID)
		if findErr != nil {
			opErr = findErr
			return
		}

		room.RematchRequests = make(map[string]bool)

		that.emitToRoom(room, protocol.EventRematchVote, protocol.RematchVoteEvent{
			RoomID:   room.ID,
			SocketID: player.SocketID,
			Accepted: false,
		})
	})
	if err != nil {
		return err
	}

	return opErr
}

func (that *Registry) rematchVote(ctx context.Context, socketID string, accepted bool) error {
	var opErr error
	var started bool

	err := that.do(ctx, func() {
		room, player, findErr := that.findBySocket(socketID)
		if findErr != nil {
			opErr = findErr
			return
		}

		if !room.IsFinished() {
			opErr = fmt.Errorf("%w: room %s", apperror.ErrGameNotFinished, room.ID)
			return
		}

		room.RematchRequests[socketID] = accepted

		that.emitToRoom(room, protocol.EventRematchVote, protocol.RematchVoteEvent{
			RoomID:   room.ID,
			SocketID: player.SocketID,
			Accepted: accepted,
		})

		if !room.RematchAgreed() {
			return
		}

		room.ResetForRematch()
		that.startGameLocked(room)
		that.emitToRoom(room, protocol.EventRematchStart, protocol.RoomEvent{Room: room.Clone()})
		started = true
	})
	if err != nil {
		return err
	}
	if opErr != nil {
		return opErr
	}

	if started {
		that.publishRoomList(ctx)
	}

	return nil
}
