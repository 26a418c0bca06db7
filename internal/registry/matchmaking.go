package registry

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
)

// QuickMatch pairs the requester with the waiting player, or parks them in
// the single waiting slot. Pairing creates a brand-new room: the first-waiting
// player hosts and therefore plays black. The match starts immediately, no
// ready toggling involved.
func (that *Registry) QuickMatch(ctx context.Context, player *entity.Player) error {
	if player.Username == "" {
		return apperror.ErrUsernameMissing
	}

	var opErr error
	var pairedID string

	err := that.do(ctx, func() {
		if that.waiting != nil && that.waiting.SocketID == player.SocketID {
			opErr = apperror.ErrAlreadyQueued
			return
		}

		if roomID, ok := that.socketRoom[player.SocketID]; ok {
			opErr = fmt.Errorf("%w: room %s", apperror.ErrAlreadyJoined, roomID)
			return
		}

		if that.waiting == nil {
			that.waiting = player
			that.sender.ToSocket(player.SocketID, protocol.EventWaiting, protocol.WaitingEvent{Queued: true})
			return
		}

		first := that.waiting
		that.waiting = nil

		room := entity.NewRoom(that.newRoomID(), fmt.Sprintf("quick match: %s vs %s", first.Username, player.Username), false, "")
		room.Matchmade = true

		if opErr = room.AddPlayer(first); opErr != nil {
			return
		}
		if opErr = room.AddPlayer(player); opErr != nil {
			return
		}

		that.rooms[room.ID] = room
		that.socketRoom[first.SocketID] = room.ID
		that.socketRoom[player.SocketID] = room.ID

		that.startGameLocked(room)
		pairedID = room.ID
	})
	if err != nil {
		return err
	}
	if opErr != nil {
		return opErr
	}

	if pairedID != "" {
		that.logger.Info("quick match paired", "roomID", pairedID)
		that.publishRoomList(ctx)
	}

	return nil
}
