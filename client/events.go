package client

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
	"github.com/rocketscienceinc/gomoku-backend/internal/session"
)

func (that *Adapter) onRoomCreated(payload json.RawMessage) error {
	var event protocol.RoomEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	that.mutex.Lock()
	defer that.mutex.Unlock()

	that.roomID = event.Room.ID
	that.engine.Reset()
	that.session.SelectMode(session.Online(event.Room.ID))

	return nil
}

func (that *Adapter) onAssigned(payload json.RawMessage) error {
	var event protocol.AssignedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	that.mutex.Lock()
	defer that.mutex.Unlock()

	// Quick match assigns a room the client never asked to join.
	if that.session.State() != session.StateWaitingForRole {
		that.engine.Reset()
		that.session.SelectMode(session.Online(event.RoomID))
	}

	that.roomID = event.RoomID

	if err := that.session.AssignRole(event.Side); err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}

	return nil
}

func (that *Adapter) onGameStarted(payload json.RawMessage) error {
	var event protocol.RoomEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	that.push(Notification{Event: protocol.EventGameStarted})

	return nil
}

// onMoved applies the opponent's relayed move. Sequence numbers catch
// transport-level trouble the dumb relay cannot: a duplicate is dropped
// silently, a gap means the boards have diverged and play must not continue.
func (that *Adapter) onMoved(payload json.RawMessage) error {
	var event protocol.MoveEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	that.mutex.Lock()
	defer that.mutex.Unlock()

	seen := len(that.engine.History())
	if event.Seq <= seen {
		return nil
	}

	if event.Seq > seen+1 {
		that.session.Finish()
		return fmt.Errorf("%w: got seq %d, expected %d", apperror.ErrDesync, event.Seq, seen+1)
	}

	if err := that.engine.ApplyMove(event.Move()); err != nil {
		that.session.Finish()
		return fmt.Errorf("failed to apply relayed move: %w", err)
	}

	if that.engine.CheckWin(event.Move().Point(), event.Cell) {
		that.session.Finish()
		that.push(Notification{Event: protocol.EventGameOver, Winner: event.Cell})
		return nil
	}

	that.session.SwitchTurn()
	that.push(Notification{Event: protocol.EventMoved})

	return nil
}

func (that *Adapter) onGameOver(payload json.RawMessage) error {
	var event protocol.GameOverEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	that.mutex.Lock()
	if that.session.State() != session.StateEnded {
		that.session.Finish()
	}
	that.mutex.Unlock()

	that.push(Notification{Event: protocol.EventGameOver, Winner: event.Winner})

	return nil
}

// onGameAborted forces the session into its terminal state and surfaces who
// caused it; the player must not be left staring at a frozen board.
func (that *Adapter) onGameAborted(payload json.RawMessage) error {
	var event protocol.AbortedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	that.mutex.Lock()
	that.session.Finish()
	that.mutex.Unlock()

	that.push(Notification{
		Event:  protocol.EventGameAborted,
		Reason: fmt.Sprintf("%s %s", event.By, event.Reason),
	})

	return nil
}

// onRematchStart rebuilds the board and waits for the fresh side assignment,
// which arrives as its own event.
func (that *Adapter) onRematchStart(payload json.RawMessage) error {
	var event protocol.RoomEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	that.mutex.Lock()
	that.engine.Reset()
	that.session.Restart()

	side := that.sideOf(event)
	if side == gomoku.CellEmpty {
		side = that.session.Mode().MySide
	}
	if side != gomoku.CellEmpty {
		_ = that.session.AssignRole(side)
	}
	that.mutex.Unlock()

	that.push(Notification{Event: protocol.EventRematchStart})

	return nil
}

// sideOf digs this client's side out of the room snapshot by username. The
// assigned event normally covers this; the snapshot is the fallback when it
// was delivered before the restart.
func (that *Adapter) sideOf(event protocol.RoomEvent) gomoku.Cell {
	if event.Room == nil || that.username == "" {
		return gomoku.CellEmpty
	}

	for _, player := range event.Room.Players {
		if player.Username == that.username {
			return player.Side
		}
	}

	return gomoku.CellEmpty
}
