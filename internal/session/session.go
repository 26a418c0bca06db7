package session

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
)

// State is where the session sits in its lifecycle.
type State int

const (
	StateMenu State = iota
	StateModeSelected
	StateWaitingForRole
	StatePlaying
	StateEnded
)

func (that State) String() string {
	switch that {
	case StateMenu:
		return "menu"
	case StateModeSelected:
		return "mode-selected"
	case StateWaitingForRole:
		return "waiting-for-role"
	case StatePlaying:
		return "playing"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// ModeKind tags the play mode. Online carries its room and side in Mode, so
// every decision point switches on one value instead of juggling flags.
type ModeKind int

const (
	ModeSingle ModeKind = iota
	ModeLocal
	ModeOnline
)

// Mode is the tagged play-mode variant.
type Mode struct {
	Kind   ModeKind
	RoomID string
	MySide gomoku.Cell
}

func Single() Mode { return Mode{Kind: ModeSingle, MySide: gomoku.CellBlack} }
func Local() Mode  { return Mode{Kind: ModeLocal} }

func Online(roomID string) Mode {
	return Mode{Kind: ModeOnline, RoomID: roomID}
}

var (
	ErrNotPlaying    = errors.New("session is not in a playing state")
	ErrBotThinking   = errors.New("bot move is still pending")
	ErrAlreadyEnded  = errors.New("session has ended")
	ErrRoleNotOnline = errors.New("role assignment only applies to online mode")
	ErrNotYourTurn   = errors.New("it's not your turn")
)

// Session is the per-client state machine gating input for one match.
// Exactly one live Session exists per active match on a given client.
type Session struct {
	state       State
	mode        Mode
	currentTurn gomoku.Cell
	botThinking bool
}

func New() *Session {
	return &Session{state: StateMenu}
}

func (that *Session) State() State {
	return that.state
}

func (that *Session) Mode() Mode {
	return that.mode
}

func (that *Session) CurrentTurn() gomoku.Cell {
	return that.currentTurn
}

// SelectMode leaves the menu. Single and local games start immediately; online
// waits for the server to assign a side.
func (that *Session) SelectMode(mode Mode) {
	that.mode = mode
	that.currentTurn = gomoku.CellBlack
	that.botThinking = false

	switch mode.Kind {
	case ModeOnline:
		that.state = StateWaitingForRole
	default:
		that.state = StatePlaying
	}
}

// AssignRole delivers the side picked by the server and unblocks play.
func (that *Session) AssignRole(side gomoku.Cell) error {
	if that.mode.Kind != ModeOnline {
		return ErrRoleNotOnline
	}

	if that.state != StateWaitingForRole {
		return fmt.Errorf("%w: state %s", ErrNotPlaying, that.state)
	}

	that.mode.MySide = side
	that.state = StatePlaying

	return nil
}

// CanPlace reports whether a local input for the given side is accepted right
// now. Relayed opponent moves bypass this and go straight to the engine.
func (that *Session) CanPlace(side gomoku.Cell) error {
	switch that.state {
	case StateEnded:
		return ErrAlreadyEnded
	case StatePlaying:
	default:
		return fmt.Errorf("%w: state %s", ErrNotPlaying, that.state)
	}

	if that.botThinking {
		return ErrBotThinking
	}

	if side != that.currentTurn {
		return ErrNotYourTurn
	}

	if that.mode.Kind == ModeOnline && side != that.mode.MySide {
		return ErrNotYourTurn
	}

	if that.mode.Kind == ModeSingle && side != that.mode.MySide {
		return ErrNotYourTurn
	}

	return nil
}

// SwitchTurn alternates the side to move after a successful placement.
func (that *Session) SwitchTurn() {
	that.currentTurn = that.currentTurn.Opponent()
}

// SetBotThinking gates input while the heuristic runs.
func (that *Session) SetBotThinking(thinking bool) {
	that.botThinking = thinking
}

// Finish moves the session to its terminal state; all input is rejected until
// a restart or rematch.
func (that *Session) Finish() {
	that.state = StateEnded
}

// Restart re-enters the match with the same mode. Online sessions wait for a
// fresh role assignment; everything else starts playing immediately.
func (that *Session) Restart() {
	mode := that.mode
	*that = Session{}
	that.SelectMode(mode)
}
