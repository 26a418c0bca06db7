package apperror

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrWrongPassword   = errors.New("wrong room password")
	ErrAlreadyJoined   = errors.New("player already joined this room")
	ErrUsernameMissing = errors.New("username is required")
	ErrNotHost         = errors.New("only the host can do this")
	ErrPlayersNotReady = errors.New("not all players are ready")
	ErrRoomNotPlaying  = errors.New("room has no game in progress")

	ErrGameNotFinished  = errors.New("game is not finished yet")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrOutOfBounds      = errors.New("cell is out of bounds")
	ErrForbiddenMove    = errors.New("forbidden move")
	ErrNoAvailableMoves = errors.New("no available moves")

	ErrAlreadyQueued = errors.New("player is already in the matchmaking queue")
	ErrDesync        = errors.New("board state desynchronized from opponent")
)
