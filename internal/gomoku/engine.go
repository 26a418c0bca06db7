package gomoku

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

// Move is one stone placement. Seq starts at 1 and grows by one per placement,
// so receivers can spot duplicate or reordered deliveries.
type Move struct {
	Row  int  `json:"row"`
	Col  int  `json:"col"`
	Cell Cell `json:"cell"`
	Seq  int  `json:"seq"`
}

func (that Move) Point() Point {
	return Point{Row: that.Row, Col: that.Col}
}

// axes are the four scan directions: horizontal, vertical, both diagonals.
var axes = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// Engine owns one board and its append-only move history. Black is the
// restricted side: renju forbidden moves apply to it and it wins on exactly
// five in a row, while white wins on five or more.
type Engine struct {
	board   *Board
	history []Move
}

func NewEngine(size int) *Engine {
	if size <= 0 {
		size = DefaultBoardSize
	}

	return &Engine{
		board:   NewBoard(size),
		history: make([]Move, 0, size*size),
	}
}

func (that *Engine) Board() *Board {
	return that.board
}

// History returns the append-only move list in placement order.
func (that *Engine) History() []Move {
	return that.history
}

func (that *Engine) LastMove() (Move, bool) {
	if len(that.history) == 0 {
		return Move{}, false
	}

	return that.history[len(that.history)-1], true
}

// PlaceStone validates and applies one placement. On any failure the board is
// left untouched.
func (that *Engine) PlaceStone(p Point, cell Cell) error {
	if !that.board.InBounds(p) {
		return fmt.Errorf("%w: row %d col %d", apperror.ErrOutOfBounds, p.Row, p.Col)
	}

	if that.board.At(p) != CellEmpty {
		return fmt.Errorf("%w: row %d col %d", apperror.ErrCellOccupied, p.Row, p.Col)
	}

	if ok, reason := that.CheckForbidden(p, cell); !ok {
		return fmt.Errorf("%w: %s", apperror.ErrForbiddenMove, reason)
	}

	that.board.Set(p, cell)
	that.history = append(that.history, Move{
		Row:  p.Row,
		Col:  p.Col,
		Cell: cell,
		Seq:  len(that.history) + 1,
	})

	return nil
}

// ApplyMove replays a move received from the opponent. The relay does not
// re-validate moves, so the payload is trusted; a move the local engine would
// itself reject surfaces as ErrDesync.
func (that *Engine) ApplyMove(move Move) error {
	if move.Seq != 0 && move.Seq != len(that.history)+1 {
		return fmt.Errorf("%w: got seq %d, want %d", apperror.ErrDesync, move.Seq, len(that.history)+1)
	}

	if err := that.PlaceStone(move.Point(), move.Cell); err != nil {
		return fmt.Errorf("%w: %v", apperror.ErrDesync, err)
	}

	return nil
}

// CheckWin reports whether the stone at p completes a win for its side.
// Black needs a run of exactly five; white wins on five or more. Six black
// stones in a row is not a win, it is an overline.
func (that *Engine) CheckWin(p Point, cell Cell) bool {
	for _, axis := range axes {
		run := that.runLength(p, cell, axis[0], axis[1])

		if cell == CellBlack && run == winRun {
			return true
		}

		if cell == CellWhite && run >= winRun {
			return true
		}
	}

	return false
}

// Reset discards the board and history and starts from scratch.
func (that *Engine) Reset() {
	size := that.board.size
	that.board = NewBoard(size)
	that.history = make([]Move, 0, size*size)
}

// runLength counts contiguous same-side stones through p along one axis,
// including p itself. The cell at p must already hold that side.
func (that *Engine) runLength(p Point, cell Cell, dRow, dCol int) int {
	count := 1
	count += that.countDirection(p, cell, dRow, dCol)
	count += that.countDirection(p, cell, -dRow, -dCol)

	return count
}

func (that *Engine) countDirection(p Point, cell Cell, dRow, dCol int) int {
	count := 0
	next := Point{Row: p.Row + dRow, Col: p.Col + dCol}

	for that.board.InBounds(next) && that.board.At(next) == cell {
		count++
		next.Row += dRow
		next.Col += dCol
	}

	return count
}
