package gomoku

const (
	winRun      = 5
	overlineRun = 6
)

// Forbidden-move reasons, shown verbatim to the player who attempted the move.
const (
	ReasonOverline    = "overline"
	ReasonDoubleThree = "double-three"
	ReasonDoubleFour  = "double-four"
)

// CheckForbidden reports whether placing cell at p is allowed. Only black is
// restricted; for white it always returns (true, "").
//
// The checks need full-board adjacency through the candidate stone, so the
// cell is provisionally written, evaluated, and reverted before returning on
// every path. The board is byte-for-byte unchanged afterwards.
func (that *Engine) CheckForbidden(p Point, cell Cell) (bool, string) {
	if cell != CellBlack {
		return true, ""
	}

	if !that.board.IsEmpty(p) {
		return true, ""
	}

	that.board.Set(p, cell)
	defer that.board.Remove(p)

	if that.hasOverline(p, cell) {
		return false, ReasonOverline
	}

	if that.countOpenThrees(p, cell) >= 2 {
		return false, ReasonDoubleThree
	}

	if that.countFours(p, cell) >= 2 {
		return false, ReasonDoubleFour
	}

	return true, ""
}

func (that *Engine) hasOverline(p Point, cell Cell) bool {
	for _, axis := range axes {
		if that.runLength(p, cell, axis[0], axis[1]) >= overlineRun {
			return true
		}
	}

	return false
}

// countOpenThrees counts axes through p holding a run of exactly three whose
// cells immediately beyond both ends are in-bounds and empty.
func (that *Engine) countOpenThrees(p Point, cell Cell) int {
	open := 0

	for _, axis := range axes {
		dRow, dCol := axis[0], axis[1]

		if that.runLength(p, cell, dRow, dCol) != 3 {
			continue
		}

		forward := that.countDirection(p, cell, dRow, dCol)
		backward := that.countDirection(p, cell, -dRow, -dCol)

		beyondForward := Point{Row: p.Row + (forward+1)*dRow, Col: p.Col + (forward+1)*dCol}
		beyondBackward := Point{Row: p.Row - (backward+1)*dRow, Col: p.Col - (backward+1)*dCol}

		if that.board.IsEmpty(beyondForward) && that.board.IsEmpty(beyondBackward) {
			open++
		}
	}

	return open
}

// countFours counts axes with a run of exactly four, open or not.
func (that *Engine) countFours(p Point, cell Cell) int {
	fours := 0

	for _, axis := range axes {
		if that.runLength(p, cell, axis[0], axis[1]) == 4 {
			fours++
		}
	}

	return fours
}
