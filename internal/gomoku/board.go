package gomoku

// Cell is the content of a single board intersection.
type Cell int

const (
	CellEmpty Cell = iota
	CellBlack
	CellWhite
)

// DefaultBoardSize is the classic renju board.
const DefaultBoardSize = 15

func (that Cell) String() string {
	switch that {
	case CellBlack:
		return "black"
	case CellWhite:
		return "white"
	default:
		return "empty"
	}
}

// Opponent returns the other side; CellEmpty maps to itself.
func (that Cell) Opponent() Cell {
	switch that {
	case CellBlack:
		return CellWhite
	case CellWhite:
		return CellBlack
	default:
		return CellEmpty
	}
}

// Point addresses one intersection on the board.
type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Board is a flat size*size grid of cells.
type Board struct {
	size  int
	cells []Cell
}

func NewBoard(size int) *Board {
	board := &Board{}
	board.Reset(size)

	return board
}

// Reset reallocates the grid; partially filled state is never reused.
func (that *Board) Reset(size int) {
	that.size = size
	that.cells = make([]Cell, size*size)
}

func (that *Board) At(p Point) Cell {
	return that.cells[that.index(p)]
}

func (that *Board) Set(p Point, cell Cell) {
	that.cells[that.index(p)] = cell
}

func (that *Board) Remove(p Point) {
	that.cells[that.index(p)] = CellEmpty
}

func (that *Board) InBounds(p Point) bool {
	return p.Row >= 0 && p.Col >= 0 && p.Row < that.size && p.Col < that.size
}

func (that *Board) IsEmpty(p Point) bool {
	return that.InBounds(p) && that.At(p) == CellEmpty
}

func (that *Board) CountEmpty() int {
	count := 0
	for _, cell := range that.cells {
		if cell == CellEmpty {
			count++
		}
	}

	return count
}

func (that *Board) Size() int {
	return that.size
}

func (that *Board) Clone() *Board {
	clone := &Board{size: that.size, cells: make([]Cell, len(that.cells))}
	copy(clone.cells, that.cells)

	return clone
}

func (that *Board) index(p Point) int {
	return p.Row*that.size + p.Col
}
