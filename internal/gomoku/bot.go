package gomoku

import (
	"math/rand"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

// neighborRadius is how far a cell may sit from an existing stone and still
// count as "near the action" for the fallback move.
const neighborRadius = 2

// Bot picks moves for a non-human side from the engine's threat list.
type Bot struct{}

func NewBot() *Bot {
	return &Bot{}
}

// PickMove returns exactly one legal point for the given side. It acts on the
// highest-priority threat, falls back to a weighted random cell near existing
// stones, and only errors when no legal cell remains.
func (that *Bot) PickMove(engine *Engine, cell Cell) (Point, error) {
	for _, threat := range engine.Threats(cell) {
		p := threat.Point()
		if ok, _ := engine.CheckForbidden(p, cell); ok {
			return p, nil
		}
	}

	if p, ok := that.pickNearStones(engine, cell); ok {
		return p, nil
	}

	if p, ok := that.pickUniform(engine, cell); ok {
		return p, nil
	}

	return Point{}, apperror.ErrNoAvailableMoves
}

// pickNearStones draws a weighted random empty cell, weighting each by the
// number of stones within neighborRadius. Corner-seeking degenerate play on a
// sparse board is what this avoids.
func (that *Bot) pickNearStones(engine *Engine, cell Cell) (Point, bool) {
	board := engine.Board()
	size := board.Size()

	candidates := make([]Point, 0, 64)
	weights := make([]int, 0, 64)
	total := 0

	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			p := Point{Row: row, Col: col}
			if board.At(p) != CellEmpty {
				continue
			}

			weight := countNeighbors(board, p)
			if weight == 0 {
				continue
			}

			if ok, _ := engine.CheckForbidden(p, cell); !ok {
				continue
			}

			candidates = append(candidates, p)
			weights = append(weights, weight)
			total += weight
		}
	}

	if total == 0 {
		return Point{}, false
	}

	pick := rand.Intn(total) //nolint: gosec // it's ok
	for i, p := range candidates {
		pick -= weights[i]
		if pick < 0 {
			return p, true
		}
	}

	return candidates[len(candidates)-1], true
}

func (that *Bot) pickUniform(engine *Engine, cell Cell) (Point, bool) {
	board := engine.Board()
	size := board.Size()

	available := make([]Point, 0, size*size)
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			p := Point{Row: row, Col: col}
			if board.At(p) != CellEmpty {
				continue
			}

			if ok, _ := engine.CheckForbidden(p, cell); !ok {
				continue
			}

			available = append(available, p)
		}
	}

	if len(available) == 0 {
		return Point{}, false
	}

	return available[rand.Intn(len(available))], true //nolint: gosec // it's ok
}

func countNeighbors(board *Board, p Point) int {
	count := 0

	for dRow := -neighborRadius; dRow <= neighborRadius; dRow++ {
		for dCol := -neighborRadius; dCol <= neighborRadius; dCol++ {
			if dRow == 0 && dCol == 0 {
				continue
			}

			neighbor := Point{Row: p.Row + dRow, Col: p.Col + dCol}
			if board.InBounds(neighbor) && board.At(neighbor) != CellEmpty {
				count++
			}
		}
	}

	return count
}
