package gomoku

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

func TestEngine_CheckForbidden(t *testing.T) {
	t.Run("White is never restricted", func(t *testing.T) {
		// Given: a board where the candidate cell would make an overline for white
		engine := NewEngine(DefaultBoardSize)
		for _, col := range []int{2, 3, 4, 6, 7} {
			engine.Board().Set(Point{Row: 7, Col: col}, CellWhite)
		}

		// When: checking the gap cell for white
		ok, reason := engine.CheckForbidden(Point{Row: 7, Col: 5}, CellWhite)

		// Then: the move is allowed
		assert.True(t, ok)
		assert.Empty(t, reason)
	})

	t.Run("Overline is forbidden for black", func(t *testing.T) {
		// Given: black stones that would form a run of six through the gap
		engine := NewEngine(DefaultBoardSize)
		for _, col := range []int{2, 3, 4, 6, 7} {
			engine.Board().Set(Point{Row: 7, Col: col}, CellBlack)
		}

		// When: checking the gap cell for black
		ok, reason := engine.CheckForbidden(Point{Row: 7, Col: 5}, CellBlack)

		// Then: the move is rejected as an overline
		assert.False(t, ok)
		assert.Equal(t, ReasonOverline, reason)
	})

	t.Run("Double three is forbidden for black", func(t *testing.T) {
		// Given: two black pairs that both become open threes through (7,7)
		engine := NewEngine(DefaultBoardSize)
		engine.Board().Set(Point{Row: 7, Col: 5}, CellBlack)
		engine.Board().Set(Point{Row: 7, Col: 6}, CellBlack)
		engine.Board().Set(Point{Row: 5, Col: 7}, CellBlack)
		engine.Board().Set(Point{Row: 6, Col: 7}, CellBlack)

		// When: checking (7,7) for black
		ok, reason := engine.CheckForbidden(Point{Row: 7, Col: 7}, CellBlack)

		// Then: the move is rejected as a double three
		assert.False(t, ok)
		assert.Equal(t, ReasonDoubleThree, reason)
	})

	t.Run("Same double three shape is legal for white", func(t *testing.T) {
		// Given: the identical configuration with white stones
		engine := NewEngine(DefaultBoardSize)
		engine.Board().Set(Point{Row: 7, Col: 5}, CellWhite)
		engine.Board().Set(Point{Row: 7, Col: 6}, CellWhite)
		engine.Board().Set(Point{Row: 5, Col: 7}, CellWhite)
		engine.Board().Set(Point{Row: 6, Col: 7}, CellWhite)

		// When: checking (7,7) for white
		ok, _ := engine.CheckForbidden(Point{Row: 7, Col: 7}, CellWhite)

		// Then: the move is allowed
		assert.True(t, ok)
	})

	t.Run("A blocked three is not open", func(t *testing.T) {
		// Given: the horizontal three is capped by a white stone on one end
		engine := NewEngine(DefaultBoardSize)
		engine.Board().Set(Point{Row: 7, Col: 5}, CellBlack)
		engine.Board().Set(Point{Row: 7, Col: 6}, CellBlack)
		engine.Board().Set(Point{Row: 7, Col: 8}, CellWhite)
		engine.Board().Set(Point{Row: 5, Col: 7}, CellBlack)
		engine.Board().Set(Point{Row: 6, Col: 7}, CellBlack)

		// When: checking (7,7) for black
		ok, _ := engine.CheckForbidden(Point{Row: 7, Col: 7}, CellBlack)

		// Then: only one open three remains, so the move is allowed
		assert.True(t, ok)
	})

	t.Run("Double four is forbidden for black", func(t *testing.T) {
		// Given: two black triples that both become fours through (7,7)
		engine := NewEngine(DefaultBoardSize)
		for _, col := range []int{4, 5, 6} {
			engine.Board().Set(Point{Row: 7, Col: col}, CellBlack)
		}
		for _, row := range []int{4, 5, 6} {
			engine.Board().Set(Point{Row: row, Col: 7}, CellBlack)
		}

		// When: checking (7,7) for black
		ok, reason := engine.CheckForbidden(Point{Row: 7, Col: 7}, CellBlack)

		// Then: the move is rejected as a double four
		assert.False(t, ok)
		assert.Equal(t, ReasonDoubleFour, reason)
	})

	t.Run("A single four is legal", func(t *testing.T) {
		// Given: one black triple extending to a four through (7,7)
		engine := NewEngine(DefaultBoardSize)
		for _, col := range []int{4, 5, 6} {
			engine.Board().Set(Point{Row: 7, Col: col}, CellBlack)
		}

		// When: checking (7,7) for black
		ok, _ := engine.CheckForbidden(Point{Row: 7, Col: 7}, CellBlack)

		// Then: the move is allowed
		assert.True(t, ok)
	})

	t.Run("Leaves the board byte for byte unchanged", func(t *testing.T) {
		// Given: a mid-game position
		engine := NewEngine(DefaultBoardSize)
		engine.Board().Set(Point{Row: 7, Col: 5}, CellBlack)
		engine.Board().Set(Point{Row: 7, Col: 6}, CellBlack)
		engine.Board().Set(Point{Row: 5, Col: 7}, CellBlack)
		engine.Board().Set(Point{Row: 6, Col: 7}, CellBlack)
		engine.Board().Set(Point{Row: 8, Col: 8}, CellWhite)

		snapshot := engine.Board().Clone()

		// When: checking several cells, allowed and forbidden alike
		engine.CheckForbidden(Point{Row: 7, Col: 7}, CellBlack)
		engine.CheckForbidden(Point{Row: 0, Col: 0}, CellBlack)
		engine.CheckForbidden(Point{Row: 7, Col: 4}, CellBlack)

		// Then: the board matches the snapshot exactly
		require.Equal(t, snapshot, engine.Board())
	})

	t.Run("PlaceStone surfaces the forbidden reason", func(t *testing.T) {
		// Given: a double three configuration for black
		engine := NewEngine(DefaultBoardSize)
		engine.Board().Set(Point{Row: 7, Col: 5}, CellBlack)
		engine.Board().Set(Point{Row: 7, Col: 6}, CellBlack)
		engine.Board().Set(Point{Row: 5, Col: 7}, CellBlack)
		engine.Board().Set(Point{Row: 6, Col: 7}, CellBlack)

		// When: black tries to place the double three point
		err := engine.PlaceStone(Point{Row: 7, Col: 7}, CellBlack)

		// Then: the error wraps ErrForbiddenMove and names the rule
		require.ErrorIs(t, err, apperror.ErrForbiddenMove)
		assert.Contains(t, err.Error(), ReasonDoubleThree)
	})
}
