package gomoku

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

func TestEngine_PlaceStone(t *testing.T) {
	t.Run("Places a stone and records history", func(t *testing.T) {
		// Given: a fresh engine
		engine := NewEngine(DefaultBoardSize)

		// When: black places a stone in the center
		err := engine.PlaceStone(Point{Row: 7, Col: 7}, CellBlack)

		// Then: the cell is set and the move is appended with seq 1
		require.NoError(t, err)
		assert.Equal(t, CellBlack, engine.Board().At(Point{Row: 7, Col: 7}))

		last, ok := engine.LastMove()
		require.True(t, ok)
		assert.Equal(t, Move{Row: 7, Col: 7, Cell: CellBlack, Seq: 1}, last)
	})

	t.Run("Error on occupied cell", func(t *testing.T) {
		// Given: a board with a black stone at the center
		engine := NewEngine(DefaultBoardSize)
		require.NoError(t, engine.PlaceStone(Point{Row: 7, Col: 7}, CellBlack))

		// When: white tries the same cell
		err := engine.PlaceStone(Point{Row: 7, Col: 7}, CellWhite)

		// Then: ErrCellOccupied is returned and history is unchanged
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Len(t, engine.History(), 1)
	})

	t.Run("Error on out of bounds", func(t *testing.T) {
		// Given: a fresh engine
		engine := NewEngine(DefaultBoardSize)

		// When: a stone is placed outside the grid
		err := engine.PlaceStone(Point{Row: -1, Col: 7}, CellBlack)

		// Then: ErrOutOfBounds is returned
		require.ErrorIs(t, err, apperror.ErrOutOfBounds)
	})

	t.Run("Sequence numbers grow by one per placement", func(t *testing.T) {
		// Given: a fresh engine
		engine := NewEngine(DefaultBoardSize)

		// When: three stones are placed
		require.NoError(t, engine.PlaceStone(Point{Row: 7, Col: 7}, CellBlack))
		require.NoError(t, engine.PlaceStone(Point{Row: 7, Col: 8}, CellWhite))
		require.NoError(t, engine.PlaceStone(Point{Row: 8, Col: 7}, CellBlack))

		// Then: history holds seq 1, 2, 3 in placement order
		history := engine.History()
		require.Len(t, history, 3)
		for i, move := range history {
			assert.Equal(t, i+1, move.Seq)
		}
	})
}

func TestEngine_CheckWin(t *testing.T) {
	t.Run("Black wins on exactly five", func(t *testing.T) {
		// Given: five contiguous black stones in a row
		engine := NewEngine(DefaultBoardSize)
		for col := 3; col <= 7; col++ {
			engine.Board().Set(Point{Row: 7, Col: col}, CellBlack)
		}

		// When: checking the win through the last stone
		won := engine.CheckWin(Point{Row: 7, Col: 7}, CellBlack)

		// Then: black wins
		assert.True(t, won)
	})

	t.Run("Black does not win on six in a row", func(t *testing.T) {
		// Given: six contiguous black stones in a row
		engine := NewEngine(DefaultBoardSize)
		for col := 2; col <= 7; col++ {
			engine.Board().Set(Point{Row: 7, Col: col}, CellBlack)
		}

		// When: checking the win through a stone inside the run
		won := engine.CheckWin(Point{Row: 7, Col: 4}, CellBlack)

		// Then: the run is longer than five, so black does not win
		assert.False(t, won)
	})

	t.Run("White wins on five or more", func(t *testing.T) {
		// Given: six contiguous white stones in a row
		engine := NewEngine(DefaultBoardSize)
		for col := 2; col <= 7; col++ {
			engine.Board().Set(Point{Row: 7, Col: col}, CellWhite)
		}

		// When: checking the win through a stone inside the run
		won := engine.CheckWin(Point{Row: 7, Col: 4}, CellWhite)

		// Then: white wins even with the overline
		assert.True(t, won)
	})

	t.Run("Diagonal five wins", func(t *testing.T) {
		// Given: five white stones on a diagonal
		engine := NewEngine(DefaultBoardSize)
		for i := 0; i < 5; i++ {
			engine.Board().Set(Point{Row: 3 + i, Col: 3 + i}, CellWhite)
		}

		// When: checking the win through the last stone
		won := engine.CheckWin(Point{Row: 7, Col: 7}, CellWhite)

		// Then: white wins
		assert.True(t, won)
	})

	t.Run("Four in a row is not a win", func(t *testing.T) {
		// Given: four contiguous black stones
		engine := NewEngine(DefaultBoardSize)
		for col := 4; col <= 7; col++ {
			engine.Board().Set(Point{Row: 7, Col: col}, CellBlack)
		}

		// When: checking the win
		won := engine.CheckWin(Point{Row: 7, Col: 7}, CellBlack)

		// Then: no win yet
		assert.False(t, won)
	})
}

func TestEngine_ApplyMove(t *testing.T) {
	t.Run("Replays an opponent move in order", func(t *testing.T) {
		// Given: a fresh engine
		engine := NewEngine(DefaultBoardSize)

		// When: a relayed move with seq 1 arrives
		err := engine.ApplyMove(Move{Row: 7, Col: 7, Cell: CellBlack, Seq: 1})

		// Then: the move is applied
		require.NoError(t, err)
		assert.Equal(t, CellBlack, engine.Board().At(Point{Row: 7, Col: 7}))
	})

	t.Run("Duplicate delivery is a desync", func(t *testing.T) {
		// Given: an engine that already applied seq 1
		engine := NewEngine(DefaultBoardSize)
		require.NoError(t, engine.ApplyMove(Move{Row: 7, Col: 7, Cell: CellBlack, Seq: 1}))

		// When: the same move arrives again
		err := engine.ApplyMove(Move{Row: 7, Col: 7, Cell: CellBlack, Seq: 1})

		// Then: ErrDesync is returned
		require.ErrorIs(t, err, apperror.ErrDesync)
	})

	t.Run("Out of order delivery is a desync", func(t *testing.T) {
		// Given: a fresh engine
		engine := NewEngine(DefaultBoardSize)

		// When: a move with seq 3 arrives first
		err := engine.ApplyMove(Move{Row: 7, Col: 7, Cell: CellBlack, Seq: 3})

		// Then: ErrDesync is returned and the board stays empty
		require.ErrorIs(t, err, apperror.ErrDesync)
		assert.Equal(t, CellEmpty, engine.Board().At(Point{Row: 7, Col: 7}))
	})

	t.Run("A move the local rules reject is a desync", func(t *testing.T) {
		// Given: an engine with the target cell already occupied
		engine := NewEngine(DefaultBoardSize)
		engine.Board().Set(Point{Row: 7, Col: 7}, CellWhite)

		// When: a relayed move lands on the occupied cell
		err := engine.ApplyMove(Move{Row: 7, Col: 7, Cell: CellBlack, Seq: 1})

		// Then: ErrDesync is returned
		require.ErrorIs(t, err, apperror.ErrDesync)
	})
}

func TestEngine_Reset(t *testing.T) {
	// Given: an engine with a few moves
	engine := NewEngine(DefaultBoardSize)
	require.NoError(t, engine.PlaceStone(Point{Row: 7, Col: 7}, CellBlack))
	require.NoError(t, engine.PlaceStone(Point{Row: 7, Col: 8}, CellWhite))

	// When: the game is reset
	engine.Reset()

	// Then: the board is empty and the history is gone
	assert.Empty(t, engine.History())
	assert.Equal(t, DefaultBoardSize*DefaultBoardSize, engine.Board().CountEmpty())
}
