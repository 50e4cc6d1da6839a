package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// changedCells lists every cell that differs between two boards.
func changedCells(a, b Board) []Cell {
	var out []Cell
	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			if a[r][c] != b[r][c] {
				out = append(out, Cell{Row: r, Column: c})
			}
		}
	}
	return out
}

func TestGravityDropLandsOnLowestEmptyRow(t *testing.T) {
	board := NewBoard()
	for k := 0; k < Rows; k++ {
		player := Player1
		if k%2 == 1 {
			player = Player2
		}
		next, landing, err := ApplyMove(board, DropMove(2), player, GravityDrop)
		require.NoError(t, err)
		assert.Equal(t, Cell{Row: Rows - 1 - k, Column: 2}, landing)
		assert.Equal(t, []Cell{landing}, changedCells(board, next))
		assert.Equal(t, player, next[landing.Row][landing.Column])
		board = next
	}
	assert.True(t, board.IsColumnFull(2))
	assert.NotContains(t, board.ValidMoves(), 2)
}

func TestApplyMoveDoesNotTouchInputBoard(t *testing.T) {
	before := NewBoard()
	before[5][0] = Player2
	snapshot := before

	next, _, err := ApplyMove(before, DropMove(0), Player1, GravityDrop)
	require.NoError(t, err)

	assert.Equal(t, snapshot, before)
	assert.Equal(t, Player1, next[4][0])
	assert.Equal(t, Empty, before[4][0])
}

func TestFullColumnIsRejected(t *testing.T) {
	board := NewBoard()
	for r := 0; r < Rows; r++ {
		board[r][6] = Player1
	}
	snapshot := board

	_, _, err := ApplyMove(board, DropMove(6), Player2, GravityDrop)
	assert.ErrorIs(t, err, ErrColumnFull)
	assert.Equal(t, snapshot, board)
}

func TestApplyMoveRejections(t *testing.T) {
	occupied := NewBoard()
	occupied[2][2] = Player1

	tests := []struct {
		name   string
		board  Board
		move   Move
		player PlayerID
		policy Policy
		want   error
	}{
		{"negative column", NewBoard(), DropMove(-1), Player1, GravityDrop, ErrOutOfRange},
		{"column past edge", NewBoard(), DropMove(Columns), Player1, GravityDrop, ErrOutOfRange},
		{"direct row out of range", NewBoard(), PlaceMove(Rows, 0), Player1, DirectPlacement, ErrOutOfRange},
		{"direct cell occupied", occupied, PlaceMove(2, 2), Player2, DirectPlacement, ErrCellOccupied},
		{"empty marker", NewBoard(), DropMove(0), Empty, GravityDrop, ErrInvalidPlayer},
		{"unknown policy", NewBoard(), DropMove(0), Player1, Policy("sideways"), ErrInvalidPolicy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ApplyMove(tt.board, tt.move, tt.player, tt.policy)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestDirectPlacementIgnoresGravity(t *testing.T) {
	board := NewBoard()
	next, landing, err := ApplyMove(board, PlaceMove(0, 4), Player1, DirectPlacement)
	require.NoError(t, err)
	assert.Equal(t, Cell{Row: 0, Column: 4}, landing)
	assert.Equal(t, []Cell{landing}, changedCells(board, next))
}

func TestPlaceAtIndex(t *testing.T) {
	m, err := PlaceAtIndex(38)
	require.NoError(t, err)
	assert.Equal(t, PlaceMove(5, 3), m)
	assert.Equal(t, 38, CellIndex(5, 3))

	_, err = PlaceAtIndex(Cells)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestVerticalScenarioEndsInPlayerOneWin(t *testing.T) {
	board := NewBoard()
	state := InitialState
	require.Equal(t, StatePlayer1Turn, state)

	sequence := []int{3, 4, 3, 4, 3, 4, 3}
	for i, col := range sequence {
		var (
			landing Cell
			err     error
		)
		player := state.ToMove()
		board, landing, state, err = Play(state, board, DropMove(col), player, GravityDrop)
		require.NoError(t, err, "move %d", i)

		if i < len(sequence)-1 {
			assert.False(t, state.IsTerminal(), "move %d", i)
		} else {
			assert.Equal(t, Cell{Row: 2, Column: 3}, landing)
		}
	}

	assert.Equal(t, StatePlayer1Won, state)
	winner, ok := state.Winner()
	require.True(t, ok)
	assert.Equal(t, Player1, winner)
}

func TestPlayRejectsWrongPlayer(t *testing.T) {
	board := NewBoard()
	next, _, state, err := Play(StatePlayer1Turn, board, DropMove(0), Player2, GravityDrop)

	assert.ErrorIs(t, err, ErrNotYourTurn)
	assert.Equal(t, StatePlayer1Turn, state)
	assert.Equal(t, board, next)
}

func TestTerminalStatesAbsorb(t *testing.T) {
	for _, st := range []GameState{StatePlayer1Won, StatePlayer2Won, StateDraw} {
		board := NewBoard()
		for _, p := range []PlayerID{Player1, Player2} {
			next, _, state, err := Play(st, board, DropMove(0), p, GravityDrop)
			assert.ErrorIs(t, err, ErrGameAlreadyOver)
			assert.Equal(t, st, state)
			assert.Equal(t, board, next)
		}
		assert.Equal(t, st, AdvanceState(st, board, Cell{Row: 5, Column: 0}, Player1))
	}
}

func TestPlayRejectionKeepsState(t *testing.T) {
	board := NewBoard()
	for r := 0; r < Rows; r++ {
		board[r][0] = Player2
	}

	next, _, state, err := Play(StatePlayer1Turn, board, DropMove(0), Player1, GravityDrop)
	assert.ErrorIs(t, err, ErrColumnFull)
	assert.Equal(t, StatePlayer1Turn, state)
	assert.Equal(t, board, next)
}

func TestTurnsAlternate(t *testing.T) {
	board, _, state, err := Play(StatePlayer1Turn, NewBoard(), DropMove(0), Player1, GravityDrop)
	require.NoError(t, err)
	assert.Equal(t, StatePlayer2Turn, state)

	_, _, state, err = Play(state, board, DropMove(1), Player2, GravityDrop)
	require.NoError(t, err)
	assert.Equal(t, StatePlayer1Turn, state)
}

func TestLastMoveWithoutRunIsDraw(t *testing.T) {
	b := fullNoWinner(t)
	last := b[0][6]
	b[0][6] = Empty

	next, landing, state, err := Play(TurnState(last), b, DropMove(6), last, GravityDrop)
	require.NoError(t, err)
	assert.Equal(t, Cell{Row: 0, Column: 6}, landing)
	assert.Equal(t, StateDraw, state)
	assert.True(t, IsDraw(next))
}

func TestParseHelpers(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, GravityDrop, p)

	p, err = ParsePolicy("Direct")
	require.NoError(t, err)
	assert.Equal(t, DirectPlacement, p)

	_, err = ParsePolicy("teleport")
	assert.ErrorIs(t, err, ErrInvalidPolicy)

	st, err := ParseGameState("player2_won")
	require.NoError(t, err)
	assert.Equal(t, StatePlayer2Won, st)

	_, err = ParseGameState("invite")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestBoardIntsRoundTrip(t *testing.T) {
	b := fullNoWinner(t)
	back, err := BoardFromInts(b.Ints())
	require.NoError(t, err)
	assert.Equal(t, b, back)

	_, err = BoardFromInts([][]int{{0}})
	assert.Error(t, err)

	bad := NewBoard().Ints()
	bad[0][0] = 7
	_, err = BoardFromInts(bad)
	assert.ErrorIs(t, err, ErrInvalidPlayer)
}

func TestUpdateRatings(t *testing.T) {
	r1, r2 := UpdateRatings(InitialRating, InitialRating, Player1)
	assert.Equal(t, InitialRating+16, r1)
	assert.Equal(t, InitialRating-16, r2)

	r1, r2 = UpdateRatings(InitialRating, InitialRating, Empty)
	assert.Equal(t, InitialRating, r1)
	assert.Equal(t, InitialRating, r2)
}
