package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// boardFromRows builds a board from six 7-character rows: 'X' is Player1, 'O' Player2.
func boardFromRows(t *testing.T, rows ...string) Board {
	t.Helper()
	require.Len(t, rows, Rows)
	var b Board
	for r, line := range rows {
		require.Len(t, line, Columns, "row %d", r)
		for c, ch := range line {
			switch ch {
			case 'X':
				b[r][c] = Player1
			case 'O':
				b[r][c] = Player2
			}
		}
	}
	return b
}

func mirror(b Board) Board {
	var m Board
	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			m[r][Columns-1-c] = b[r][c]
		}
	}
	return m
}

// fullNoWinner has no four-in-a-row in any direction.
func fullNoWinner(t *testing.T) Board {
	return boardFromRows(t,
		"XOXOXOX",
		"XOXOXOX",
		"OXOXOXO",
		"OXOXOXO",
		"XOXOXOX",
		"XOXOXOX",
	)
}

func TestFreshBoardHasNoOutcome(t *testing.T) {
	b := NewBoard()

	_, ok := FindWinner(b)
	assert.False(t, ok)
	assert.False(t, IsDraw(b))
	assert.Equal(t, Outcome{Kind: NoWinner}, Evaluate(b))
}

func TestHorizontalWinOnBottomRow(t *testing.T) {
	b := NewBoard()
	b[5][0], b[5][1], b[5][2] = Player1, Player1, Player1
	assert.False(t, CheckWin(b, 5, 2, Player1))

	b[5][3] = Player1
	assert.True(t, CheckWin(b, 5, 3, Player1))
	assert.False(t, CheckWin(b, 5, 3, Player2))

	winner, ok := FindWinner(b)
	require.True(t, ok)
	assert.Equal(t, Player1, winner)
}

func TestRunResetsOnGap(t *testing.T) {
	b := boardFromRows(t,
		".......",
		".......",
		".......",
		".......",
		".......",
		"XXOXX.X",
	)
	assert.False(t, CheckWin(b, 5, 4, Player1))
	_, ok := FindWinner(b)
	assert.False(t, ok)
}

func TestVerticalWin(t *testing.T) {
	b := boardFromRows(t,
		".......",
		".......",
		"...X...",
		"...X...",
		"...X...",
		"...X...",
	)
	assert.True(t, CheckWin(b, 2, 3, Player1))
}

func TestDiagonalWins(t *testing.T) {
	rising := boardFromRows(t,
		".......",
		".......",
		"...X...",
		"..XO...",
		".XOO...",
		"XOOO...",
	)
	assert.True(t, CheckWin(rising, 2, 3, Player1))
	assert.True(t, CheckWin(rising, 4, 1, Player1), "any cell of the run detects it")

	falling := boardFromRows(t,
		".......",
		".......",
		"...O...",
		"...XO..",
		"...XXO.",
		"...XXXO",
	)
	assert.True(t, CheckWin(falling, 5, 6, Player2))
	assert.True(t, CheckWin(falling, 2, 3, Player2))
	assert.False(t, CheckWin(falling, 5, 5, Player1))
}

func TestDiagonalWindowsNearEdgesDoNotPanic(t *testing.T) {
	b := NewBoard()
	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			b[r][c] = Player2
			assert.NotPanics(t, func() { CheckWin(b, r, c, Player2) })
			b[r][c] = Empty
		}
	}
	assert.False(t, CheckWin(b, -1, 0, Player1))
	assert.False(t, CheckWin(b, 0, Columns, Player1))
}

func TestFullBoardWithoutRunIsDraw(t *testing.T) {
	b := fullNoWinner(t)

	assert.True(t, IsDraw(b))
	_, ok := FindWinner(b)
	assert.False(t, ok)
	assert.Equal(t, Outcome{Kind: Drawn}, Evaluate(b))
}

func TestWinTakesPrecedenceOverDraw(t *testing.T) {
	b := fullNoWinner(t)
	b[5][1] = Player1
	b[5][3] = Player1
	require.True(t, IsDraw(b))

	assert.Equal(t, Outcome{Kind: HasWinner, Winner: Player1}, Evaluate(b))
	assert.Equal(t, StatePlayer1Won, AdvanceState(StatePlayer1Turn, b, Cell{Row: 5, Column: 3}, Player1))
}

func TestIsDrawChecksEveryCell(t *testing.T) {
	b := fullNoWinner(t)
	b[3][3] = Empty
	assert.False(t, IsDraw(b))
}

// Random games through Play; the incremental detector is checked against the
// full scan and against the mirrored board after every move.
func TestCheckWinAgreesWithFullScanAndMirror(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for game := 0; game < 300; game++ {
		board := NewBoard()
		state := InitialState

		for !state.IsTerminal() {
			moves := board.ValidMoves()
			col := moves[rng.Intn(len(moves))]
			player := state.ToMove()

			next, landing, nextState, err := Play(state, board, DropMove(col), player, GravityDrop)
			require.NoError(t, err)

			won := CheckWin(next, landing.Row, landing.Column, player)
			winner, found := FindWinner(next)
			require.Equal(t, found, won, "game %d board:\n%s", game, next)
			if found {
				require.Equal(t, player, winner)
			}

			mirrored := mirror(next)
			require.Equal(t, won, CheckWin(mirrored, landing.Row, Columns-1-landing.Column, player))
			mirroredWinner, mirroredFound := FindWinner(mirrored)
			require.Equal(t, found, mirroredFound)
			require.Equal(t, winner, mirroredWinner)

			board, state = next, nextState
		}
	}
}
