package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectfour/backend/internal/domain"
)

func TestBotTakesImmediateWin(t *testing.T) {
	board := domain.NewBoard()
	board[5][0], board[4][0], board[3][0] = domain.Player2, domain.Player2, domain.Player2
	board[5][1], board[5][2] = domain.Player1, domain.Player1

	for _, difficulty := range []string{DifficultyEasy, DifficultyHard} {
		assert.Equal(t, 0, CalculateBestMove(board, domain.Player2, difficulty), difficulty)
	}
}

func TestBotBlocksImmediateLoss(t *testing.T) {
	board := domain.NewBoard()
	board[5][0], board[5][1], board[5][2] = domain.Player1, domain.Player1, domain.Player1
	board[4][0], board[4][1] = domain.Player2, domain.Player2

	assert.Equal(t, 3, CalculateBestMoveEasy(board, domain.Player2))
	assert.Equal(t, 3, CalculateBestMoveMinimax(board, domain.Player2, 4))
}

func TestBotOnFullBoard(t *testing.T) {
	var board domain.Board
	for r := 0; r < domain.Rows; r++ {
		for c := 0; c < domain.Columns; c++ {
			board[r][c] = domain.Player1
		}
	}

	assert.Equal(t, -1, CalculateBestMove(board, domain.Player2, DifficultyEasy))
	assert.Equal(t, -1, CalculateBestMove(board, domain.Player2, DifficultyHard))

	_, ok := ChooseMove(board, domain.Player2, DifficultyEasy, domain.GravityDrop)
	assert.False(t, ok)
	_, ok = ChooseMove(board, domain.Player2, DifficultyEasy, domain.DirectPlacement)
	assert.False(t, ok)
}

func TestChooseMoveProducesLegalMoves(t *testing.T) {
	board := domain.NewBoard()
	board[0][3] = domain.Player1 // a floating disk is legal under direct placement

	for _, policy := range []domain.Policy{domain.GravityDrop, domain.DirectPlacement} {
		move, ok := ChooseMove(board, domain.Player2, DifficultyEasy, policy)
		require.True(t, ok)
		_, _, err := domain.ApplyMove(board, move, domain.Player2, policy)
		assert.NoError(t, err, policy)
	}
}

func TestDirectPlacementFallbackWhenTopsAreFull(t *testing.T) {
	board := domain.NewBoard()
	for c := 0; c < domain.Columns; c++ {
		board[0][c] = domain.Player1
	}

	move, ok := ChooseMove(board, domain.Player2, DifficultyHard, domain.DirectPlacement)
	require.True(t, ok)
	assert.Equal(t, domain.PlaceMove(domain.Rows-1, 0), move)
}
