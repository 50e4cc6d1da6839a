package bot

import (
	"math/rand"

	"github.com/connectfour/backend/internal/domain"
)

// CalculateBestMoveEasy wins when it can, blocks an immediate loss, otherwise plays at random.
func CalculateBestMoveEasy(board domain.Board, botPlayer domain.PlayerID) int {
	validColumns := board.ValidMoves()
	if len(validColumns) == 0 {
		return -1
	}

	opponent := botPlayer.Opponent()

	for _, col := range validColumns {
		testBoard, row, ok := simulate(board, col, botPlayer)
		if ok && domain.CheckWin(testBoard, row, col, botPlayer) {
			return col
		}
	}

	for _, col := range validColumns {
		testBoard, row, ok := simulate(board, col, opponent)
		if ok && domain.CheckWin(testBoard, row, col, opponent) {
			return col
		}
	}

	return validColumns[rand.Intn(len(validColumns))]
}
