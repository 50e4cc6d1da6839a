package bot

import (
	"github.com/connectfour/backend/internal/domain"
)

const (
	DifficultyEasy = "easy"
	DifficultyHard = "hard"
)

// CalculateBestMove selects a column for botPlayer, or -1 when every column is full.
func CalculateBestMove(board domain.Board, botPlayer domain.PlayerID, difficulty string) int {
	switch difficulty {
	case DifficultyEasy:
		return CalculateBestMoveEasy(board, botPlayer)
	default:
		return CalculateBestMoveMinimax(board, botPlayer, MinimaxDepth)
	}
}

// ChooseMove turns the chosen column into a move for the game's policy. Under direct
// placement the bot still plays where a dropped disk would land, falling back to the
// first empty cell when every column top is taken.
func ChooseMove(board domain.Board, botPlayer domain.PlayerID, difficulty string, policy domain.Policy) (domain.Move, bool) {
	col := CalculateBestMove(board, botPlayer, difficulty)

	if policy != domain.DirectPlacement {
		if col < 0 {
			return domain.Move{}, false
		}
		return domain.DropMove(col), true
	}

	if col >= 0 {
		_, landing, err := domain.ApplyMove(board, domain.DropMove(col), botPlayer, domain.GravityDrop)
		if err == nil {
			return domain.PlaceMove(landing.Row, landing.Column), true
		}
	}

	for r := domain.Rows - 1; r >= 0; r-- {
		for c := 0; c < domain.Columns; c++ {
			if board[r][c] == domain.Empty {
				return domain.PlaceMove(r, c), true
			}
		}
	}
	return domain.Move{}, false
}

// simulate drops a disk on a copy of board.
func simulate(board domain.Board, col int, player domain.PlayerID) (domain.Board, int, bool) {
	next, landing, err := domain.ApplyMove(board, domain.DropMove(col), player, domain.GravityDrop)
	if err != nil {
		return board, -1, false
	}
	return next, landing.Row, true
}
