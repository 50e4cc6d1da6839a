package bot

import (
	"math"

	"github.com/connectfour/backend/internal/domain"
)

const (
	MinimaxDepth = 6
	minimaxWin   = 1000000
	minimaxLoss  = -1000000
)

// columnOrder searches the centre first, which makes alpha-beta cut off earlier.
var columnOrder = [domain.Columns]int{3, 2, 4, 1, 5, 0, 6}

func orderedMoves(board domain.Board) []int {
	moves := make([]int, 0, domain.Columns)
	for _, col := range columnOrder {
		if !board.IsColumnFull(col) {
			moves = append(moves, col)
		}
	}
	return moves
}

// CalculateBestMoveMinimax implements hard difficulty using Minimax with alpha-beta pruning
func CalculateBestMoveMinimax(board domain.Board, botPlayer domain.PlayerID, depth int) int {
	validColumns := orderedMoves(board)
	if len(validColumns) == 0 {
		return -1
	}

	bestCol := validColumns[0]
	bestScore := math.MinInt32
	alpha := math.MinInt32
	beta := math.MaxInt32

	opponent := botPlayer.Opponent()

	for _, col := range validColumns {
		testBoard, row, _ := simulate(board, col, botPlayer)

		// If this move wins immediately, take it
		if domain.CheckWin(testBoard, row, col, botPlayer) {
			return col
		}

		score := minimax(testBoard, depth-1, depth, alpha, beta, false, botPlayer, opponent)
		if score > bestScore {
			bestScore = score
			bestCol = col
		}
		alpha = max(alpha, bestScore)
	}

	return bestCol
}

func minimax(board domain.Board, depth, maxDepth int, alpha, beta int, isMaximizing bool, botPlayer, opponent domain.PlayerID) int {
	validColumns := orderedMoves(board)

	if depth <= 0 || len(validColumns) == 0 {
		return evaluateBoard(board, botPlayer, opponent)
	}

	if isMaximizing {
		maxEval := math.MinInt32
		for _, col := range validColumns {
			testBoard, row, _ := simulate(board, col, botPlayer)
			if domain.CheckWin(testBoard, row, col, botPlayer) {
				// prefer quicker wins
				return minimaxWin - (maxDepth - depth)
			}

			eval := minimax(testBoard, depth-1, maxDepth, alpha, beta, false, botPlayer, opponent)
			maxEval = max(maxEval, eval)
			alpha = max(alpha, eval)
			if beta <= alpha {
				break
			}
		}
		return maxEval
	}

	minEval := math.MaxInt32
	for _, col := range validColumns {
		testBoard, row, _ := simulate(board, col, opponent)
		if domain.CheckWin(testBoard, row, col, opponent) {
			// prefer delaying losses
			return minimaxLoss + (maxDepth - depth)
		}

		eval := minimax(testBoard, depth-1, maxDepth, alpha, beta, true, botPlayer, opponent)
		minEval = min(minEval, eval)
		beta = min(beta, eval)
		if beta <= alpha {
			break
		}
	}
	return minEval
}
