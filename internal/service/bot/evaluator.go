package bot

import (
	"github.com/connectfour/backend/internal/domain"
)

const (
	positionWeight   = 10
	twoInRowWeight   = 50
	threeInRowWeight = 500
)

var directions = [4][2]int{
	{0, 1},  // horizontal
	{1, 0},  // vertical
	{1, 1},  // diagonal \
	{1, -1}, // diagonal /
}

// evaluateBoard calculates a heuristic score for the current board position
func evaluateBoard(board domain.Board, botPlayer, opponent domain.PlayerID) int {
	score := 0

	for row := 0; row < domain.Rows; row++ {
		for col := 0; col < domain.Columns; col++ {
			switch board[row][col] {
			case botPlayer:
				score += evaluatePosition(board, row, col, botPlayer)
			case opponent:
				score -= evaluatePosition(board, row, col, opponent)
			}
		}
	}

	centerCol := domain.Columns / 2
	for row := 0; row < domain.Rows; row++ {
		switch board[row][centerCol] {
		case botPlayer:
			score += positionWeight * 2
		case opponent:
			score -= positionWeight * 2
		}
	}

	return score
}

// evaluatePosition scores the lines running through one disk that can still be extended.
func evaluatePosition(board domain.Board, row, col int, player domain.PlayerID) int {
	score := positionWeight

	for _, dir := range directions {
		dRow, dCol := dir[0], dir[1]

		posCount := domain.CountDiskInDirection(board, row, col, dRow, dCol, player)
		negCount := domain.CountDiskInDirection(board, row, col, -dRow, -dCol, player)
		total := posCount + negCount

		if !checkSpaceForExtension(board, row, col, dRow, dCol, posCount, negCount) {
			continue
		}

		if total >= 2 {
			score += threeInRowWeight
		} else if total == 1 {
			score += twoInRowWeight
		}
	}

	return score
}

func checkSpaceForExtension(board domain.Board, row, col, dRow, dCol, posCount, negCount int) bool {
	posRow := row + dRow*(posCount+1)
	posCol := col + dCol*(posCount+1)
	if domain.InBounds(posRow, posCol) && board[posRow][posCol] == domain.Empty && isPlayableSpace(board, posRow, posCol) {
		return true
	}

	negRow := row - dRow*(negCount+1)
	negCol := col - dCol*(negCount+1)
	if domain.InBounds(negRow, negCol) && board[negRow][negCol] == domain.Empty && isPlayableSpace(board, negRow, negCol) {
		return true
	}

	return false
}

// a cell is playable when it sits on the bottom row or on top of another disk
func isPlayableSpace(board domain.Board, row, col int) bool {
	if row == domain.Rows-1 {
		return true
	}
	return board[row+1][col] != domain.Empty
}
