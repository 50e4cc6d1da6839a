package domain

// CheckWin only checks lines passing through (row, column), the cell that was just played.
func CheckWin(board Board, row, column int, player PlayerID) bool {
	if !player.IsPlayer() || !InBounds(row, column) {
		return false
	}

	return checkHorizontal(board, row, player) ||
		checkVertical(board, column, player) ||
		checkDiagonal(board, row, column, player) ||
		checkAntiDiagonal(board, row, column, player)
}

func checkHorizontal(board Board, row int, player PlayerID) bool {
	count := 0
	for c := 0; c < Columns; c++ {
		if board[row][c] == player {
			count++
			if count == ToWin {
				return true
			}
		} else {
			count = 0
		}
	}
	return false
}

func checkVertical(board Board, column int, player PlayerID) bool {
	count := 0
	for r := 0; r < Rows; r++ {
		if board[r][column] == player {
			count++
			if count == ToWin {
				return true
			}
		} else {
			count = 0
		}
	}
	return false
}

// diagonal \ : every length-4 window that contains (row, column)
func checkDiagonal(board Board, row, column int, player PlayerID) bool {
	for offset := -(ToWin - 1); offset <= 0; offset++ {
		if windowMatches(board, row+offset, column+offset, 1, 1, player) {
			return true
		}
	}
	return false
}

// diagonal / : top-right to bottom-left
func checkAntiDiagonal(board Board, row, column int, player PlayerID) bool {
	for offset := -(ToWin - 1); offset <= 0; offset++ {
		if windowMatches(board, row+offset, column-offset, 1, -1, player) {
			return true
		}
	}
	return false
}

// windowMatches reports whether the ToWin cells starting at (row, col) and stepping by
// (dRow, dCol) all hold player. A window that leaves the grid never matches.
func windowMatches(board Board, row, col, dRow, dCol int, player PlayerID) bool {
	for i := 0; i < ToWin; i++ {
		r, c := row+i*dRow, col+i*dCol
		if !InBounds(r, c) || board[r][c] != player {
			return false
		}
	}
	return true
}

// FindWinner scans the whole board. It is slower than CheckWin and is used to validate
// boards that did not come from a single known move.
func FindWinner(board Board) (PlayerID, bool) {
	directions := [][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}
	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			p := board[r][c]
			if p == Empty {
				continue
			}
			for _, d := range directions {
				if windowMatches(board, r, c, d[0], d[1], p) {
					return p, true
				}
			}
		}
	}
	return Empty, false
}

// IsDraw checks every cell rather than the top row, since direct placement can fill
// the top row before the rows below it.
func IsDraw(board Board) bool {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			if board[r][c] == Empty {
				return false
			}
		}
	}
	return true
}

type OutcomeKind string

const (
	NoWinner  OutcomeKind = "none"
	HasWinner OutcomeKind = "winner"
	Drawn     OutcomeKind = "draw"
)

// Outcome is always derived from a board, never stored on its own.
type Outcome struct {
	Kind   OutcomeKind
	Winner PlayerID
}

// Evaluate classifies a board. A full board with a run of four is a win, not a draw.
func Evaluate(board Board) Outcome {
	if p, ok := FindWinner(board); ok {
		return Outcome{Kind: HasWinner, Winner: p}
	}
	if IsDraw(board) {
		return Outcome{Kind: Drawn}
	}
	return Outcome{Kind: NoWinner}
}
