package domain

import (
	"fmt"
	"strings"
)

// Board is a value type: assigning or passing it copies every cell, so a caller
// holding an older snapshot never observes a later move.
// board[0] is the top row, board[Rows-1] the bottom row.
type Board [Rows][Columns]PlayerID

// Cell addresses one grid position.
type Cell struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

func NewBoard() Board {
	return Board{}
}

func InBounds(row, col int) bool {
	return row >= 0 && row < Rows && col >= 0 && col < Columns
}

func (b Board) At(row, col int) PlayerID {
	if !InBounds(row, col) {
		return Empty
	}
	return b[row][col]
}

// the top cell is the last one to fill
func (b Board) IsColumnFull(col int) bool {
	return b[0][col] != Empty
}

// ValidMoves lists the columns that can still take a disk.
func (b Board) ValidMoves() []int {
	moves := make([]int, 0, Columns)
	for col := 0; col < Columns; col++ {
		if !b.IsColumnFull(col) {
			moves = append(moves, col)
		}
	}
	return moves
}

// Count returns how many cells are occupied.
func (b Board) Count() int {
	n := 0
	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			if b[r][c] != Empty {
				n++
			}
		}
	}
	return n
}

// CountOf returns how many disks player has on the board.
func (b Board) CountOf(player PlayerID) int {
	n := 0
	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			if b[r][c] == player {
				n++
			}
		}
	}
	return n
}

// CellIndex flattens (row, col) into the 0..41 row-major index.
func CellIndex(row, col int) int {
	return row*Columns + col
}

func CellFromIndex(index int) (Cell, error) {
	if index < 0 || index >= Cells {
		return Cell{}, ErrOutOfRange
	}
	return Cell{Row: index / Columns, Column: index % Columns}, nil
}

// Ints converts the board to the [][]int shape used on the wire and in the database.
func (b Board) Ints() [][]int {
	out := make([][]int, Rows)
	for r := range b {
		out[r] = make([]int, Columns)
		for c := range b[r] {
			out[r][c] = int(b[r][c])
		}
	}
	return out
}

// BoardFromInts is the inverse of Ints. It rejects wrongly sized grids and unknown markers.
func BoardFromInts(cells [][]int) (Board, error) {
	var b Board
	if len(cells) != Rows {
		return b, fmt.Errorf("board must have %d rows, got %d", Rows, len(cells))
	}
	for r, row := range cells {
		if len(row) != Columns {
			return b, fmt.Errorf("row %d must have %d columns, got %d", r, Columns, len(row))
		}
		for c, v := range row {
			p := PlayerID(v)
			if p != Empty && !p.IsPlayer() {
				return b, fmt.Errorf("cell (%d,%d): %w", r, c, ErrInvalidPlayer)
			}
			b[r][c] = p
		}
	}
	return b, nil
}

func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			switch b[r][c] {
			case Player1:
				sb.WriteByte('X')
			case Player2:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		if r < Rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// this counts the number of disks in a specific direction
func CountDiskInDirection(board Board, row, column, deltaRow, deltaCol int, player PlayerID) int {
	count := 0
	r, c := row+deltaRow, column+deltaCol
	for InBounds(r, c) && board[r][c] == player {
		count++
		r += deltaRow
		c += deltaCol
	}
	return count
}
