package domain

import "strings"

// Policy selects how a move picks its target cell.
type Policy string

const (
	// GravityDrop drops the disk into the lowest open cell of a column.
	GravityDrop Policy = "gravity"
	// DirectPlacement puts the disk on an explicitly chosen empty cell.
	DirectPlacement Policy = "direct"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", GravityDrop:
		return GravityDrop, nil
	case DirectPlacement:
		return DirectPlacement, nil
	}
	return "", ErrInvalidPolicy
}

// Move is a column under GravityDrop or a (row, column) pair under DirectPlacement.
// Row is ignored for gravity drops.
type Move struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

func DropMove(col int) Move {
	return Move{Column: col}
}

func PlaceMove(row, col int) Move {
	return Move{Row: row, Column: col}
}

// PlaceAtIndex builds a direct placement from a flat 0..41 cell index.
func PlaceAtIndex(index int) (Move, error) {
	cell, err := CellFromIndex(index)
	if err != nil {
		return Move{}, err
	}
	return PlaceMove(cell.Row, cell.Column), nil
}

// ApplyMove returns a new board with the player's disk placed and the cell it landed in.
// The input board is never modified; on error the zero board is returned.
func ApplyMove(board Board, move Move, player PlayerID, policy Policy) (Board, Cell, error) {
	if !player.IsPlayer() {
		return Board{}, Cell{}, ErrInvalidPlayer
	}

	switch policy {
	case GravityDrop:
		row, err := DropDisk(&board, move.Column, player)
		if err != nil {
			return Board{}, Cell{}, err
		}
		return board, Cell{Row: row, Column: move.Column}, nil

	case DirectPlacement:
		if !InBounds(move.Row, move.Column) {
			return Board{}, Cell{}, ErrOutOfRange
		}
		if board[move.Row][move.Column] != Empty {
			return Board{}, Cell{}, ErrCellOccupied
		}
		board[move.Row][move.Column] = player
		return board, Cell{Row: move.Row, Column: move.Column}, nil
	}

	return Board{}, Cell{}, ErrInvalidPolicy
}

// DropDisk mutates the board it is given. Callers outside this package should use ApplyMove.
func DropDisk(board *Board, column int, player PlayerID) (int, error) {
	if column < 0 || column >= Columns {
		return -1, ErrOutOfRange
	}

	// shifting the disk from top to bottom till it
	// reaches the end or another disk
	for row := Rows - 1; row >= 0; row-- {
		if board[row][column] == Empty {
			board[row][column] = player
			return row, nil
		}
	}

	return -1, ErrColumnFull
}
