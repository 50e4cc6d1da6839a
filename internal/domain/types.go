package domain

import "strings"

// BotPlayerID is the player ID reserved for the built-in computer opponent.
const BotPlayerID = "bot"

var BotNames = map[string]string{
	"easy": "Alice",
	"hard": "Charles",
}

func GetBotName(difficulty string) string {
	if name, ok := BotNames[difficulty]; ok {
		return name
	}
	return "BOT"
}

// IsBotName reports whether name collides with the bot's ID or one of its display names.
func IsBotName(name string) bool {
	if strings.EqualFold(name, BotPlayerID) {
		return true
	}
	for _, n := range BotNames {
		if strings.EqualFold(name, n) {
			return true
		}
	}
	return false
}

type PlayerID int

const (
	Empty   PlayerID = 0
	Player1 PlayerID = 1
	Player2 PlayerID = 2
)

// Opponent returns the other player marker. Empty maps to Empty.
func (p PlayerID) Opponent() PlayerID {
	switch p {
	case Player1:
		return Player2
	case Player2:
		return Player1
	}
	return Empty
}

func (p PlayerID) IsPlayer() bool {
	return p == Player1 || p == Player2
}

const (
	Rows    = 6
	Columns = 7
	ToWin   = 4
	Cells   = Rows * Columns
)

// basic error that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrOutOfRange      Error = "move out of range"
	ErrColumnFull      Error = "column is full"
	ErrCellOccupied    Error = "cell is occupied"
	ErrNotYourTurn     Error = "not your turn"
	ErrGameAlreadyOver Error = "game is already over"
	ErrInvalidPlayer   Error = "invalid player"
	ErrInvalidPolicy   Error = "unknown move policy"
	ErrInvalidState    Error = "unknown game state"
)
