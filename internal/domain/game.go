package domain

// GameState values are stored verbatim by every session store and archive.
type GameState string

const (
	StatePlayer1Turn GameState = "player1_turn"
	StatePlayer2Turn GameState = "player2_turn"
	StatePlayer1Won  GameState = "player1_won"
	StatePlayer2Won  GameState = "player2_won"
	StateDraw        GameState = "draw"
)

const InitialState = StatePlayer1Turn

func ParseGameState(s string) (GameState, error) {
	switch st := GameState(s); st {
	case StatePlayer1Turn, StatePlayer2Turn, StatePlayer1Won, StatePlayer2Won, StateDraw:
		return st, nil
	}
	return "", ErrInvalidState
}

func (s GameState) IsTerminal() bool {
	return s == StatePlayer1Won || s == StatePlayer2Won || s == StateDraw
}

// ToMove returns the player expected to move, or Empty in a terminal state.
func (s GameState) ToMove() PlayerID {
	switch s {
	case StatePlayer1Turn:
		return Player1
	case StatePlayer2Turn:
		return Player2
	}
	return Empty
}

// Winner returns the winning player for a won state.
func (s GameState) Winner() (PlayerID, bool) {
	switch s {
	case StatePlayer1Won:
		return Player1, true
	case StatePlayer2Won:
		return Player2, true
	}
	return Empty, false
}

func TurnState(p PlayerID) GameState {
	if p == Player2 {
		return StatePlayer2Turn
	}
	return StatePlayer1Turn
}

func WonState(p PlayerID) GameState {
	if p == Player2 {
		return StatePlayer2Won
	}
	return StatePlayer1Won
}

// AdvanceState computes the state after player's disk landed on board at landing.
// Win is checked before draw so a board filled by a winning move reports the win.
func AdvanceState(current GameState, board Board, landing Cell, player PlayerID) GameState {
	if current.IsTerminal() {
		return current
	}

	if CheckWin(board, landing.Row, landing.Column, player) {
		return WonState(player)
	}

	if IsDraw(board) {
		return StateDraw
	}

	return TurnState(player.Opponent())
}

// Play validates and applies one move against a state/board snapshot. On any error the
// returned board and state are the inputs, unchanged.
func Play(state GameState, board Board, move Move, player PlayerID, policy Policy) (Board, Cell, GameState, error) {
	if state.IsTerminal() {
		return board, Cell{}, state, ErrGameAlreadyOver
	}

	if !player.IsPlayer() {
		return board, Cell{}, state, ErrInvalidPlayer
	}

	if state.ToMove() != player {
		return board, Cell{}, state, ErrNotYourTurn
	}

	next, landing, err := ApplyMove(board, move, player, policy)
	if err != nil {
		return board, Cell{}, state, err
	}

	return next, landing, AdvanceState(state, next, landing, player), nil
}
