package game

import (
	"context"
	"errors"
	"time"

	"github.com/connectfour/backend/internal/domain"
)

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrGameExists       = errors.New("game already exists")
	ErrVersionConflict  = errors.New("game was modified concurrently")
	ErrNotAPlayer       = errors.New("not a player in this game")
	ErrInvitePending    = errors.New("invitation has not been accepted")
	ErrInviteNotPending = errors.New("no pending invitation")
	ErrSelfInvite       = errors.New("cannot invite yourself")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrInvalidName      = errors.New("invalid player name")
)

// Record is the authoritative state of one game as kept by a SessionStore.
type Record struct {
	GameID        string           `json:"gameId"`
	Board         domain.Board     `json:"board"`
	State         domain.GameState `json:"state"`
	Policy        domain.Policy    `json:"policy"`
	Player1ID     string           `json:"player1Id"`
	Player2ID     string           `json:"player2Id"`
	BotDifficulty string           `json:"botDifficulty,omitempty"`
	Accepted      bool             `json:"accepted"`
	Moves         []int            `json:"moves"` // flat cell indices in play order
	LastMove      *domain.Cell     `json:"lastMove,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	Version       int64            `json:"version"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	FinishedAt    time.Time        `json:"finishedAt"`
}

// Clone returns a copy that shares no memory with r.
func (r Record) Clone() Record {
	out := r
	out.Moves = append([]int(nil), r.Moves...)
	if r.LastMove != nil {
		lm := *r.LastMove
		out.LastMove = &lm
	}
	return out
}

// PlayerFor maps a player ID onto the marker it plays with.
func (r Record) PlayerFor(playerID string) (domain.PlayerID, bool) {
	switch playerID {
	case "":
		return domain.Empty, false
	case r.Player1ID:
		return domain.Player1, true
	case r.Player2ID:
		return domain.Player2, true
	}
	return domain.Empty, false
}

func (r Record) PlayerIDFor(p domain.PlayerID) string {
	if p == domain.Player2 {
		return r.Player2ID
	}
	return r.Player1ID
}

func (r Record) IsBotGame() bool {
	return r.Player2ID == domain.BotPlayerID
}

// WinnerID is empty while the game runs and after a draw.
func (r Record) WinnerID() string {
	if p, ok := r.State.Winner(); ok {
		return r.PlayerIDFor(p)
	}
	return ""
}

// SessionStore holds live games. CompareAndSwap and Delete must fail with
// ErrVersionConflict when the stored version differs from expectedVersion. A successful
// CompareAndSwap notifies subscribers; a successful Delete ends their subscriptions.
type SessionStore interface {
	Create(ctx context.Context, rec Record) error
	Get(ctx context.Context, gameID string) (Record, error)
	CompareAndSwap(ctx context.Context, rec Record, expectedVersion int64) error
	Delete(ctx context.Context, gameID string, expectedVersion int64) error
	List(ctx context.Context) ([]Record, error)
	Subscribe(ctx context.Context, gameID string) (<-chan Record, func(), error)
}

// Player is a registered participant with lifetime stats.
type Player struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Rating      int       `json:"rating"`
	GamesPlayed int       `json:"gamesPlayed"`
	GamesWon    int       `json:"gamesWon"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FinishedGame is the archived summary of a game that reached a terminal state.
type FinishedGame struct {
	GameID      string           `json:"gameId"`
	Player1ID   string           `json:"player1Id"`
	Player1Name string           `json:"player1Name"`
	Player2ID   string           `json:"player2Id"`
	Player2Name string           `json:"player2Name"`
	WinnerID    string           `json:"winnerId,omitempty"`
	State       domain.GameState `json:"state"`
	Reason      string           `json:"reason"`
	Policy      domain.Policy    `json:"policy"`
	Moves       []int            `json:"moves"`
	Board       domain.Board     `json:"board"`
	CreatedAt   time.Time        `json:"createdAt"`
	FinishedAt  time.Time        `json:"finishedAt"`
}

func (g FinishedGame) DurationSeconds() int {
	return int(g.FinishedAt.Sub(g.CreatedAt).Seconds())
}

// Archive stores players and finished games. SaveGame also updates both players'
// stats and ratings; bot seats have no player row and are skipped.
type Archive interface {
	UpsertPlayer(ctx context.Context, p Player) error
	GetPlayer(ctx context.Context, playerID string) (*Player, error)
	SaveGame(ctx context.Context, g FinishedGame) error
	GetGame(ctx context.Context, gameID string) (*FinishedGame, error)
	History(ctx context.Context, playerID string) ([]FinishedGame, error)
	Leaderboard(ctx context.Context, limit int) ([]Player, error)
}
