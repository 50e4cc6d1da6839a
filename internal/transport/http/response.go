package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/connectfour/backend/internal/domain"
	"github.com/connectfour/backend/internal/service/game"
)

// GameResponse is the wire form of a live game shared by REST and websocket clients.
type GameResponse struct {
	GameID        string           `json:"gameId"`
	Board         [][]int          `json:"board"`
	State         domain.GameState `json:"state"`
	Policy        domain.Policy    `json:"policy"`
	Player1ID     string           `json:"player1Id"`
	Player2ID     string           `json:"player2Id"`
	BotDifficulty string           `json:"botDifficulty,omitempty"`
	Accepted      bool             `json:"accepted"`
	ToMove        string           `json:"toMove,omitempty"`
	WinnerID      string           `json:"winnerId,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	Moves         []int            `json:"moves"`
	LastMove      *domain.Cell     `json:"lastMove,omitempty"`
	ValidColumns  []int            `json:"validColumns"`
	Version       int64            `json:"version"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func NewGameResponse(rec game.Record) GameResponse {
	resp := GameResponse{
		GameID:        rec.GameID,
		Board:         rec.Board.Ints(),
		State:         rec.State,
		Policy:        rec.Policy,
		Player1ID:     rec.Player1ID,
		Player2ID:     rec.Player2ID,
		BotDifficulty: rec.BotDifficulty,
		Accepted:      rec.Accepted,
		WinnerID:      rec.WinnerID(),
		Reason:        rec.Reason,
		Moves:         rec.Moves,
		LastMove:      rec.LastMove,
		ValidColumns:  []int{},
		Version:       rec.Version,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
	if resp.Moves == nil {
		resp.Moves = []int{}
	}
	if p := rec.State.ToMove(); p != domain.Empty && rec.Accepted {
		resp.ToMove = rec.PlayerIDFor(p)
		resp.ValidColumns = rec.Board.ValidMoves()
	}
	return resp
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{game.ErrGameNotFound, http.StatusNotFound, "game_not_found"},
	{game.ErrPlayerNotFound, http.StatusNotFound, "player_not_found"},
	{game.ErrNotAPlayer, http.StatusForbidden, "not_a_player"},
	{game.ErrInvitePending, http.StatusConflict, "invite_pending"},
	{game.ErrInviteNotPending, http.StatusConflict, "invite_not_pending"},
	{game.ErrVersionConflict, http.StatusConflict, "conflict"},
	{game.ErrSelfInvite, http.StatusBadRequest, "self_invite"},
	{game.ErrInvalidName, http.StatusBadRequest, "invalid_name"},
	{domain.ErrNotYourTurn, http.StatusConflict, "not_your_turn"},
	{domain.ErrGameAlreadyOver, http.StatusConflict, "game_over"},
	{domain.ErrColumnFull, http.StatusUnprocessableEntity, "column_full"},
	{domain.ErrCellOccupied, http.StatusUnprocessableEntity, "cell_occupied"},
	{domain.ErrOutOfRange, http.StatusUnprocessableEntity, "out_of_range"},
	{domain.ErrInvalidPolicy, http.StatusBadRequest, "invalid_policy"},
	{domain.ErrInvalidPlayer, http.StatusBadRequest, "invalid_player"},
}

// ErrorStatus maps a service or rules error to an HTTP status and a stable code.
func ErrorStatus(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

func (s *Server) writeError(c *gin.Context, err error) {
	status, code := ErrorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Errorf("[HTTP] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: msg, Code: code})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg, Code: "bad_request"})
}
