package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/connectfour/backend/internal/domain"
	"github.com/connectfour/backend/internal/service/game"
	"github.com/connectfour/backend/internal/transport/http/middleware"
)

func currentPlayer(c *gin.Context) string {
	return middleware.PlayerID(c)
}

type createGameRequest struct {
	OpponentID    string `json:"opponentId" binding:"required"`
	Policy        string `json:"policy"`
	BotDifficulty string `json:"botDifficulty"`
}

func (s *Server) CreateGame(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "opponentId is required")
		return
	}

	var policy domain.Policy
	if req.Policy != "" {
		p, err := domain.ParsePolicy(req.Policy)
		if err != nil {
			s.writeError(c, err)
			return
		}
		policy = p
	}

	rec, err := s.games.CreateGame(c.Request.Context(), game.NewGameRequest{
		CreatorID:     currentPlayer(c),
		OpponentID:    req.OpponentID,
		Policy:        policy,
		BotDifficulty: req.BotDifficulty,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewGameResponse(rec))
}

func (s *Server) GetGame(c *gin.Context) {
	rec, err := s.games.GetGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewGameResponse(rec))
}

func (s *Server) AcceptInvite(c *gin.Context) {
	rec, err := s.games.AcceptInvite(c.Request.Context(), c.Param("id"), currentPlayer(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewGameResponse(rec))
}

func (s *Server) DeclineInvite(c *gin.Context) {
	if err := s.games.DeclineInvite(c.Request.Context(), c.Param("id"), currentPlayer(c)); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MoveRequest accepts a column for gravity games, and a row/column pair or a flat
// cell index for direct placement games.
type MoveRequest struct {
	Column *int `json:"column"`
	Row    *int `json:"row"`
	Cell   *int `json:"cell"`
}

// ToMove resolves the request against the game's policy.
func (r MoveRequest) ToMove(policy domain.Policy) (domain.Move, string) {
	if r.Cell != nil {
		if policy != domain.DirectPlacement {
			return domain.Move{}, "cell is only valid for direct placement games"
		}
		m, err := domain.PlaceAtIndex(*r.Cell)
		if err != nil {
			return domain.Move{}, "cell must be between 0 and 41"
		}
		return m, ""
	}

	if r.Column == nil {
		return domain.Move{}, "column is required"
	}
	if policy == domain.DirectPlacement {
		if r.Row == nil {
			return domain.Move{}, "row is required for direct placement games"
		}
		return domain.PlaceMove(*r.Row, *r.Column), ""
	}
	return domain.DropMove(*r.Column), ""
}

func (s *Server) MakeMove(c *gin.Context) {
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid move body")
		return
	}

	ctx := c.Request.Context()
	gameID := c.Param("id")
	rec, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	move, problem := req.ToMove(rec.Policy)
	if problem != "" {
		badRequest(c, problem)
		return
	}

	rec, err = s.games.MakeMove(ctx, gameID, currentPlayer(c), move)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewGameResponse(rec))
}

func (s *Server) Resign(c *gin.Context) {
	rec, err := s.games.Resign(c.Request.Context(), c.Param("id"), currentPlayer(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewGameResponse(rec))
}
