package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/connectfour/backend/internal/service/game"
)

type registerRequest struct {
	Name string `json:"name" binding:"required"`
}

type registerResponse struct {
	Player game.Player `json:"player"`
	Token  string      `json:"token"`
}

// Register creates a player and returns the bearer token it plays with.
func (s *Server) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}

	player, err := s.games.RegisterPlayer(c.Request.Context(), req.Name)
	if err != nil {
		s.writeError(c, err)
		return
	}

	token, err := s.issuer.GenerateToken(player.ID, player.Name)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, registerResponse{Player: player, Token: token})
}

func (s *Server) Me(c *gin.Context) {
	s.writePlayer(c, currentPlayer(c))
}

func (s *Server) PlayerByID(c *gin.Context) {
	s.writePlayer(c, c.Param("id"))
}

func (s *Server) writePlayer(c *gin.Context, playerID string) {
	player, err := s.games.GetPlayer(c.Request.Context(), playerID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, player)
}

func (s *Server) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	players, err := s.games.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, players)
}
