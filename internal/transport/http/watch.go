package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type liveGameResponse struct {
	GameID    string    `json:"gameId"`
	Player1ID string    `json:"player1Id"`
	Player2ID string    `json:"player2Id"`
	Policy    string    `json:"policy"`
	MoveCount int       `json:"moveCount"`
	StartedAt time.Time `json:"startedAt"`
}

// GetLiveGames returns all accepted games still in progress, for spectating
func (s *Server) GetLiveGames(c *gin.Context) {
	active, err := s.games.ActiveGames(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	response := make([]liveGameResponse, 0, len(active))
	for _, g := range active {
		response = append(response, liveGameResponse{
			GameID:    g.GameID,
			Player1ID: g.Player1ID,
			Player2ID: g.Player2ID,
			Policy:    string(g.Policy),
			MoveCount: len(g.Moves),
			StartedAt: g.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, response)
}
