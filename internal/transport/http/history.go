package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type GameHistoryItem struct {
	ID               string    `json:"id"`
	OpponentID       string    `json:"opponentId"`
	OpponentUsername string    `json:"opponentUsername"`
	Result           string    `json:"result"` // "win", "loss", "draw"
	EndReason        string    `json:"endReason"`
	CreatedAt        time.Time `json:"createdAt"`
	FinishedAt       time.Time `json:"finishedAt"`
	MovesCount       int       `json:"movesCount"`
	DurationSeconds  int       `json:"durationSeconds"`
}

func (s *Server) GetHistory(c *gin.Context) {
	playerID := currentPlayer(c)

	games, err := s.games.History(c.Request.Context(), playerID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	history := make([]GameHistoryItem, 0, len(games))
	for _, g := range games {
		item := GameHistoryItem{
			ID:              g.GameID,
			EndReason:       g.Reason,
			CreatedAt:       g.CreatedAt,
			FinishedAt:      g.FinishedAt,
			MovesCount:      len(g.Moves),
			DurationSeconds: g.DurationSeconds(),
		}

		if g.Player1ID == playerID {
			item.OpponentID, item.OpponentUsername = g.Player2ID, g.Player2Name
		} else {
			item.OpponentID, item.OpponentUsername = g.Player1ID, g.Player1Name
		}

		switch g.WinnerID {
		case "":
			item.Result = "draw"
		case playerID:
			item.Result = "win"
		default:
			item.Result = "loss"
		}

		history = append(history, item)
	}

	c.JSON(http.StatusOK, history)
}

type gameDetailsResponse struct {
	GameID      string    `json:"gameId"`
	Player1ID   string    `json:"player1Id"`
	Player1Name string    `json:"player1Name"`
	Player2ID   string    `json:"player2Id"`
	Player2Name string    `json:"player2Name"`
	WinnerID    string    `json:"winnerId,omitempty"`
	State       string    `json:"state"`
	Reason      string    `json:"reason"`
	Policy      string    `json:"policy"`
	Moves       []int     `json:"moves"`
	Board       [][]int   `json:"board_state"`
	CreatedAt   time.Time `json:"createdAt"`
	FinishedAt  time.Time `json:"finishedAt"`
}

func (s *Server) GetGameDetails(c *gin.Context) {
	g, err := s.games.ArchivedGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	moves := g.Moves
	if moves == nil {
		moves = []int{}
	}
	c.JSON(http.StatusOK, gameDetailsResponse{
		GameID:      g.GameID,
		Player1ID:   g.Player1ID,
		Player1Name: g.Player1Name,
		Player2ID:   g.Player2ID,
		Player2Name: g.Player2Name,
		WinnerID:    g.WinnerID,
		State:       string(g.State),
		Reason:      g.Reason,
		Policy:      string(g.Policy),
		Moves:       moves,
		Board:       g.Board.Ints(),
		CreatedAt:   g.CreatedAt,
		FinishedAt:  g.FinishedAt,
	})
}
