package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/connectfour/backend/internal/service/game"
	"github.com/connectfour/backend/internal/transport/http/middleware"
	"github.com/connectfour/backend/pkg/auth"
)

// Server holds the REST handlers.
type Server struct {
	games  *game.Service
	issuer *auth.Issuer
	log    *zap.SugaredLogger
}

func NewServer(games *game.Service, issuer *auth.Issuer, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{games: games, issuer: issuer, log: log}
}

// Routes registers the REST API on r. The websocket endpoint is mounted separately.
func (s *Server) Routes(r *gin.Engine, allowedOrigins []string) {
	r.Use(middleware.CORSMiddleware(allowedOrigins, s.log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/players", s.Register)
	api.GET("/players/:id", s.PlayerByID)
	api.GET("/leaderboard", s.Leaderboard)
	api.GET("/games/live", s.GetLiveGames)

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(s.issuer))
	authed.GET("/me", s.Me)
	authed.POST("/games", s.CreateGame)
	authed.GET("/games/:id", s.GetGame)
	authed.POST("/games/:id/accept", s.AcceptInvite)
	authed.POST("/games/:id/decline", s.DeclineInvite)
	authed.POST("/games/:id/moves", s.MakeMove)
	authed.POST("/games/:id/resign", s.Resign)
	authed.GET("/history", s.GetHistory)
	authed.GET("/history/:id", s.GetGameDetails)
}
