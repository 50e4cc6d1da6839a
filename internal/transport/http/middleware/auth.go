package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/connectfour/backend/pkg/auth"
)

const (
	playerIDKey   = "player_id"
	playerNameKey = "player_name"
)

// AuthMiddleware validates the bearer JWT and stores the player on the gin context.
func AuthMiddleware(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token", "code": "unauthorized"})
			return
		}

		claims, err := issuer.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": "unauthorized"})
			return
		}

		c.Set(playerIDKey, claims.PlayerID)
		c.Set(playerNameKey, claims.Name)
		c.Next()
	}
}

// PlayerID returns the authenticated player, or "" outside AuthMiddleware.
func PlayerID(c *gin.Context) string {
	return c.GetString(playerIDKey)
}

func PlayerName(c *gin.Context) string {
	return c.GetString(playerNameKey)
}
