package middleware

import (
	"ctchen222/tictactoe-minimax/internal/api/response"
	"ctchen222/tictactoe-minimax/internal/api/service"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const playerIDKey = "player_id"

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's player ID in the gin context.
func RequireAuth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		playerID, err := auth.ParseToken(token)
		if err != nil {
			slog.WarnContext(c.Request.Context(), "rejected token", "http.path", c.FullPath(), "error", err)
			response.AbortWithError(c, http.StatusUnauthorized, service.ErrInvalidToken.Error())
			return
		}

		trace.SpanFromContext(c.Request.Context()).SetAttributes(attribute.String("player.id", playerID))
		c.Set(playerIDKey, playerID)
		c.Next()
	}
}

// PlayerID returns the player ID stored by RequireAuth.
func PlayerID(c *gin.Context) string {
	return c.GetString(playerIDKey)
}
