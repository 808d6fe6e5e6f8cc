package response

import (
	"ctchen222/tictactoe-minimax/internal/api/service"
	"ctchen222/tictactoe-minimax/internal/game"
	"ctchen222/tictactoe-minimax/internal/session"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusOf maps a domain error to the HTTP status reported for it.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, game.ErrCellOccupied),
		errors.Is(err, game.ErrGameOver),
		errors.Is(err, game.ErrNothingToUndo),
		errors.Is(err, session.ErrNotYourTurn),
		errors.Is(err, session.ErrSessionClosed):
		return http.StatusConflict
	case errors.Is(err, game.ErrOutOfBounds),
		errors.Is(err, game.ErrInvalidMark),
		errors.Is(err, session.ErrInvalidMode),
		errors.Is(err, session.ErrInvalidFirst):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// FromError writes err as an error response with the status StatusOf picks.
// Unexpected errors are not echoed to the client.
func FromError(c *gin.Context, err error) {
	code := StatusOf(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		ErrorResponse(c, code, http.StatusText(code))
		return
	}
	ErrorResponse(c, code, err.Error())
}
