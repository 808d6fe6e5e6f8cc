package controller

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/api/middleware"
	"ctchen222/tictactoe-minimax/internal/api/models"
	"ctchen222/tictactoe-minimax/internal/api/response"
	"ctchen222/tictactoe-minimax/internal/repository"
	"ctchen222/tictactoe-minimax/internal/session"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionManager is the part of session.Manager the HTTP layer drives.
type SessionManager interface {
	Create(ctx context.Context, ownerID string, mode session.Mode, first session.First) *session.Session
	GetOwned(id, ownerID string) (*session.Session, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// SessionController handles session HTTP requests. Every route requires an
// authenticated player and only touches sessions that player owns.
type SessionController struct {
	manager SessionManager
	archive repository.RoundRepository
}

// NewSessionController creates a new SessionController.
func NewSessionController(manager SessionManager, archive repository.RoundRepository) *SessionController {
	return &SessionController{
		manager: manager,
		archive: archive,
	}
}

// Create opens a session for the caller.
func (sc *SessionController) Create(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	mode, err := session.ParseMode(req.Mode)
	if err != nil {
		response.FromError(c, err)
		return
	}
	first, err := session.ParseFirst(req.First)
	if err != nil {
		response.FromError(c, err)
		return
	}

	s := sc.manager.Create(c.Request.Context(), middleware.PlayerID(c), mode, first)
	response.CreatedResponse(c, s.State())
}

// Get returns the current state of a session.
func (sc *SessionController) Get(c *gin.Context) {
	s, ok := sc.owned(c)
	if !ok {
		return
	}
	response.SuccessResponse(c, s.State())
}

// Move plays the caller's mark on a cell.
func (sc *SessionController) Move(c *gin.Context) {
	var req models.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	sc.act(c, func(s *session.Session, ctx context.Context) (session.State, error) {
		return s.Play(ctx, *req.Cell)
	})
}

// Undo takes back the caller's last move.
func (sc *SessionController) Undo(c *gin.Context) {
	sc.act(c, (*session.Session).Undo)
}

// NewRound starts the next round, keeping the scores.
func (sc *SessionController) NewRound(c *gin.Context) {
	sc.act(c, (*session.Session).NewRound)
}

// Reset starts over with zeroed scores.
func (sc *SessionController) Reset(c *gin.Context) {
	sc.act(c, (*session.Session).ResetAll)
}

// Delete closes a session.
func (sc *SessionController) Delete(c *gin.Context) {
	if err := sc.manager.Delete(c.Request.Context(), c.Param("id"), middleware.PlayerID(c)); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, gin.H{"message": "Session closed"})
}

// History lists the session's archived rounds.
func (sc *SessionController) History(c *gin.Context) {
	var query models.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	s, ok := sc.owned(c)
	if !ok {
		return
	}

	rounds, err := sc.archive.ListBySession(c.Request.Context(), s.ID, query.Limit)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to list rounds", "session.id", s.ID, "error", err)
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, models.HistoryResponse{SessionID: s.ID, Rounds: rounds})
}

func (sc *SessionController) owned(c *gin.Context) (*session.Session, bool) {
	s, err := sc.manager.GetOwned(c.Param("id"), middleware.PlayerID(c))
	if err != nil {
		response.FromError(c, err)
		return nil, false
	}
	return s, true
}

func (sc *SessionController) act(c *gin.Context, action func(*session.Session, context.Context) (session.State, error)) {
	s, ok := sc.owned(c)
	if !ok {
		return
	}
	state, err := action(s, c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, state)
}
