package controller

import (
	"ctchen222/tictactoe-minimax/internal/api/models"
	"ctchen222/tictactoe-minimax/internal/api/response"
	"ctchen222/tictactoe-minimax/internal/bot"
	"ctchen222/tictactoe-minimax/internal/game"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AnalysisController exposes the evaluator and the search engine on
// arbitrary boards. It keeps no state.
type AnalysisController struct{}

// NewAnalysisController creates a new AnalysisController.
func NewAnalysisController() *AnalysisController {
	return &AnalysisController{}
}

// Evaluate reports the outcome of a board.
func (ac *AnalysisController) Evaluate(c *gin.Context) {
	var req models.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	board := models.ToBoard(req.Board)
	if err := board.CheckMarks(); err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, game.Evaluate(board))
}

// BestMove reports the optimal cell for a mark.
func (ac *AnalysisController) BestMove(c *gin.Context) {
	var req models.BestMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	board := models.ToBoard(req.Board)
	if err := board.CheckMarks(); err != nil {
		response.FromError(c, err)
		return
	}

	choice, found := bot.BestMove(board, game.PlayerMark(req.Mark))
	response.SuccessResponse(c, models.BestMoveResponse{
		Cell:  choice.Cell,
		Score: choice.Score,
		Found: found,
	})
}
