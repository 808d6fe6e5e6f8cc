package controller

import (
	"ctchen222/tictactoe-minimax/internal/api/models"
	"ctchen222/tictactoe-minimax/internal/api/response"
	"ctchen222/tictactoe-minimax/internal/api/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthController handles identity-related HTTP requests.
type AuthController struct {
	authService service.AuthService
}

// NewAuthController creates a new AuthController.
func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

// GuestLogin handles guest login, returning a generated player ID and its token.
func (ac *AuthController) GuestLogin(c *gin.Context) {
	token, playerID, err := ac.authService.GuestLogin(c.Request.Context())
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.CreatedResponse(c, models.GuestLoginResponse{Token: token, PlayerID: playerID})
}
