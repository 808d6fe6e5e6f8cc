package server

import (
	"ctchen222/tictactoe-minimax/internal/api/controller"
	"ctchen222/tictactoe-minimax/internal/api/middleware"
	"ctchen222/tictactoe-minimax/internal/api/service"
	"ctchen222/tictactoe-minimax/internal/events"
	"ctchen222/tictactoe-minimax/internal/repository"
	"ctchen222/tictactoe-minimax/internal/session"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("server")

// Server owns the gin engine serving the HTTP API and the session websocket.
type Server struct {
	engine     *gin.Engine
	manager    *session.Manager
	subscriber events.Subscriber
	auth       service.AuthService
	upgrader   websocket.Upgrader
}

// NewServer builds the engine and registers every route.
func NewServer(manager *session.Manager, subscriber events.Subscriber, archive repository.RoundRepository, auth service.AuthService) *Server {
	s := &Server{
		engine:     gin.New(),
		manager:    manager,
		subscriber: subscriber,
		auth:       auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.engine.Use(gin.Recovery(), requestLogger())
	s.registerHandlers(
		controller.NewAuthController(auth),
		controller.NewSessionController(manager, archive),
		controller.NewAnalysisController(),
	)
	return s
}

// Engine returns the http.Handler to serve.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerHandlers(authController *controller.AuthController, sessionController *controller.SessionController, analysisController *controller.AnalysisController) {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	s.engine.GET("/ws", s.handleWebSocket)

	api := s.engine.Group("/api")
	api.POST("/auth/guest", authController.GuestLogin)
	api.POST("/evaluate", analysisController.Evaluate)
	api.POST("/best-move", analysisController.BestMove)

	sessions := api.Group("/sessions", middleware.RequireAuth(s.auth))
	sessions.POST("", sessionController.Create)
	sessions.GET("/:id", sessionController.Get)
	sessions.DELETE("/:id", sessionController.Delete)
	sessions.POST("/:id/moves", sessionController.Move)
	sessions.POST("/:id/undo", sessionController.Undo)
	sessions.POST("/:id/rounds", sessionController.NewRound)
	sessions.POST("/:id/reset", sessionController.Reset)
	sessions.GET("/:id/history", sessionController.History)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"http.method", c.Request.Method,
			"http.path", c.FullPath(),
			"http.status", c.Writer.Status(),
			"http.duration", time.Since(start),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
			slog.ErrorContext(c.Request.Context(), "request failed", attrs...)
			return
		}
		slog.DebugContext(c.Request.Context(), "request served", attrs...)
	}
}
