package controller

import (
	"bytes"
	"context"
	"ctchen222/tictactoe-minimax/internal/api/middleware"
	"ctchen222/tictactoe-minimax/internal/api/models"
	"ctchen222/tictactoe-minimax/internal/api/service"
	"ctchen222/tictactoe-minimax/internal/bot"
	"ctchen222/tictactoe-minimax/internal/db"
	"ctchen222/tictactoe-minimax/internal/game"
	"ctchen222/tictactoe-minimax/internal/repository"
	"ctchen222/tictactoe-minimax/internal/session"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stalledDelays = bot.Delays{Easy: time.Hour, Medium: time.Hour, Hard: time.Hour}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Extras  json.RawMessage `json:"extras"`
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	auth   service.AuthService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	conn, err := db.Connect(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.InitializeDB(ctx, conn))
	archive := repository.NewRoundRepository(conn)

	auth := service.NewAuthService("secret", time.Hour)
	manager := session.NewManager(session.Deps{Archive: archive}, stalledDelays, time.Hour)

	authController := NewAuthController(auth)
	sessionController := NewSessionController(manager, archive)
	analysisController := NewAnalysisController()

	r := gin.New()
	api := r.Group("/api")
	api.POST("/auth/guest", authController.GuestLogin)
	api.POST("/evaluate", analysisController.Evaluate)
	api.POST("/best-move", analysisController.BestMove)

	sessions := api.Group("/sessions", middleware.RequireAuth(auth))
	sessions.POST("", sessionController.Create)
	sessions.GET("/:id", sessionController.Get)
	sessions.DELETE("/:id", sessionController.Delete)
	sessions.POST("/:id/moves", sessionController.Move)
	sessions.POST("/:id/undo", sessionController.Undo)
	sessions.POST("/:id/rounds", sessionController.NewRound)
	sessions.POST("/:id/reset", sessionController.Reset)
	sessions.GET("/:id/history", sessionController.History)

	return &testAPI{t: t, router: r, auth: auth}
}

func (a *testAPI) token() string {
	a.t.Helper()
	token, _, err := a.auth.GuestLogin(context.Background())
	require.NoError(a.t, err)
	return token
}

func (a *testAPI) do(method, path, token string, body any) (int, envelope) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (a *testAPI) createSession(token string, req models.CreateSessionRequest) session.State {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/api/sessions", token, req)
	require.Equal(a.t, http.StatusCreated, code)
	return decode[session.State](a.t, env)
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Extras, &v))
	return v
}

func message(t *testing.T, env envelope) string {
	t.Helper()
	return decode[map[string]string](t, env)["message"]
}

func move(cell int) models.MoveRequest {
	return models.MoveRequest{Cell: &cell}
}

func TestGuestLogin(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(http.MethodPost, "/api/auth/guest", "", nil)

	require.Equal(t, http.StatusCreated, code)
	assert.True(t, env.Success)
	login := decode[models.GuestLoginResponse](t, env)
	playerID, err := api.auth.ParseToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, login.PlayerID, playerID)
}

func TestCreateSession(t *testing.T) {
	api := newTestAPI(t)
	token := api.token()

	t.Run("Defaults", func(t *testing.T) {
		state := api.createSession(token, models.CreateSessionRequest{})
		assert.NotEmpty(t, state.ID)
		assert.Equal(t, session.ModeAIHard, state.Mode)
		assert.Equal(t, session.FirstHuman, state.First)
		assert.Equal(t, game.PlayerX, state.Turn)
		assert.Equal(t, 1, state.Round)
	})

	t.Run("Bot opens", func(t *testing.T) {
		state := api.createSession(token, models.CreateSessionRequest{Mode: "ai-easy", First: "ai"})
		assert.Equal(t, game.PlayerO, state.Turn)
		assert.True(t, state.AIThinking)
	})

	t.Run("Unknown mode", func(t *testing.T) {
		code, env := api.do(http.MethodPost, "/api/sessions", token, models.CreateSessionRequest{Mode: "chess"})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.False(t, env.Success)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		code, _ := api.do(http.MethodPost, "/api/sessions", "", models.CreateSessionRequest{})
		assert.Equal(t, http.StatusUnauthorized, code)
	})
}

func TestSessionMoves(t *testing.T) {
	api := newTestAPI(t)
	token := api.token()
	state := api.createSession(token, models.CreateSessionRequest{Mode: "pvp"})
	path := "/api/sessions/" + state.ID

	code, env := api.do(http.MethodPost, path+"/moves", token, move(4))
	require.Equal(t, http.StatusOK, code)
	state = decode[session.State](t, env)
	assert.Equal(t, game.PlayerX, state.Cells[4])
	assert.Equal(t, game.PlayerO, state.Turn)

	tests := []struct {
		name     string
		body     any
		wantCode int
	}{
		{"Occupied cell", move(4), http.StatusConflict},
		{"Out of bounds", move(9), http.StatusBadRequest},
		{"Missing cell", map[string]any{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := api.do(http.MethodPost, path+"/moves", token, tt.body)
			assert.Equal(t, tt.wantCode, code)
			assert.False(t, env.Success)
		})
	}

	code, env = api.do(http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[session.State](t, env).History, 1)
}

func TestSessionMoveDuringBotTurn(t *testing.T) {
	api := newTestAPI(t)
	token := api.token()
	state := api.createSession(token, models.CreateSessionRequest{Mode: "ai-hard", First: "ai"})

	code, env := api.do(http.MethodPost, "/api/sessions/"+state.ID+"/moves", token, move(4))

	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, session.ErrNotYourTurn.Error(), message(t, env))
}

func TestSessionOwnership(t *testing.T) {
	api := newTestAPI(t)
	owner := api.token()
	stranger := api.token()
	state := api.createSession(owner, models.CreateSessionRequest{Mode: "pvp"})

	code, _ := api.do(http.MethodGet, "/api/sessions/"+state.ID, stranger, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = api.do(http.MethodPost, "/api/sessions/"+state.ID+"/moves", stranger, move(0))
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = api.do(http.MethodDelete, "/api/sessions/"+state.ID, stranger, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = api.do(http.MethodGet, "/api/sessions/unknown", owner, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSessionRoundLifecycle(t *testing.T) {
	api := newTestAPI(t)
	token := api.token()
	state := api.createSession(token, models.CreateSessionRequest{Mode: "pvp"})
	path := "/api/sessions/" + state.ID

	code, _ := api.do(http.MethodPost, path+"/undo", token, nil)
	assert.Equal(t, http.StatusConflict, code, "nothing to undo yet")

	// X takes the left column.
	for _, cell := range []int{0, 1, 3, 4, 6} {
		code, env := api.do(http.MethodPost, path+"/moves", token, move(cell))
		require.Equal(t, http.StatusOK, code)
		state = decode[session.State](t, env)
	}
	assert.Equal(t, game.Win, state.Outcome.Status)
	assert.Equal(t, game.Line{0, 3, 6}, *state.Outcome.Line)
	assert.Equal(t, 1, state.Scores.X)

	code, env := api.do(http.MethodGet, path+"/history", token, nil)
	require.Equal(t, http.StatusOK, code)
	history := decode[models.HistoryResponse](t, env)
	require.Len(t, history.Rounds, 1)
	assert.Equal(t, game.PlayerX, history.Rounds[0].Outcome.Winner)
	assert.Len(t, history.Rounds[0].Moves, 5)

	code, _ = api.do(http.MethodGet, path+"/history?limit=0", token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodGet, path+"/history?limit=500", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = api.do(http.MethodPost, path+"/rounds", token, nil)
	require.Equal(t, http.StatusOK, code)
	state = decode[session.State](t, env)
	assert.Equal(t, 2, state.Round)
	assert.Equal(t, 1, state.Scores.X)

	code, env = api.do(http.MethodPost, path+"/reset", token, nil)
	require.Equal(t, http.StatusOK, code)
	state = decode[session.State](t, env)
	assert.Equal(t, 3, state.Round)
	assert.Equal(t, session.Scores{}, state.Scores)

	code, _ = api.do(http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func cells(b game.Board) []game.PlayerMark {
	return b[:]
}

func TestEvaluate(t *testing.T) {
	api := newTestAPI(t)

	board := game.Board{game.PlayerO, game.PlayerX, game.None, game.PlayerO, game.PlayerX, game.None, game.None, game.PlayerX, game.None}
	code, env := api.do(http.MethodPost, "/api/evaluate", "", models.EvaluateRequest{Board: cells(board)})
	require.Equal(t, http.StatusOK, code)
	outcome := decode[game.Outcome](t, env)
	assert.Equal(t, game.Win, outcome.Status)
	assert.Equal(t, game.PlayerX, outcome.Winner)
	assert.Equal(t, game.Line{1, 4, 7}, *outcome.Line)

	code, env = api.do(http.MethodPost, "/api/evaluate", "", models.EvaluateRequest{Board: cells(game.Board{})})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, game.InProgress, decode[game.Outcome](t, env).Status)
}

func TestEvaluateRejectsMalformedBoards(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name string
		body any
	}{
		{"Missing board", map[string]any{}},
		{"Null board", map[string]any{"board": nil}},
		{"Empty board", map[string]any{"board": []string{}}},
		{"Short board", map[string]any{"board": []string{"X", "O"}}},
		{"Long board", map[string]any{"board": []string{"X", "O", "", "", "", "", "", "", "", "X", "X", "X"}}},
		{"Invalid mark", map[string]any{"board": []string{"Z", "", "", "", "", "", "", "", ""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := api.do(http.MethodPost, "/api/evaluate", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
		})
	}
}

func TestBestMove(t *testing.T) {
	api := newTestAPI(t)
	full := game.Board{game.PlayerX, game.PlayerO, game.PlayerX, game.PlayerX, game.PlayerO, game.PlayerO, game.PlayerO, game.PlayerX, game.PlayerX}

	tests := []struct {
		name     string
		body     any
		wantCode int
		want     models.BestMoveResponse
	}{
		{
			name:     "Immediate win",
			body:     models.BestMoveRequest{Board: cells(game.Board{game.PlayerO, game.PlayerO, game.None, game.PlayerX, game.PlayerX}), Mark: "O"},
			wantCode: http.StatusOK,
			want:     models.BestMoveResponse{Cell: 2, Score: 10, Found: true},
		},
		{
			name:     "Full board",
			body:     models.BestMoveRequest{Board: cells(full), Mark: "X"},
			wantCode: http.StatusOK,
			want:     models.BestMoveResponse{Cell: bot.NoMove, Score: 0, Found: false},
		},
		{
			name:     "Missing mark",
			body:     models.BestMoveRequest{},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "Missing board",
			body:     map[string]any{"mark": "O"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "Short board",
			body:     map[string]any{"board": []string{"X"}, "mark": "O"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "Long board",
			body:     map[string]any{"board": []string{"", "", "", "", "", "", "", "", "", "O"}, "mark": "O"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "Invalid cell mark",
			body:     map[string]any{"board": []string{"X", "?", "", "", "", "", "", "", ""}, "mark": "O"},
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := api.do(http.MethodPost, "/api/best-move", "", tt.body)
			require.Equal(t, tt.wantCode, code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.want, decode[models.BestMoveResponse](t, env))
			}
		})
	}
}
