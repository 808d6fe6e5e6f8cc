package models

import (
	"ctchen222/tictactoe-minimax/internal/game"
	"ctchen222/tictactoe-minimax/internal/repository"
)

// GuestLoginResponse is returned by the guest login endpoint.
type GuestLoginResponse struct {
	Token    string `json:"token"`
	PlayerID string `json:"player_id"`
}

// CreateSessionRequest opens a session. Empty fields take the defaults.
type CreateSessionRequest struct {
	Mode  string `json:"mode" binding:"omitempty,oneof=pvp ai-easy ai-medium ai-hard"`
	First string `json:"first" binding:"omitempty,oneof=human ai random"`
}

// MoveRequest places a mark. Cell is a pointer so that cell 0 is distinguishable from a missing field.
type MoveRequest struct {
	Cell *int `json:"cell" binding:"required"`
}

// HistoryQuery selects how many archived rounds to return.
type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// HistoryResponse lists archived rounds, newest first.
type HistoryResponse struct {
	SessionID string             `json:"session_id"`
	Rounds    []repository.Round `json:"rounds"`
}

// EvaluateRequest asks for the outcome of a board. Board is a slice so that
// a wrong number of cells is rejected instead of padded or truncated.
type EvaluateRequest struct {
	Board []game.PlayerMark `json:"board" binding:"required,len=9"`
}

// BestMoveRequest asks which cell mark should play next.
type BestMoveRequest struct {
	Board []game.PlayerMark `json:"board" binding:"required,len=9"`
	Mark  string            `json:"mark" binding:"required,oneof=X O"`
}

// ToBoard copies bound cells into a game.Board. Callers validate the length first.
func ToBoard(cells []game.PlayerMark) game.Board {
	var b game.Board
	copy(b[:], cells)
	return b
}

// BestMoveResponse is the search result. Found is false when mark has no move.
type BestMoveResponse struct {
	Cell  int  `json:"cell"`
	Score int  `json:"score"`
	Found bool `json:"found"`
}
