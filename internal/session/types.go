package session

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/bot"
	"ctchen222/tictactoe-minimax/internal/game"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrForbidden       = errors.New("session belongs to another player")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrInvalidMode     = errors.New("invalid game mode")
	ErrInvalidFirst    = errors.New("invalid first player")
)

// Mode is how a session is played.
type Mode string

const (
	ModePvP      Mode = "pvp"
	ModeAIEasy   Mode = "ai-easy"
	ModeAIMedium Mode = "ai-medium"
	ModeAIHard   Mode = "ai-hard"
)

// ParseMode validates a client supplied mode. An empty value selects ModeAIHard.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModePvP, ModeAIEasy, ModeAIMedium, ModeAIHard:
		return m, nil
	case "":
		return ModeAIHard, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// IsAI reports whether the second seat is taken by the bot.
func (m Mode) IsAI() bool {
	return m != ModePvP
}

// Difficulty returns the bot difficulty of an AI mode.
func (m Mode) Difficulty() bot.Difficulty {
	return bot.ParseDifficulty(strings.TrimPrefix(string(m), "ai-"))
}

// First is who opens each round. FirstRandom draws again every round.
type First string

const (
	FirstHuman  First = "human"
	FirstAI     First = "ai"
	FirstRandom First = "random"
)

// ParseFirst validates a client supplied first player. An empty value selects FirstHuman.
func ParseFirst(s string) (First, error) {
	switch f := First(s); f {
	case FirstHuman, FirstAI, FirstRandom:
		return f, nil
	case "":
		return FirstHuman, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFirst, s)
	}
}

// In AI modes the human always plays X and the bot O.
const (
	HumanMark = game.PlayerX
	AIMark    = game.PlayerO
)

// Scores tallies finished rounds.
type Scores struct {
	X     int `json:"x"`
	O     int `json:"o"`
	Draws int `json:"draws"`
}

// State is a point-in-time copy of a session.
type State struct {
	ID         string              `json:"id"`
	Mode       Mode                `json:"mode"`
	First      First               `json:"first"`
	Round      int                 `json:"round"`
	Board      [][]game.PlayerMark `json:"board"`
	Cells      game.Board          `json:"cells"`
	Turn       game.PlayerMark     `json:"turn"`
	Outcome    game.Outcome        `json:"outcome"`
	History    []game.Move         `json:"history"`
	Scores     Scores              `json:"scores"`
	AIThinking bool                `json:"ai_thinking"`
}

// MoveCalculator defines an interface for an agent that can calculate a game move.
type MoveCalculator interface {
	CalculateNextMove(ctx context.Context, board game.Board, mark game.PlayerMark, difficulty bot.Difficulty) int
}
