package bot

import (
	"ctchen222/tictactoe-minimax/internal/game"
	"time"
)

// Delays is how long a bot "thinks" before answering, per difficulty.
type Delays struct {
	Easy   time.Duration `yaml:"easy" env:"BOT_DELAY_EASY" env-default:"220ms"`
	Medium time.Duration `yaml:"medium" env:"BOT_DELAY_MEDIUM" env-default:"320ms"`
	Hard   time.Duration `yaml:"hard" env:"BOT_DELAY_HARD" env-default:"420ms"`
}

// DefaultDelays mirrors the env-default tags above.
var DefaultDelays = Delays{
	Easy:   220 * time.Millisecond,
	Medium: 320 * time.Millisecond,
	Hard:   420 * time.Millisecond,
}

// For returns the delay configured for a difficulty.
func (d Delays) For(difficulty Difficulty) time.Duration {
	switch difficulty {
	case Easy:
		return d.Easy
	case Medium:
		return d.Medium
	default:
		return d.Hard
	}
}

// Bot is a computer opponent playing one mark at a fixed difficulty.
type Bot struct {
	Mark       game.PlayerMark
	Difficulty Difficulty
	Delay      time.Duration
}

// NewBot creates a bot for mark, thinking for the delay configured for its difficulty.
func NewBot(mark game.PlayerMark, difficulty Difficulty, delays Delays) *Bot {
	return &Bot{
		Mark:       mark,
		Difficulty: difficulty,
		Delay:      delays.For(difficulty),
	}
}
