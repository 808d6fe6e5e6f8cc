package bot

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/game"
	"math/rand/v2"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Difficulty selects the strategy a bot plays with.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

var (
	meter = otel.Meter("bot")

	movesCounter, _ = meter.Int64Counter("bot.moves",
		metric.WithDescription("Moves calculated by the bot"),
	)
	searchNodes, _ = meter.Int64Histogram("bot.search.nodes",
		metric.WithDescription("Positions visited by a single minimax search"),
	)
)

// ParseDifficulty maps a client supplied value to a Difficulty, defaulting to Hard.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(s) {
	case Easy, Medium, Hard:
		return Difficulty(s)
	default:
		return Hard
	}
}

// BotMoveCalculator implements the session.MoveCalculator interface.
type BotMoveCalculator struct{}

// CalculateNextMove calls the package-level function to satisfy the interface.
func (c *BotMoveCalculator) CalculateNextMove(ctx context.Context, board game.Board, mark game.PlayerMark, difficulty Difficulty) int {
	return CalculateNextMove(ctx, board, mark, difficulty)
}

// CalculateNextMove determines the bot's next cell based on the specified difficulty.
// It returns NoMove when the board is full.
func CalculateNextMove(ctx context.Context, board game.Board, botMark game.PlayerMark, difficulty Difficulty) int {
	movesCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("bot.difficulty", string(difficulty))))

	switch difficulty {
	case Easy:
		return easyMove(board)
	case Medium:
		return mediumMove(board, botMark)
	default:
		return hardMove(ctx, board, botMark)
	}
}

// easyMove makes a completely random move.
func easyMove(board game.Board) int {
	available := board.EmptyCells()
	if len(available) == 0 {
		return NoMove
	}
	return available[rand.IntN(len(available))]
}

// mediumMove will win if it can, block if it must, otherwise move randomly.
func mediumMove(board game.Board, botMark game.PlayerMark) int {
	if cell, ok := findWinningMove(board, botMark); ok {
		return cell
	}
	if cell, ok := findWinningMove(board, botMark.Opponent()); ok {
		return cell
	}
	return easyMove(board)
}

// hardMove plays the minimax choice, falling back to a random cell if the
// search has nothing to offer (e.g. the round is already decided).
func hardMove(ctx context.Context, board game.Board, botMark game.PlayerMark) int {
	choice, nodes := search(board, botMark)
	searchNodes.Record(ctx, int64(nodes))

	if choice.Cell == NoMove {
		return easyMove(board)
	}
	return choice.Cell
}

// findWinningMove checks if mark holds two cells of a line whose third cell is empty.
func findWinningMove(board game.Board, mark game.PlayerMark) (int, bool) {
	for _, line := range game.Lines {
		held, empty := 0, NoMove
		for _, cell := range line {
			switch board[cell] {
			case mark:
				held++
			case game.None:
				empty = cell
			}
		}
		if held == 2 && empty != NoMove {
			return empty, true
		}
	}
	return NoMove, false
}
