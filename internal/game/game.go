package game

import (
	"errors"
	"math/rand/v2"
)

var (
	ErrOutOfBounds   = errors.New("cell out of bounds")
	ErrCellOccupied  = errors.New("cell already occupied")
	ErrGameOver      = errors.New("game already finished")
	ErrNothingToUndo = errors.New("no move to undo")
	ErrInvalidMark   = errors.New("invalid player mark")
)

// Move is a mark placed on a cell.
type Move struct {
	Cell int        `json:"cell"`
	Mark PlayerMark `json:"mark"`
}

// Game is the live state of one round.
type Game struct {
	Board   Board
	Turn    PlayerMark
	History []Move
	Outcome Outcome
}

// NewGame returns an empty round with first to move.
func NewGame(first PlayerMark) *Game {
	g := &Game{}
	g.Reset(first)
	return g
}

// Reset clears the board and history and hands the first move to first.
func (g *Game) Reset(first PlayerMark) {
	if !first.Valid() {
		first = PlayerX
	}
	g.Board = Board{}
	g.Turn = first
	g.History = nil
	g.Outcome = Outcome{Status: InProgress}
}

// Play places the current turn's mark on cell.
func (g *Game) Play(cell int) error {
	if g.Outcome.Finished() {
		return ErrGameOver
	}
	if !InBounds(cell) {
		return ErrOutOfBounds
	}
	if g.Board[cell] != None {
		return ErrCellOccupied
	}

	mark := g.Turn
	g.Board[cell] = mark
	g.History = append(g.History, Move{Cell: cell, Mark: mark})
	g.Outcome = Evaluate(g.Board)

	if !g.Outcome.Finished() {
		g.Turn = mark.Opponent()
	}
	return nil
}

// Undo takes back the last move and returns it. A decided round cannot be undone.
func (g *Game) Undo() (Move, error) {
	if g.Outcome.Finished() {
		return Move{}, ErrGameOver
	}
	if len(g.History) == 0 {
		return Move{}, ErrNothingToUndo
	}

	last := g.History[len(g.History)-1]
	g.History = g.History[:len(g.History)-1]
	g.Board[last.Cell] = None
	g.Turn = last.Mark
	g.Outcome = Evaluate(g.Board)
	return last, nil
}

// Moves returns the number of moves played this round.
func (g *Game) Moves() int {
	return len(g.History)
}

// RandomlyChooseFirstPlayer picks X or O with equal probability.
func RandomlyChooseFirstPlayer() PlayerMark {
	if rand.IntN(2) == 0 {
		return PlayerX
	}
	return PlayerO
}
