package bot

import "ctchen222/tictactoe-minimax/internal/game"

// NoMove is the cell reported when there is nothing to play.
const NoMove = -1

// Terminal scores from the point of view of the maximizing mark.
const (
	winScore  = 10
	lossScore = -10
	drawScore = 0
)

// Choice is a candidate cell with its minimax score.
type Choice struct {
	Cell  int `json:"cell"`
	Score int `json:"score"`
}

// BestMove returns the optimal cell for mark on board, treating mark as the
// maximizing player. Ties go to the lowest cell index. The second result is
// false when the board has no empty cell or is already decided.
// The caller's board is never modified.
func BestMove(board game.Board, mark game.PlayerMark) (Choice, bool) {
	choice, _ := search(board, mark)
	return choice, choice.Cell != NoMove
}

// search runs minimax on a private copy of board and reports how many nodes it visited.
func search(board game.Board, mark game.PlayerMark) (Choice, int) {
	if !mark.Valid() {
		return Choice{Cell: NoMove}, 0
	}
	s := &searcher{board: board, max: mark}
	return s.minimax(mark), s.nodes
}

type searcher struct {
	board game.Board
	max   game.PlayerMark
	nodes int
}

func (s *searcher) minimax(toMove game.PlayerMark) Choice {
	s.nodes++

	switch outcome := game.Evaluate(s.board); outcome.Status {
	case game.Win:
		if outcome.Winner == s.max {
			return Choice{Cell: NoMove, Score: winScore}
		}
		return Choice{Cell: NoMove, Score: lossScore}
	case game.Draw:
		return Choice{Cell: NoMove, Score: drawScore}
	}

	maximizing := toMove == s.max
	best := Choice{Cell: NoMove}
	for _, cell := range s.board.EmptyCells() {
		score := s.probe(cell, toMove)
		// Strict comparison keeps the first extremal candidate.
		if best.Cell == NoMove ||
			(maximizing && score > best.Score) ||
			(!maximizing && score < best.Score) {
			best = Choice{Cell: cell, Score: score}
		}
	}
	return best
}

// probe places mark on cell, scores the resulting position and always clears the cell again.
func (s *searcher) probe(cell int, mark game.PlayerMark) int {
	s.board[cell] = mark
	defer func() { s.board[cell] = game.None }()

	return s.minimax(mark.Opponent()).Score
}
