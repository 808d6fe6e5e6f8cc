package game

import "fmt"

// PlayerMark represents the mark of a player (X, O) or an empty cell.
type PlayerMark string

const (
	// Player marks
	None    PlayerMark = ""
	PlayerX PlayerMark = "X"
	PlayerO PlayerMark = "O"

	// Board boundaries
	BorderMin = 0
	BorderMax = 8

	// CellCount is the number of cells on the board.
	CellCount = 9
)

// Opponent returns the other player's mark. None has no opponent.
func (m PlayerMark) Opponent() PlayerMark {
	switch m {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return None
	}
}

// Valid reports whether m is one of the two player marks.
func (m PlayerMark) Valid() bool {
	return m == PlayerX || m == PlayerO
}

// Board is a 3x3 grid stored row-major, index 0 is top-left.
type Board [CellCount]PlayerMark

// Line is a triple of cell indices that wins when held by one mark.
type Line [3]int

// Lines lists the winning combinations in canonical order: rows, columns, diagonals.
var Lines = [8]Line{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Status is the state of a round as seen by Evaluate.
type Status string

const (
	InProgress Status = "in_progress"
	Win        Status = "win"
	Draw       Status = "draw"
)

// Outcome is the result of evaluating a board.
// Winner and Line are only set when Status is Win.
type Outcome struct {
	Status Status     `json:"status"`
	Winner PlayerMark `json:"winner,omitempty"`
	Line   *Line      `json:"line,omitempty"`
}

// Finished reports whether the round has ended.
func (o Outcome) Finished() bool {
	return o.Status != InProgress
}

// Evaluate computes the outcome of a board. The first complete line in
// canonical order wins, so malformed boards with several complete lines
// still get a deterministic answer.
func Evaluate(b Board) Outcome {
	for _, line := range Lines {
		a := b[line[0]]
		if a != None && a == b[line[1]] && a == b[line[2]] {
			l := line
			return Outcome{Status: Win, Winner: a, Line: &l}
		}
	}

	if b.Full() {
		return Outcome{Status: Draw}
	}
	return Outcome{Status: InProgress}
}

// Full reports whether every cell is taken.
func (b Board) Full() bool {
	for _, cell := range b {
		if cell == None {
			return false
		}
	}
	return true
}

// EmptyCells returns the indices of empty cells in increasing order.
func (b Board) EmptyCells() []int {
	cells := make([]int, 0, CellCount)
	for i, cell := range b {
		if cell == None {
			cells = append(cells, i)
		}
	}
	return cells
}

// Count returns the number of non-empty cells. On a board built by Game it
// always equals the number of moves played.
func (b Board) Count() int {
	n := 0
	for _, cell := range b {
		if cell != None {
			n++
		}
	}
	return n
}

// CheckMarks returns ErrInvalidMark if a cell holds anything but X, O or empty.
func (b Board) CheckMarks() error {
	for i, cell := range b {
		if cell != None && !cell.Valid() {
			return fmt.Errorf("%w %q at cell %d", ErrInvalidMark, cell, i)
		}
	}
	return nil
}

// Rows converts the board to a slice of rows, the shape clients render.
func (b Board) Rows() [][]PlayerMark {
	rows := make([][]PlayerMark, 3)
	for r := range [3]int{} {
		rows[r] = make([]PlayerMark, 3)
		for c := range [3]int{} {
			rows[r][c] = b[r*3+c]
		}
	}
	return rows
}

// InBounds reports whether cell is a valid board index.
func InBounds(cell int) bool {
	return cell >= BorderMin && cell <= BorderMax
}
