package repository

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/game"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("repository.round")

// emptyCell is how an empty cell is stored in the board column.
const emptyCell = '-'

// Round is a finished round as kept in the archive.
type Round struct {
	SessionID  string       `json:"session_id"`
	Number     int          `json:"round"`
	Mode       string       `json:"mode"`
	Outcome    game.Outcome `json:"outcome"`
	Board      game.Board   `json:"board"`
	Moves      []game.Move  `json:"moves"`
	FinishedAt time.Time    `json:"finished_at"`
}

// roundRow is the storage shape of a Round.
type roundRow struct {
	ID         int64  `db:"id"`
	SessionID  string `db:"session_id"`
	Number     int    `db:"round_number"`
	Mode       string `db:"mode"`
	Status     string `db:"status"`
	Winner     string `db:"winner"`
	Line       string `db:"line"`
	Board      string `db:"board"`
	Moves      string `db:"moves"`
	FinishedAt int64  `db:"finished_at"`
}

// RoundRepository defines the interface for the finished-round archive.
type RoundRepository interface {
	Save(ctx context.Context, round *Round) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]Round, error)
}

type sqliteRoundRepository struct {
	db *sqlx.DB
}

// NewRoundRepository creates a new SQLite-based RoundRepository.
func NewRoundRepository(db *sqlx.DB) RoundRepository {
	return &sqliteRoundRepository{db: db}
}

// Save inserts a finished round.
func (r *sqliteRoundRepository) Save(ctx context.Context, round *Round) error {
	ctx, span := tracer.Start(ctx, "RoundRepository.Save", trace.WithAttributes(
		attribute.String("session.id", round.SessionID),
		attribute.Int("round.number", round.Number),
	))
	defer span.End()

	row := toRow(round)
	query := `INSERT INTO rounds (session_id, round_number, mode, status, winner, line, board, moves, finished_at)
		VALUES (:session_id, :round_number, :mode, :status, :winner, :line, :board, :moves, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save round")
		return fmt.Errorf("failed to save round: %w", err)
	}
	return nil
}

// ListBySession returns the most recent rounds of a session, newest first.
func (r *sqliteRoundRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]Round, error) {
	ctx, span := tracer.Start(ctx, "RoundRepository.ListBySession", trace.WithAttributes(
		attribute.String("session.id", sessionID),
	))
	defer span.End()

	if limit <= 0 {
		limit = 20
	}

	var rows []roundRow
	query := `SELECT id, session_id, round_number, mode, status, winner, line, board, moves, finished_at
		FROM rounds WHERE session_id = ? ORDER BY round_number DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &rows, query, sessionID, limit); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list rounds")
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}

	rounds := make([]Round, 0, len(rows))
	for _, row := range rows {
		round, err := row.toRound()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Corrupt round row")
			return nil, err
		}
		rounds = append(rounds, round)
	}
	return rounds, nil
}

func toRow(round *Round) roundRow {
	row := roundRow{
		SessionID:  round.SessionID,
		Number:     round.Number,
		Mode:       round.Mode,
		Status:     string(round.Outcome.Status),
		Winner:     string(round.Outcome.Winner),
		Board:      encodeBoard(round.Board),
		Moves:      encodeMoves(round.Moves),
		FinishedAt: round.FinishedAt.UnixMilli(),
	}
	if round.Outcome.Line != nil {
		row.Line = joinInts(round.Outcome.Line[:])
	}
	return row
}

func (row roundRow) toRound() (Round, error) {
	board, err := decodeBoard(row.Board)
	if err != nil {
		return Round{}, fmt.Errorf("round %d: %w", row.ID, err)
	}
	moves, err := decodeMoves(row.Moves)
	if err != nil {
		return Round{}, fmt.Errorf("round %d: %w", row.ID, err)
	}

	outcome := game.Outcome{Status: game.Status(row.Status), Winner: game.PlayerMark(row.Winner)}
	if row.Line != "" {
		cells, err := splitInts(row.Line)
		if err != nil || len(cells) != 3 {
			return Round{}, fmt.Errorf("round %d: malformed line %q", row.ID, row.Line)
		}
		line := game.Line{cells[0], cells[1], cells[2]}
		outcome.Line = &line
	}

	return Round{
		SessionID:  row.SessionID,
		Number:     row.Number,
		Mode:       row.Mode,
		Outcome:    outcome,
		Board:      board,
		Moves:      moves,
		FinishedAt: time.UnixMilli(row.FinishedAt).UTC(),
	}, nil
}

// encodeBoard writes the board as nine characters, e.g. "XO-XO-X--".
func encodeBoard(b game.Board) string {
	var sb strings.Builder
	for _, cell := range b {
		if cell == game.None {
			sb.WriteByte(emptyCell)
			continue
		}
		sb.WriteString(string(cell))
	}
	return sb.String()
}

func decodeBoard(s string) (game.Board, error) {
	var b game.Board
	if len(s) != game.CellCount {
		return b, fmt.Errorf("malformed board %q", s)
	}
	for i := range s {
		switch s[i] {
		case emptyCell:
		case 'X':
			b[i] = game.PlayerX
		case 'O':
			b[i] = game.PlayerO
		default:
			return b, fmt.Errorf("malformed board %q", s)
		}
	}
	return b, nil
}

// encodeMoves writes moves as "X4,O0,X8".
func encodeMoves(moves []game.Move) string {
	parts := make([]string, len(moves))
	for i, m := range moves {
		parts[i] = string(m.Mark) + strconv.Itoa(m.Cell)
	}
	return strings.Join(parts, ",")
}

func decodeMoves(s string) ([]game.Move, error) {
	if s == "" {
		return []game.Move{}, nil
	}
	parts := strings.Split(s, ",")
	moves := make([]game.Move, 0, len(parts))
	for _, p := range parts {
		if len(p) < 2 {
			return nil, fmt.Errorf("malformed move %q", p)
		}
		mark := game.PlayerMark(p[:1])
		cell, err := strconv.Atoi(p[1:])
		if err != nil || !mark.Valid() || !game.InBounds(cell) {
			return nil, fmt.Errorf("malformed move %q", p)
		}
		moves = append(moves, game.Move{Cell: cell, Mark: mark})
	}
	return moves, nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func splitInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	values := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
