package session

//go:generate mockgen -destination=mock_deps_test.go -package=session ctchen222/tictactoe-minimax/internal/events Publisher
//go:generate mockgen -destination=mock_archive_test.go -package=session ctchen222/tictactoe-minimax/internal/repository RoundRepository

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/bot"
	"ctchen222/tictactoe-minimax/internal/events"
	"ctchen222/tictactoe-minimax/internal/game"
	"ctchen222/tictactoe-minimax/internal/repository"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("session")

// Session is one player's table: the live round, the score tally and, in AI
// modes, the bot sitting opposite.
type Session struct {
	ID      string
	OwnerID string

	mode  Mode
	first First

	mu         sync.Mutex
	game       *game.Game
	round      int
	scores     Scores
	bot        *bot.Bot
	pending    *time.Timer
	generation uint64
	lastActive time.Time
	closed     bool

	// outbox holds side effects recorded under mu. They are carried out in
	// order by flush, which only holds flushMu.
	outbox  []outboxItem
	flushMu sync.Mutex

	calculator MoveCalculator
	publisher  events.Publisher
	archive    repository.RoundRepository
}

// outboxItem is an archive write or an event waiting to be delivered.
type outboxItem struct {
	ctx   context.Context
	round *repository.Round
	event *events.Event
}

// Deps are the collaborators a session reports to.
type Deps struct {
	Calculator MoveCalculator
	Publisher  events.Publisher
	Archive    repository.RoundRepository
}

// New creates a session and opens its first round. If the bot opens, its
// move is scheduled right away.
func New(ctx context.Context, id, ownerID string, mode Mode, first First, delays bot.Delays, deps Deps) *Session {
	s := &Session{
		ID:         id,
		OwnerID:    ownerID,
		mode:       mode,
		first:      first,
		round:      1,
		calculator: deps.Calculator,
		publisher:  deps.Publisher,
		archive:    deps.Archive,
		lastActive: time.Now(),
	}
	if s.calculator == nil {
		s.calculator = &bot.BotMoveCalculator{}
	}
	if mode.IsAI() {
		s.bot = bot.NewBot(AIMark, mode.Difficulty(), delays)
	}
	s.game = game.NewGame(s.firstMark())

	s.mu.Lock()
	s.scheduleAIMove()
	s.publishState(ctx)
	s.mu.Unlock()

	s.flush()
	return s
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Play places the mark whose turn it is on cell. In AI modes it is refused
// while the bot is to move.
func (s *Session) Play(ctx context.Context, cell int) (State, error) {
	ctx, span := tracer.Start(ctx, "session.Play", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.Int("move.cell", cell),
	))
	defer span.End()

	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.snapshot(), ErrSessionClosed
	}
	if s.bot != nil && s.game.Turn == s.bot.Mark && !s.game.Outcome.Finished() {
		span.SetStatus(codes.Error, "Move during bot turn")
		return s.snapshot(), ErrNotYourTurn
	}

	if err := s.game.Play(cell); err != nil {
		slog.WarnContext(ctx, "invalid move from player", "session.id", s.ID, "cell", cell, "error", err)
		span.SetAttributes(attribute.Bool("move.valid", false))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid move")
		return s.snapshot(), err
	}
	span.SetAttributes(attribute.Bool("move.valid", true))

	s.afterMove(ctx)
	return s.snapshot(), nil
}

// Undo takes back the last move. In AI modes it rewinds until the human is
// to move again, so the bot's reply goes together with the move it answered.
func (s *Session) Undo(ctx context.Context) (State, error) {
	ctx, span := tracer.Start(ctx, "session.Undo", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.snapshot(), ErrSessionClosed
	}

	s.cancelAIMove()
	if _, err := s.game.Undo(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Undo refused")
		s.scheduleAIMove()
		return s.snapshot(), err
	}
	if s.bot != nil {
		for s.game.Turn == s.bot.Mark && s.game.Moves() > 0 {
			if _, err := s.game.Undo(); err != nil {
				break
			}
		}
	}

	s.touch()
	s.scheduleAIMove()
	s.publishState(ctx)
	return s.snapshot(), nil
}

// NewRound clears the board and keeps the scores.
func (s *Session) NewRound(ctx context.Context) (State, error) {
	ctx, span := tracer.Start(ctx, "session.NewRound", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.snapshot(), ErrSessionClosed
	}
	s.startRound(ctx)
	return s.snapshot(), nil
}

// ResetAll starts a new round and clears the scores.
func (s *Session) ResetAll(ctx context.Context) (State, error) {
	ctx, span := tracer.Start(ctx, "session.ResetAll", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.snapshot(), ErrSessionClosed
	}
	s.scores = Scores{}
	s.startRound(ctx)
	return s.snapshot(), nil
}

// Close stops any pending bot move and tells listeners the session is gone.
func (s *Session) Close(ctx context.Context) {
	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.cancelAIMove()
	s.closed = true
	s.publish(ctx, events.TypeSessionClosed, nil)
}

// LastActive is when the session last changed.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) startRound(ctx context.Context) {
	s.cancelAIMove()
	s.round++
	s.game.Reset(s.firstMark())
	s.touch()
	s.scheduleAIMove()
	s.publishState(ctx)
}

func (s *Session) firstMark() game.PlayerMark {
	switch s.first {
	case FirstRandom:
		return game.RandomlyChooseFirstPlayer()
	case FirstAI:
		if s.bot != nil {
			return s.bot.Mark
		}
	}
	return HumanMark
}

// afterMove runs after every successful move, human or bot. Callers hold s.mu.
func (s *Session) afterMove(ctx context.Context) {
	s.touch()

	if !s.game.Outcome.Finished() {
		s.scheduleAIMove()
		s.publishState(ctx)
		return
	}

	switch s.game.Outcome.Status {
	case game.Win:
		if s.game.Outcome.Winner == game.PlayerX {
			s.scores.X++
		} else {
			s.scores.O++
		}
	case game.Draw:
		s.scores.Draws++
	}
	s.publishState(ctx)
	s.finishRound(ctx)
}

func (s *Session) finishRound(ctx context.Context) {
	outcome := s.game.Outcome
	slog.InfoContext(ctx, "Round finished", "session.id", s.ID, "round", s.round, "status", outcome.Status, "winner", outcome.Winner)

	if s.archive != nil {
		round := &repository.Round{
			SessionID:  s.ID,
			Number:     s.round,
			Mode:       string(s.mode),
			Outcome:    outcome,
			Board:      s.game.Board,
			Moves:      append([]game.Move(nil), s.game.History...),
			FinishedAt: time.Now().UTC(),
		}
		s.outbox = append(s.outbox, outboxItem{ctx: ctx, round: round})
	}

	payload := events.RoundFinishedPayload{
		Round:  s.round,
		Status: string(outcome.Status),
		Winner: string(outcome.Winner),
	}
	if outcome.Line != nil {
		payload.Line = outcome.Line[:]
	}
	s.publish(ctx, events.TypeRoundFinished, payload)
}

// scheduleAIMove arms the bot's move if it is the bot's turn and none is pending.
// The move is deferred by the bot's thinking delay. Callers hold s.mu.
func (s *Session) scheduleAIMove() {
	if s.bot == nil || s.closed || s.pending != nil {
		return
	}
	if s.game.Outcome.Finished() || s.game.Turn != s.bot.Mark {
		return
	}

	generation := s.generation
	s.pending = time.AfterFunc(s.bot.Delay, func() {
		s.aiMove(generation)
	})
}

// cancelAIMove drops a pending bot move. A timer that already fired is
// turned away by the generation check in aiMove. Callers hold s.mu.
func (s *Session) cancelAIMove() {
	if s.pending == nil {
		return
	}
	s.pending.Stop()
	s.pending = nil
	s.generation++
}

// aiMove plays the bot's move on the board as it is when the timer fires.
func (s *Session) aiMove(generation uint64) {
	ctx, span := tracer.Start(context.Background(), "session.aiMove", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return
	}
	s.pending = nil

	if s.closed || s.bot == nil || s.game.Outcome.Finished() || s.game.Turn != s.bot.Mark {
		return
	}

	slog.DebugContext(ctx, "Bot is thinking", "session.id", s.ID, "bot.difficulty", s.bot.Difficulty)
	cell := s.calculator.CalculateNextMove(ctx, s.game.Board, s.bot.Mark, s.bot.Difficulty)
	span.SetAttributes(attribute.Int("move.cell", cell))
	if cell == bot.NoMove {
		slog.WarnContext(ctx, "Bot found no move", "session.id", s.ID)
		span.SetStatus(codes.Error, "Bot found no move")
		return
	}

	if err := s.game.Play(cell); err != nil {
		slog.ErrorContext(ctx, "Bot played an invalid move", "session.id", s.ID, "cell", cell, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bot played an invalid move")
		return
	}
	s.afterMove(ctx)
}

func (s *Session) touch() {
	s.lastActive = time.Now()
}

func (s *Session) publishState(ctx context.Context) {
	s.publish(ctx, events.TypeState, s.snapshot())
}

func (s *Session) publish(ctx context.Context, eventType string, payload any) {
	if s.publisher == nil {
		return
	}
	ev, err := events.New(eventType, s.ID, payload)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build event", "session.id", s.ID, "event.type", eventType, "error", err)
		return
	}
	s.outbox = append(s.outbox, outboxItem{ctx: ctx, event: &ev})
}

// flush delivers queued side effects without holding s.mu, so a slow Redis
// or database never stalls commands on the session. flushMu keeps delivery in
// the order the items were queued. Callers must not hold s.mu.
func (s *Session) flush() {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	for {
		s.mu.Lock()
		items := s.outbox
		s.outbox = nil
		s.mu.Unlock()

		if len(items) == 0 {
			return
		}
		for _, item := range items {
			s.deliver(item)
		}
	}
}

func (s *Session) deliver(item outboxItem) {
	if item.round != nil {
		if err := s.archive.Save(item.ctx, item.round); err != nil {
			slog.ErrorContext(item.ctx, "failed to archive round", "session.id", s.ID, "round", item.round.Number, "error", err)
		}
	}
	if item.event != nil {
		if err := s.publisher.Publish(item.ctx, *item.event); err != nil {
			slog.ErrorContext(item.ctx, "failed to publish event", "session.id", s.ID, "event.type", item.event.Type, "error", err)
		}
	}
}

func (s *Session) snapshot() State {
	history := make([]game.Move, len(s.game.History))
	copy(history, s.game.History)

	return State{
		ID:         s.ID,
		Mode:       s.mode,
		First:      s.first,
		Round:      s.round,
		Board:      s.game.Board.Rows(),
		Cells:      s.game.Board,
		Turn:       s.game.Turn,
		Outcome:    s.game.Outcome,
		History:    history,
		Scores:     s.scores,
		AIThinking: s.pending != nil,
	}
}
