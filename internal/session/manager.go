package session

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/bot"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const minSweepInterval = time.Second

// Manager keeps track of all live sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	deps   Deps
	delays bot.Delays
	ttl    time.Duration
}

// NewManager creates a manager whose sessions expire after ttl without activity.
func NewManager(deps Deps, delays bot.Delays, ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		deps:     deps,
		delays:   delays,
		ttl:      ttl,
	}
}

// Create opens a new session owned by ownerID.
func (m *Manager) Create(ctx context.Context, ownerID string, mode Mode, first First) *Session {
	ctx, span := tracer.Start(ctx, "manager.Create", trace.WithAttributes(
		attribute.String("player.id", ownerID),
		attribute.String("game.mode", string(mode)),
		attribute.String("game.first", string(first)),
	))
	defer span.End()

	id := uuid.New().String()
	s := New(ctx, id, ownerID, mode, first, m.delays, m.deps)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	slog.InfoContext(ctx, "Session created", "session.id", id, "player.id", ownerID, "game.mode", mode)
	return s
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// GetOwned returns the session with id if it belongs to ownerID.
func (m *Manager) GetOwned(id, ownerID string) (*Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	if s.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return s, nil
}

// Delete closes and forgets a session owned by ownerID.
func (m *Manager) Delete(ctx context.Context, id, ownerID string) error {
	s, err := m.GetOwned(id, ownerID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	s.Close(ctx)
	slog.InfoContext(ctx, "Session deleted", "session.id", id)
	return nil
}

// CloseAll closes and forgets every session. Pending bot moves are stopped,
// so nothing touches the archive or the bus once it returns.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close(ctx)
	}
	slog.InfoContext(ctx, "All sessions closed", "sessions.closed", len(sessions))
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Run evicts idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	if m.ttl <= 0 {
		return
	}
	interval := max(m.ttl/2, minSweepInterval)
	cleanupTicker := time.NewTicker(interval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Session manager stopping.")
			return
		case now := <-cleanupTicker.C:
			if evicted := m.evictIdle(ctx, now); evicted > 0 {
				slog.InfoContext(ctx, "Idle sessions evicted", "sessions.evicted", evicted, "sessions.live", m.Len())
			}
		}
	}
}

// evictIdle closes every session inactive for longer than the ttl and returns how many it removed.
func (m *Manager) evictIdle(ctx context.Context, now time.Time) int {
	var idle []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.LastActive()) > m.ttl {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		slog.InfoContext(ctx, "Session exceeded idle timeout. Closing.", "session.id", s.ID)
		s.Close(ctx)
	}
	return len(idle)
}
