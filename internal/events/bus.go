package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("events")

// Publisher delivers session events to whoever is listening.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscriber streams the events of one session.
type Subscriber interface {
	Subscribe(ctx context.Context, sessionID string) (<-chan Event, func() error, error)
}

// RedisBus is a Redis Pub/Sub backed Publisher and Subscriber.
type RedisBus struct {
	rdb *redis.Client
}

// NewRedisBus creates a new Redis-based event bus.
func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb}
}

// Publish encodes ev and publishes it on the session's channel.
func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	ctx, span := tracer.Start(ctx, "RedisBus.Publish", trace.WithAttributes(
		attribute.String("session.id", ev.SessionID),
		attribute.String("event.type", ev.Type),
	))
	defer span.End()

	data, err := json.Marshal(ev)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error marshalling event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.rdb.Publish(ctx, ChannelName(ev.SessionID), data).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to publish event")
		return fmt.Errorf("failed to publish %s event: %w", ev.Type, err)
	}
	return nil
}

// Subscribe listens on the session's channel. The returned channel is closed
// when ctx is done or the close function is called.
func (b *RedisBus) Subscribe(ctx context.Context, sessionID string) (<-chan Event, func() error, error) {
	pubsub := b.rdb.Subscribe(ctx, ChannelName(sessionID))

	// Wait for the subscription to be confirmed so no event published after
	// Subscribe returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to session %s: %w", sessionID, err)
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					slog.WarnContext(ctx, "dropping malformed event", "session.id", sessionID, "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, pubsub.Close, nil
}
