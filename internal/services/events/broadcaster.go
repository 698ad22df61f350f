package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeTurnAdvanced       EventType = "turn.advanced"
	EventTypeSessionEnded       EventType = "session.ended"
	EventTypeCollaboratorFailed EventType = "collaborator.failed"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// Channel returns the pub/sub channel for a session.
func Channel(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-events:%s", sessionID.String())
}

// Broadcaster publishes session events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishTurnAdvanced publishes a turn.advanced event
func (b *Broadcaster) PublishTurnAdvanced(ctx context.Context, sessionID uuid.UUID, turn, maxTurns int, phase, location string) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeTurnAdvanced,
		Data: map[string]any{
			"turn":      turn,
			"max_turns": maxTurns,
			"phase":     phase,
			"location":  location,
		},
	})
}

// PublishSessionEnded publishes a session.ended event
func (b *Broadcaster) PublishSessionEnded(ctx context.Context, sessionID uuid.UUID, turn int) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeSessionEnded,
		Data: map[string]any{"turn": turn},
	})
}

// PublishCollaboratorFailed publishes a collaborator.failed event
func (b *Broadcaster) PublishCollaboratorFailed(ctx context.Context, sessionID uuid.UUID, capability, errorMsg string) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeCollaboratorFailed,
		Data: map[string]any{
			"capability": capability,
			"error":      errorMsg,
		},
	})
}

// Subscribe opens a subscription to a session's events.
func (b *Broadcaster) Subscribe(ctx context.Context, sessionID uuid.UUID) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, Channel(sessionID))
}

// publish sends an event to the session-specific channel
func (b *Broadcaster) publish(ctx context.Context, sessionID uuid.UUID, event Event) error {
	channel := Channel(sessionID)
	event.SessionID = sessionID.String()

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)
	return nil
}
