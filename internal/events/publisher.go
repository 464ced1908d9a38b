package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/nao1215/imagescan/internal/log"
)

// Event types emitted over the stream.
const (
	// TypeAnalysisCompleted is emitted when a report settles.
	TypeAnalysisCompleted = "analysis.completed"

	// TypeSessionExpired is emitted when the sweeper reclaims a session.
	TypeSessionExpired = "session.expired"

	// TypeSessionReset is emitted on a manual session cleanup.
	TypeSessionReset = "session.reset"
)

// Event is one lifecycle notification. Token fields are truncated before
// the event leaves the process.
type Event struct {
	// Type is one of the Type* constants.
	Type string `json:"type"`

	// SessionID is the truncated session token.
	SessionID string `json:"session_id"`

	// ImageID is the truncated image token.
	ImageID string `json:"image_id"`

	// OccurredAt is when the event happened.
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent creates an event with truncated tokens.
func NewEvent(eventType, sessionID, imageID string) Event {
	return Event{
		Type:       eventType,
		SessionID:  log.TruncateToken(sessionID),
		ImageID:    log.TruncateToken(imageID),
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher emits lifecycle events.
type Publisher interface {
	// Publish emits one event. Implementations must not block longer than
	// the context allows.
	Publish(ctx context.Context, event Event) error

	// Close releases the publisher's resources.
	Close() error
}

// KafkaPublisher publishes events to a Kafka topic, keyed by session token
// so one session's events stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher writing to the given brokers and
// topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

// Publish emits one event to the topic.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SessionID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards all events. Used when no broker is configured.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(_ context.Context, _ Event) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }

// Emit publishes through p and logs a failure instead of returning it.
// This is the call sites' single way to keep events best effort.
func Emit(ctx context.Context, p Publisher, logger *slog.Logger, event Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish event",
			"type", event.Type, "session_id", event.SessionID, "error", err)
	}
}

// Ensure implementations satisfy Publisher.
var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = NopPublisher{}
)
