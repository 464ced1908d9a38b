package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// mockPublisher records published events.
type mockPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

// TestNewEvent tests token truncation in event payloads.
func TestNewEvent(t *testing.T) {
	t.Parallel()

	event := NewEvent(TypeAnalysisCompleted,
		"550e8400-e29b-41d4-a716-446655440000",
		"6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	if event.SessionID != "550e8400***" {
		t.Errorf("got session token %q, expected it truncated", event.SessionID)
	}
	if event.ImageID != "6ba7b810***" {
		t.Errorf("got image token %q, expected it truncated", event.ImageID)
	}
	if event.Type != TypeAnalysisCompleted {
		t.Errorf("got type %q, expected %q", event.Type, TypeAnalysisCompleted)
	}
	if event.OccurredAt.IsZero() {
		t.Error("expected a timestamp")
	}
}

// TestEmit tests best-effort publishing.
func TestEmit(t *testing.T) {
	t.Parallel()

	t.Run("delivers to the publisher", func(t *testing.T) {
		t.Parallel()

		pub := &mockPublisher{}
		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

		Emit(context.Background(), pub, logger, NewEvent(TypeSessionReset, "s", "i"))
		if len(pub.events) != 1 {
			t.Fatalf("got %d events, expected 1", len(pub.events))
		}
	})

	t.Run("failure is logged, not returned", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		pub := &mockPublisher{err: errors.New("broker down")}

		Emit(context.Background(), pub, logger, NewEvent(TypeSessionExpired, "s", "i"))
		if !strings.Contains(buf.String(), "broker down") {
			t.Errorf("expected the failure in the log, got %s", buf.String())
		}
	})

	t.Run("nil publisher is a no-op", func(t *testing.T) {
		t.Parallel()

		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		Emit(context.Background(), nil, logger, NewEvent(TypeSessionExpired, "s", "i"))
	})
}

// TestNopPublisher tests the no-op implementation.
func TestNopPublisher(t *testing.T) {
	t.Parallel()

	var pub NopPublisher
	if err := pub.Publish(context.Background(), Event{}); err != nil {
		t.Errorf("got %v, expected nil", err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("got %v, expected nil", err)
	}
}
