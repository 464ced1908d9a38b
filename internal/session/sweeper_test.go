package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// mockArtifactDeleter records deleted image tokens.
type mockArtifactDeleter struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (m *mockArtifactDeleter) Delete(_ context.Context, imageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, imageID)
	return nil
}

// mockReportDeleter records purged session tokens.
type mockReportDeleter struct {
	mu     sync.Mutex
	purged []string
}

func (m *mockReportDeleter) DeleteBySession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purged = append(m.purged, sessionID)
	return nil
}

// blockingDeleter holds every Delete call until released.
type blockingDeleter struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingDeleter) Delete(_ context.Context, _ string) error {
	b.entered <- struct{}{}
	<-b.release
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestSweeperSweep tests reclamation of expired sessions.
func TestSweeperSweep(t *testing.T) {
	t.Parallel()

	t.Run("removes expired sessions and keeps live ones", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		clock := now.Add(-2 * time.Hour)
		store := NewStore(time.Hour, WithClock(func() time.Time { return clock }))
		expired := store.Create("img-old", "/uploads/img-old", "image/jpeg", 1)

		clock = now
		live := store.Create("img-new", "/uploads/img-new", "image/png", 1)

		artifacts := &mockArtifactDeleter{}
		reports := &mockReportDeleter{}
		sweeper := NewSweeper(store, artifacts, reports, nil, time.Minute, discardLogger())

		if removed := sweeper.Sweep(context.Background()); removed != 1 {
			t.Fatalf("got %d removed, expected 1", removed)
		}

		if len(artifacts.deleted) != 1 || artifacts.deleted[0] != expired.ImageID {
			t.Errorf("got deleted artifacts %v, expected the expired image", artifacts.deleted)
		}
		if len(reports.purged) != 1 || reports.purged[0] != expired.SessionID {
			t.Errorf("got purged sessions %v, expected the expired session", reports.purged)
		}
		if _, err := store.Get(live.SessionID); err != nil {
			t.Errorf("live session removed by sweep: %v", err)
		}
		if store.Len() != 1 {
			t.Errorf("got %d sessions, expected only the live one", store.Len())
		}
	})

	t.Run("artifact failure keeps the session for the next sweep", func(t *testing.T) {
		t.Parallel()

		clock := time.Now().Add(-2 * time.Hour)
		store := NewStore(time.Hour, WithClock(func() time.Time { return clock }))
		store.Create("img-old", "/uploads/img-old", "image/jpeg", 1)

		artifacts := &mockArtifactDeleter{err: errors.New("disk unplugged")}
		sweeper := NewSweeper(store, artifacts, &mockReportDeleter{}, nil, time.Minute, discardLogger())

		if removed := sweeper.Sweep(context.Background()); removed != 0 {
			t.Fatalf("got %d removed, expected 0 on artifact failure", removed)
		}
		if store.Len() != 1 {
			t.Error("expected session to survive a failed sweep")
		}
	})

	t.Run("concurrent sweep is skipped, not queued", func(t *testing.T) {
		t.Parallel()

		clock := time.Now().Add(-2 * time.Hour)
		store := NewStore(time.Hour, WithClock(func() time.Time { return clock }))
		store.Create("img-old", "/uploads/img-old", "image/jpeg", 1)

		blocker := &blockingDeleter{
			entered: make(chan struct{}),
			release: make(chan struct{}),
		}
		sweeper := NewSweeper(store, blocker, &mockReportDeleter{}, nil, time.Minute, discardLogger())

		done := make(chan int)
		go func() {
			done <- sweeper.Sweep(context.Background())
		}()

		<-blocker.entered // first sweep is mid-flight

		if removed := sweeper.Sweep(context.Background()); removed != 0 {
			t.Errorf("got %d removed from overlapping sweep, expected immediate 0", removed)
		}

		close(blocker.release)
		if removed := <-done; removed != 1 {
			t.Errorf("got %d removed from first sweep, expected 1", removed)
		}
	})
}
