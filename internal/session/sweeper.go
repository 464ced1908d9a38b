package session

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nao1215/imagescan/internal/log"
)

// ArtifactDeleter removes a stored image artifact. Deleting an absent
// artifact must be a no-op.
type ArtifactDeleter interface {
	Delete(ctx context.Context, imageID string) error
}

// ReportDeleter removes archived reports belonging to a session.
type ReportDeleter interface {
	DeleteBySession(ctx context.Context, sessionID string) error
}

// ExpiryNotifier is told about each session the sweeper reclaims.
type ExpiryNotifier interface {
	SessionExpired(ctx context.Context, sessionID, imageID string)
}

// Sweeper periodically reclaims expired sessions: it deletes the stored
// artifact, purges archived reports, and drops the session record.
//
// Runs never overlap. If a sweep is still in flight when the next tick
// fires, the tick is skipped rather than queued.
type Sweeper struct {
	store     *Store
	artifacts ArtifactDeleter
	reports   ReportDeleter
	notifier  ExpiryNotifier
	interval  time.Duration
	logger    *slog.Logger
	running   atomic.Bool
}

// NewSweeper creates a Sweeper over the given store. The notifier may be
// nil when no one cares about expiry events.
func NewSweeper(store *Store, artifacts ArtifactDeleter, reports ReportDeleter, notifier ExpiryNotifier, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		store:     store,
		artifacts: artifacts,
		reports:   reports,
		notifier:  notifier,
		interval:  interval,
		logger:    logger,
	}
}

// Run sweeps on the configured interval until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep reclaims every session expired as of now. It returns the number of
// sessions removed. A call that arrives while another sweep is in flight
// returns immediately with zero.
func (s *Sweeper) Sweep(ctx context.Context) int {
	if !s.running.CompareAndSwap(false, true) {
		return 0
	}
	defer s.running.Store(false)

	expired := s.store.Expired(time.Now())
	removed := 0
	for _, sess := range expired {
		if err := s.artifacts.Delete(ctx, sess.ImageID); err != nil {
			s.logger.Warn("failed to delete expired artifact",
				"image_id", log.TruncateToken(sess.ImageID), "error", err)
			continue
		}
		if s.reports != nil {
			if err := s.reports.DeleteBySession(ctx, sess.SessionID); err != nil {
				s.logger.Warn("failed to purge archived reports",
					"session_id", log.TruncateToken(sess.SessionID), "error", err)
				continue
			}
		}
		if _, err := s.store.Delete(sess.SessionID); err != nil {
			// Already removed by a manual reset between snapshot and here.
			continue
		}
		removed++

		if s.notifier != nil {
			s.notifier.SessionExpired(ctx, sess.SessionID, sess.ImageID)
		}
	}

	if removed > 0 {
		s.logger.Info("swept expired sessions", "removed", removed)
	}
	return removed
}
