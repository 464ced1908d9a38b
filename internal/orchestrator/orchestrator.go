package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/imagescan/internal/analyzer"
	"github.com/nao1215/imagescan/internal/events"
	"github.com/nao1215/imagescan/internal/log"
	"github.com/nao1215/imagescan/internal/model"
)

// ErrEmptyUpload is returned for an upload with no bytes. The HTTP layer
// rejects these earlier; this is the orchestrator's own guard.
var ErrEmptyUpload = errors.New("empty upload")

// ArtifactStore persists uploaded image bytes.
type ArtifactStore interface {
	Save(ctx context.Context, imageID string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, imageID string) error
}

// SessionRegistry creates and removes sessions.
type SessionRegistry interface {
	Create(imageID, storageLocation, mimeType string, size int64) model.Session
	Delete(sessionID string) (model.Session, error)
}

// ReportArchive persists completed reports.
type ReportArchive interface {
	Save(ctx context.Context, report *model.ForensicsReport) error
	DeleteBySession(ctx context.Context, sessionID string) error
}

// Upload is one image handed in for analysis.
type Upload struct {
	// Filename is the client-declared file name.
	Filename string

	// MIMEType is the client-declared MIME type.
	MIMEType string

	// Data is the raw image bytes.
	Data []byte
}

// Orchestrator runs uploads through the analyzer set.
type Orchestrator struct {
	storage   ArtifactStore
	sessions  SessionRegistry
	archive   ReportArchive
	adapters  []*analyzer.Adapter
	publisher events.Publisher
	logger    *slog.Logger
}

// New creates an Orchestrator. The archive and publisher may be nil when
// archiving or eventing is disabled.
func New(storage ArtifactStore, sessions SessionRegistry, archive ReportArchive, adapters []*analyzer.Adapter, publisher events.Publisher, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		storage:   storage,
		sessions:  sessions,
		archive:   archive,
		adapters:  adapters,
		publisher: publisher,
		logger:    logger,
	}
}

// Analyze stores the upload, creates its session, and runs every analyzer
// concurrently. The returned report always carries one settled slot per
// analyzer; an error means infrastructure failed before or after analysis,
// never that an analyzer did.
func (o *Orchestrator) Analyze(ctx context.Context, upload *Upload) (*model.ForensicsReport, model.Session, error) {
	if len(upload.Data) == 0 {
		return nil, model.Session{}, ErrEmptyUpload
	}

	imageID := uuid.NewString()
	location, err := o.storage.Save(ctx, imageID, bytes.NewReader(upload.Data), int64(len(upload.Data)), upload.MIMEType)
	if err != nil {
		return nil, model.Session{}, err
	}

	sess := o.sessions.Create(imageID, location, upload.MIMEType, int64(len(upload.Data)))
	o.logger.Info("analysis started",
		"session_id", sess.SessionID,
		"image_id", imageID,
		"filename", upload.Filename,
		"size", len(upload.Data))

	report := model.NewForensicsReport(imageID, sess.SessionID, upload.Filename)
	input := &analyzer.Input{
		Data:     upload.Data,
		MIMEType: upload.MIMEType,
		Filename: upload.Filename,
	}

	// Analyzers run to completion even if the client goes away; the report
	// is archived either way. Each adapter keeps its own time budget.
	runCtx := context.WithoutCancel(ctx)
	results := make([]*model.AnalyzerResult, len(o.adapters))

	g, gctx := errgroup.WithContext(runCtx)
	for i, adapter := range o.adapters {
		g.Go(func() error {
			results[i] = adapter.Run(gctx, input)
			return nil
		})
	}
	// Adapters never return errors; Wait only joins the goroutines.
	_ = g.Wait()

	for _, result := range results {
		report.SetResult(result)
	}
	report.GeneratedAt = time.Now().UTC()

	if o.archive != nil {
		if err := o.archive.Save(runCtx, report); err != nil {
			// The caller still gets their report; only re-export is lost.
			o.logger.Error("failed to archive report",
				"session_id", log.TruncateToken(sess.SessionID), "error", err)
		}
	}

	events.Emit(runCtx, o.publisher, o.logger,
		events.NewEvent(events.TypeAnalysisCompleted, sess.SessionID, imageID))

	return report, sess, nil
}

// Reset removes a session and everything it owns: stored artifact, archived
// reports, and the session record itself.
func (o *Orchestrator) Reset(ctx context.Context, sessionID string) error {
	sess, err := o.sessions.Delete(sessionID)
	if err != nil {
		return err
	}

	if err := o.storage.Delete(ctx, sess.ImageID); err != nil {
		return err
	}
	if o.archive != nil {
		if err := o.archive.DeleteBySession(ctx, sessionID); err != nil {
			return err
		}
	}

	o.logger.Info("session reset", "session_id", sess.SessionID)
	events.Emit(ctx, o.publisher, o.logger,
		events.NewEvent(events.TypeSessionReset, sess.SessionID, sess.ImageID))
	return nil
}

// SessionExpired publishes the sweeper's expiry notification.
func (o *Orchestrator) SessionExpired(ctx context.Context, sessionID, imageID string) {
	events.Emit(ctx, o.publisher, o.logger,
		events.NewEvent(events.TypeSessionExpired, sessionID, imageID))
}
