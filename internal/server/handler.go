package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/imagescan/internal/archive"
	"github.com/nao1215/imagescan/internal/config"
	"github.com/nao1215/imagescan/internal/model"
	"github.com/nao1215/imagescan/internal/orchestrator"
	"github.com/nao1215/imagescan/internal/report"
	"github.com/nao1215/imagescan/internal/reverse"
	"github.com/nao1215/imagescan/internal/session"
)

// AnalysisRunner runs uploads and resets sessions.
type AnalysisRunner interface {
	Analyze(ctx context.Context, upload *orchestrator.Upload) (*model.ForensicsReport, model.Session, error)
	Reset(ctx context.Context, sessionID string) error
}

// SessionReader verifies session/image token pairs.
type SessionReader interface {
	GetForImage(sessionID, imageID string) (model.Session, error)
}

// ArtifactOpener reads stored image artifacts.
type ArtifactOpener interface {
	Open(ctx context.Context, imageID string) (io.ReadCloser, error)
}

// ReportGetter fetches archived reports.
type ReportGetter interface {
	Get(ctx context.Context, sessionID, imageID string) (*model.ForensicsReport, error)
}

// Handler implements the HTTP endpoints.
type Handler struct {
	runner   AnalysisRunner
	sessions SessionReader
	storage  ArtifactOpener
	reports  ReportGetter
	reverse  *reverse.Builder
	cfg      *config.Config
	logger   *slog.Logger
}

// NewHandler creates a Handler. reports may be nil when the archive is
// disabled; export then always misses.
func NewHandler(runner AnalysisRunner, sessions SessionReader, storage ArtifactOpener, reports ReportGetter, rev *reverse.Builder, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		runner:   runner,
		sessions: sessions,
		storage:  storage,
		reports:  reports,
		reverse:  rev,
		cfg:      cfg,
		logger:   logger,
	}
}

// analysisResponse is the POST /analyze response body.
type analysisResponse struct {
	ImageID   string          `json:"image_id"`
	Filename  string          `json:"filename"`
	SessionID string          `json:"session_id"`
	Results   model.ResultSet `json:"results"`
	Timestamp time.Time       `json:"timestamp"`
}

// Analyze handles POST /analyze. Every gateway rejection happens before a
// session or stored artifact exists.
func (h *Handler) Analyze(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !h.cfg.ExtensionAllowed(ext) {
		respondError(c, http.StatusBadRequest,
			fmt.Sprintf("unsupported file extension %q (allowed: %s)",
				ext, strings.Join(h.cfg.AllowedExtensions, ", ")))
		return
	}

	// octet-stream is what generic clients send for any file; the extension
	// check above already gates those.
	contentType := header.Header.Get("Content-Type")
	if contentType == "application/octet-stream" {
		contentType = ""
	}
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		respondError(c, http.StatusBadRequest,
			fmt.Sprintf("unsupported content type %q", contentType))
		return
	}

	if header.Size > h.cfg.MaxUploadSize {
		respondError(c, http.StatusBadRequest,
			fmt.Sprintf("file exceeds the %d byte limit", h.cfg.MaxUploadSize))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadSize+1))
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read upload")
		return
	}
	if len(data) == 0 {
		respondError(c, http.StatusBadRequest, "uploaded file is empty")
		return
	}
	if int64(len(data)) > h.cfg.MaxUploadSize {
		respondError(c, http.StatusBadRequest,
			fmt.Sprintf("file exceeds the %d byte limit", h.cfg.MaxUploadSize))
		return
	}

	result, sess, err := h.runner.Analyze(c.Request.Context(), &orchestrator.Upload{
		Filename: header.Filename,
		MIMEType: contentType,
		Data:     data,
	})
	if err != nil {
		h.logger.Error("analysis failed", "error", err)
		respondError(c, http.StatusInternalServerError, "analysis failed")
		return
	}

	c.JSON(http.StatusOK, analysisResponse{
		ImageID:   sess.ImageID,
		Filename:  header.Filename,
		SessionID: sess.SessionID,
		Results:   result.Results,
		Timestamp: result.GeneratedAt,
	})
}

// Cleanup handles POST /cleanup/:session_id. Resetting is idempotent from
// the client's view only in that repeating it yields 404, never damage.
func (h *Handler) Cleanup(c *gin.Context) {
	sessionID := c.Param("session_id")

	err := h.runner.Reset(c.Request.Context(), sessionID)
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		respondError(c, http.StatusNotFound, "session not found")
		return
	case err != nil:
		h.logger.Error("cleanup failed", "error", err)
		respondError(c, http.StatusInternalServerError, "cleanup failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "session cleaned up",
	})
}

// Reverse handles GET /reverse/:engine.
func (h *Handler) Reverse(c *gin.Context) {
	engine := c.Param("engine")
	sessionID := c.Query("session_id")
	imageID := c.Query("image_id")
	if sessionID == "" || imageID == "" {
		respondError(c, http.StatusBadRequest, "session_id and image_id are required")
		return
	}

	searchURL, err := h.reverse.Build(engine, h.publicBaseURL(c), sessionID, imageID)
	switch {
	case errors.Is(err, reverse.ErrUnsupportedEngine):
		respondError(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, reverse.ErrSessionNotFound):
		respondError(c, http.StatusNotFound, "image not found")
		return
	case err != nil:
		h.logger.Error("reverse search failed", "error", err)
		respondError(c, http.StatusInternalServerError, "reverse search failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"search_url": searchURL})
}

// Export handles GET /export/:session_id/:image_id. The format query
// selects json (default) or markdown; both render the archived report
// without re-running any analyzer.
func (h *Handler) Export(c *gin.Context) {
	sessionID := c.Param("session_id")
	imageID := c.Param("image_id")

	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "markdown" {
		respondError(c, http.StatusBadRequest,
			fmt.Sprintf("unsupported format %q (valid formats: json, markdown)", format))
		return
	}

	if h.reports == nil {
		respondError(c, http.StatusNotFound, "report not found")
		return
	}

	// The pair must still be live; archived reports die with their session.
	if _, err := h.sessions.GetForImage(sessionID, imageID); err != nil {
		respondError(c, http.StatusNotFound, "report not found")
		return
	}

	archived, err := h.reports.Get(c.Request.Context(), sessionID, imageID)
	switch {
	case errors.Is(err, archive.ErrReportNotFound):
		respondError(c, http.StatusNotFound, "report not found")
		return
	case err != nil:
		h.logger.Error("export failed", "error", err)
		respondError(c, http.StatusInternalServerError, "export failed")
		return
	}

	var buf strings.Builder
	var writer report.Writer
	contentType := "application/json; charset=utf-8"
	if format == "markdown" {
		writer = report.NewMarkdownWriter(&buf)
		contentType = "text/markdown; charset=utf-8"
	} else {
		writer = report.NewJSONWriter(&buf, report.WithPrettyPrint())
	}

	if _, err := writer.Write(archived); err != nil {
		h.logger.Error("export rendering failed", "error", err)
		respondError(c, http.StatusInternalServerError, "export failed")
		return
	}
	c.Data(http.StatusOK, contentType, []byte(buf.String()))
}

// ServeUpload handles GET /uploads/:session_id/:image_id. The artifact is
// only reachable through the full token pair.
func (h *Handler) ServeUpload(c *gin.Context) {
	sessionID := c.Param("session_id")
	imageID := c.Param("image_id")

	sess, err := h.sessions.GetForImage(sessionID, imageID)
	if err != nil {
		respondError(c, http.StatusNotFound, "image not found")
		return
	}

	reader, err := h.storage.Open(c.Request.Context(), imageID)
	if err != nil {
		// The sweeper may have reclaimed the artifact between lookup and open.
		respondError(c, http.StatusNotFound, "image not found")
		return
	}
	defer func() { _ = reader.Close() }()

	contentType := sess.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, sess.Size, contentType, reader, nil)
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// publicBaseURL derives the externally reachable base URL for building
// artifact links. An explicit configuration wins; otherwise proxy headers,
// then the request host.
func (h *Handler) publicBaseURL(c *gin.Context) string {
	if h.cfg.PublicBaseURL != "" {
		return strings.TrimSuffix(h.cfg.PublicBaseURL, "/")
	}

	if forwardedHost := c.GetHeader("X-Forwarded-Host"); forwardedHost != "" {
		proto := "http"
		if c.GetHeader("X-Forwarded-Proto") == "https" {
			proto = "https"
		}
		return proto + "://" + forwardedHost
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
