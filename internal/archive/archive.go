package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/imagescan/internal/model"
)

// ErrReportNotFound is returned when no archived report matches the token
// pair.
var ErrReportNotFound = errors.New("archived report not found")

// Archive stores completed reports in a SQLite database file.
type Archive struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Archive behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance.
	EnableWAL bool
}

// DefaultOptions returns the default archive options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the report archive in the specified directory.
func Open(dataDir string, opts Options) (*Archive, error) {
	dbPath := filepath.Join(dataDir, "imagescan.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("archive not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check archive path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dataDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	a := &Archive{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := a.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return a, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// createTables creates the archive schema if it doesn't exist.
func (a *Archive) createTables() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS reports (
		session_id   TEXT NOT NULL,
		image_id     TEXT NOT NULL,
		generated_at TEXT NOT NULL,
		report_json  TEXT NOT NULL,
		PRIMARY KEY (session_id, image_id)
	);
	CREATE INDEX IF NOT EXISTS idx_reports_session ON reports(session_id);
	`
	if _, err := a.db.ExecContext(context.Background(), schema); err != nil {
		return fmt.Errorf("failed to create reports table: %w", err)
	}
	return nil
}

// Save stores the report, replacing any previous report for the same token
// pair.
func (a *Archive) Save(ctx context.Context, report *model.ForensicsReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	const query = `
	INSERT OR REPLACE INTO reports (session_id, image_id, generated_at, report_json)
	VALUES (?, ?, ?, ?)
	`
	_, err = a.db.ExecContext(ctx, query,
		report.SessionID, report.ImageID,
		report.GeneratedAt.UTC().Format(time.RFC3339Nano), string(data))
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// Get returns the archived report for the token pair.
func (a *Archive) Get(ctx context.Context, sessionID, imageID string) (*model.ForensicsReport, error) {
	const query = `SELECT report_json FROM reports WHERE session_id = ? AND image_id = ?`

	var data string
	err := a.db.QueryRowContext(ctx, query, sessionID, imageID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query report: %w", err)
	}

	var report model.ForensicsReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// DeleteBySession removes every report owned by the session. Deleting a
// session with no reports is a no-op.
func (a *Archive) DeleteBySession(ctx context.Context, sessionID string) error {
	const query = `DELETE FROM reports WHERE session_id = ?`
	if _, err := a.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete reports: %w", err)
	}
	return nil
}
