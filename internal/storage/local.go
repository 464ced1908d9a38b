package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local stores artifacts as files under a base directory on the local
// filesystem. File names are the opaque image tokens (UUIDs), so no path
// sanitization of user input is involved.
type Local struct {
	baseDir string
}

// NewLocal creates a Local store rooted at baseDir, creating the directory
// if needed.
func NewLocal(baseDir string) (*Local, error) {
	if err := os.MkdirAll(baseDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", baseDir, err)
	}
	return &Local{baseDir: baseDir}, nil
}

// Save writes the artifact to disk with owner-only permissions.
func (l *Local) Save(_ context.Context, imageID string, r io.Reader, _ int64, _ string) (string, error) {
	path := l.path(imageID)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600) //nolint:gosec // path is built from a generated UUID
	if err != nil {
		return "", fmt.Errorf("failed to create artifact file %s: %w", path, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write artifact %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close artifact %s: %w", path, err)
	}

	return path, nil
}

// Open opens the stored artifact for reading.
func (l *Local) Open(_ context.Context, imageID string) (io.ReadCloser, error) {
	f, err := os.Open(l.path(imageID)) //nolint:gosec // path is built from a generated UUID
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	return f, nil
}

// Delete removes the stored artifact. A missing file is a no-op.
func (l *Local) Delete(_ context.Context, imageID string) error {
	err := os.Remove(l.path(imageID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

// path returns the artifact path for an image token.
func (l *Local) path(imageID string) string {
	return filepath.Join(l.baseDir, imageID)
}

// Ensure Local implements Storage.
var _ Storage = (*Local)(nil)
