package storage

import (
	"context"
	"io"
)

// Storage is the artifact store for uploaded images.
//
// Implementations must be safe for concurrent use: the orchestrator writes,
// the HTTP layer reads, and the expiry sweeper deletes, all from different
// goroutines.
type Storage interface {
	// Save persists the artifact under the given image token and returns a
	// backend-specific location string for the session record.
	Save(ctx context.Context, imageID string, r io.Reader, size int64, contentType string) (string, error)

	// Open returns a reader over the stored artifact.
	Open(ctx context.Context, imageID string) (io.ReadCloser, error)

	// Delete removes the stored artifact. Deleting an artifact that does not
	// exist is a no-op, not an error.
	Delete(ctx context.Context, imageID string) error
}
