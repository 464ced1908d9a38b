package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestLocalSaveOpenDelete tests the artifact lifecycle on the filesystem.
func TestLocalSaveOpenDelete(t *testing.T) {
	t.Parallel()

	t.Run("save then open returns the same bytes", func(t *testing.T) {
		t.Parallel()

		store, err := NewLocal(t.TempDir())
		if err != nil {
			t.Fatalf("failed to create local store: %v", err)
		}

		const imageID = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
		payload := []byte("fake jpeg payload")

		location, err := store.Save(context.Background(), imageID, strings.NewReader(string(payload)), int64(len(payload)), "image/jpeg")
		if err != nil {
			t.Fatalf("failed to save artifact: %v", err)
		}
		if filepath.Base(location) != imageID {
			t.Errorf("location %q does not end with image token", location)
		}

		r, err := store.Open(context.Background(), imageID)
		if err != nil {
			t.Fatalf("failed to open artifact: %v", err)
		}
		defer func() {
			if err := r.Close(); err != nil {
				t.Errorf("failed to close artifact: %v", err)
			}
		}()

		got, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("failed to read artifact: %v", err)
		}
		if string(got) != string(payload) {
			t.Errorf("got %q, expected %q", got, payload)
		}
	})

	t.Run("saved file is owner-only", func(t *testing.T) {
		t.Parallel()

		store, err := NewLocal(t.TempDir())
		if err != nil {
			t.Fatalf("failed to create local store: %v", err)
		}

		const imageID = "perm-check"
		location, err := store.Save(context.Background(), imageID, strings.NewReader("x"), 1, "image/png")
		if err != nil {
			t.Fatalf("failed to save artifact: %v", err)
		}

		info, err := os.Stat(location)
		if err != nil {
			t.Fatalf("failed to stat artifact: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("got permissions %o, expected 0600", perm)
		}
	})

	t.Run("delete removes the artifact", func(t *testing.T) {
		t.Parallel()

		store, err := NewLocal(t.TempDir())
		if err != nil {
			t.Fatalf("failed to create local store: %v", err)
		}

		const imageID = "to-delete"
		if _, err := store.Save(context.Background(), imageID, strings.NewReader("x"), 1, "image/png"); err != nil {
			t.Fatalf("failed to save artifact: %v", err)
		}
		if err := store.Delete(context.Background(), imageID); err != nil {
			t.Fatalf("failed to delete artifact: %v", err)
		}
		if _, err := store.Open(context.Background(), imageID); err == nil {
			t.Error("expected open after delete to fail")
		}
	})

	t.Run("deleting an absent artifact is a no-op", func(t *testing.T) {
		t.Parallel()

		store, err := NewLocal(t.TempDir())
		if err != nil {
			t.Fatalf("failed to create local store: %v", err)
		}
		if err := store.Delete(context.Background(), "never-existed"); err != nil {
			t.Errorf("expected nil error for absent artifact, got %v", err)
		}
	})
}

// TestNewLocalCreatesBaseDir tests directory creation for a nested path.
func TestNewLocalCreatesBaseDir(t *testing.T) {
	t.Parallel()

	base := filepath.Join(t.TempDir(), "nested", "uploads")
	if _, err := NewLocal(base); err != nil {
		t.Fatalf("failed to create local store: %v", err)
	}

	info, err := os.Stat(base)
	if err != nil {
		t.Fatalf("failed to stat base directory: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected base path to be a directory")
	}
}
