package analyzer

import (
	"context"
	"errors"
	"image/color"
	"testing"
)

// TestMetadataAnalyzer tests EXIF extraction and file information.
func TestMetadataAnalyzer(t *testing.T) {
	t.Parallel()

	t.Run("image without exif reports file info and message", func(t *testing.T) {
		t.Parallel()

		data := makeJPEG(t, 120, 80, color.NRGBA{R: 100, G: 120, B: 140, A: 255})
		result, err := NewMetadataAnalyzer().Analyze(context.Background(), jpegInput(data))
		if err != nil {
			t.Fatalf("failed to analyze: %v", err)
		}
		if result.Metadata == nil {
			t.Fatal("expected a metadata payload")
		}

		meta := result.Metadata
		if len(meta.Tags) != 0 {
			t.Errorf("got tags %v, expected none from a bare encode", meta.Tags)
		}
		if meta.Message == "" {
			t.Error("expected an explanatory message for the empty tag set")
		}
		if meta.FileInfo.Format != "jpeg" {
			t.Errorf("got format %q, expected jpeg", meta.FileInfo.Format)
		}
		if meta.FileInfo.Width != 120 || meta.FileInfo.Height != 80 {
			t.Errorf("got %dx%d, expected 120x80", meta.FileInfo.Width, meta.FileInfo.Height)
		}
		if meta.FileInfo.SizeBytes != int64(len(data)) {
			t.Errorf("got size %d, expected %d", meta.FileInfo.SizeBytes, len(data))
		}
		if len(meta.FileInfo.Digest) != 64 {
			t.Errorf("got digest %q, expected 64 hex characters", meta.FileInfo.Digest)
		}
	})

	t.Run("digest is stable for identical bytes", func(t *testing.T) {
		t.Parallel()

		data := makeJPEG(t, 32, 32, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
		a := NewMetadataAnalyzer()

		first, err := a.Analyze(context.Background(), jpegInput(data))
		if err != nil {
			t.Fatalf("failed to analyze: %v", err)
		}
		second, err := a.Analyze(context.Background(), jpegInput(data))
		if err != nil {
			t.Fatalf("failed to analyze: %v", err)
		}
		if first.Metadata.FileInfo.Digest != second.Metadata.FileInfo.Digest {
			t.Error("expected identical digests for identical inputs")
		}
	})

	t.Run("undecodable bytes are unsupported input", func(t *testing.T) {
		t.Parallel()

		_, err := NewMetadataAnalyzer().Analyze(context.Background(), jpegInput([]byte("definitely not an image")))
		if !errors.Is(err, ErrUnsupportedInput) {
			t.Errorf("got %v, expected ErrUnsupportedInput", err)
		}
	})
}
