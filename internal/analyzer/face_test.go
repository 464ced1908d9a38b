package analyzer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
)

// TestFaceAnalyzer tests skin-region face detection.
func TestFaceAnalyzer(t *testing.T) {
	t.Parallel()

	t.Run("black image has no faces", func(t *testing.T) {
		t.Parallel()

		data := makeJPEG(t, 100, 100, color.NRGBA{A: 255})
		result, err := NewFaceAnalyzer().Analyze(context.Background(), jpegInput(data))
		if err != nil {
			t.Fatalf("failed to analyze: %v", err)
		}
		if result.Faces == nil {
			t.Fatal("expected a face payload")
		}
		if result.Faces.Count != 0 || len(result.Faces.Faces) != 0 {
			t.Errorf("got %d faces in a black image, expected 0", result.Faces.Count)
		}
	})

	t.Run("skin-tone region is detected with a sane bounding box", func(t *testing.T) {
		t.Parallel()

		// Black frame with one compact skin-tone rectangle.
		img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
		skin := color.NRGBA{R: 220, G: 170, B: 140, A: 255}
		for y := 0; y < 100; y++ {
			for x := 0; x < 100; x++ {
				img.SetNRGBA(x, y, color.NRGBA{A: 255})
			}
		}
		for y := 30; y < 70; y++ {
			for x := 35; x < 65; x++ {
				img.SetNRGBA(x, y, skin)
			}
		}

		result, err := NewFaceAnalyzer().Analyze(context.Background(),
			&Input{Data: makePNG(t, img), MIMEType: "image/png", Filename: "face.png"})
		if err != nil {
			t.Fatalf("failed to analyze: %v", err)
		}

		faces := result.Faces
		if faces.Count != 1 {
			t.Fatalf("got %d faces, expected 1", faces.Count)
		}

		face := faces.Faces[0]
		if face.Index != 1 {
			t.Errorf("got face index %d, expected 1", face.Index)
		}
		box := face.BoundingBox
		if box[0] > 35 || box[1] > 30 || box[2] < 64 || box[3] < 69 {
			t.Errorf("got bounding box %v, expected it to cover the skin region", box)
		}
		if box[2] > 100 || box[3] > 100 {
			t.Errorf("got bounding box %v, expected it inside the image", box)
		}
		if face.Confidence <= 0 || face.Confidence > 1 {
			t.Errorf("got confidence %f, expected a value in (0, 1]", face.Confidence)
		}
		if face.Age != "unknown" || face.Gender != "unknown" {
			t.Errorf("got age %q gender %q, expected unknown placeholders", face.Age, face.Gender)
		}
		if face.Emotion.Label != "neutral" {
			t.Errorf("got emotion %q, expected neutral", face.Emotion.Label)
		}
	})

	t.Run("count always matches the face list", func(t *testing.T) {
		t.Parallel()

		data := makeJPEG(t, 400, 300, color.NRGBA{R: 220, G: 170, B: 140, A: 255})
		result, err := NewFaceAnalyzer().Analyze(context.Background(), jpegInput(data))
		if err != nil {
			t.Fatalf("failed to analyze: %v", err)
		}
		if result.Faces.Count != len(result.Faces.Faces) {
			t.Errorf("count %d does not match %d listed faces",
				result.Faces.Count, len(result.Faces.Faces))
		}
	})

	t.Run("undecodable bytes are unsupported input", func(t *testing.T) {
		t.Parallel()

		_, err := NewFaceAnalyzer().Analyze(context.Background(), jpegInput([]byte{0x00, 0x01}))
		if !errors.Is(err, ErrUnsupportedInput) {
			t.Errorf("got %v, expected ErrUnsupportedInput", err)
		}
	})
}
