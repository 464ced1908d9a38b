package analyzer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/nao1215/imagescan/internal/model"
)

// faceDetectWidth is the working width for detection. Detection runs on a
// downscaled copy; bounding boxes are mapped back to original coordinates.
const faceDetectWidth = 320

// FaceAnalyzer locates face candidates via skin-tone segmentation.
//
// Pixels are classified in YCbCr space, where skin tones cluster tightly
// regardless of lightness. Connected skin regions with face-like area and
// aspect ratio become candidates. The method finds regions, not identities:
// age, gender, and expression are reported as unknown placeholders with
// their estimation method named, so downstream consumers see an honest
// confidence rather than a fabricated one.
type FaceAnalyzer struct{}

// NewFaceAnalyzer creates a FaceAnalyzer.
func NewFaceAnalyzer() *FaceAnalyzer {
	return &FaceAnalyzer{}
}

// Name returns the analyzer name.
func (a *FaceAnalyzer) Name() string {
	return "faces"
}

// Kind returns the report slot this analyzer fills.
func (a *FaceAnalyzer) Kind() model.ResultKind {
	return model.KindFaces
}

// Analyze detects face candidates in the upload.
func (a *FaceAnalyzer) Analyze(ctx context.Context, input *Input) (*model.AnalyzerResult, error) {
	img, err := imaging.Decode(bytes.NewReader(input.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, err)
	}

	origW := img.Bounds().Dx()
	origH := img.Bounds().Dy()
	if origW == 0 || origH == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUnsupportedInput)
	}

	sample := img
	scale := 1.0
	if origW > faceDetectWidth {
		scale = float64(origW) / float64(faceDetectWidth)
		sample = imaging.Resize(img, faceDetectWidth, 0, imaging.Lanczos)
	}
	work := imaging.Clone(sample)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mask := skinMask(work)
	regions := connectedRegions(mask, work.Bounds().Dx(), work.Bounds().Dy())

	faces := make([]model.Face, 0, len(regions))
	for _, r := range regions {
		if !faceLike(r, work.Bounds().Dx(), work.Bounds().Dy()) {
			continue
		}
		faces = append(faces, model.Face{
			Index: len(faces) + 1,
			BoundingBox: [4]int{
				scaleCoord(r.minX, scale, origW),
				scaleCoord(r.minY, scale, origH),
				scaleCoord(r.maxX+1, scale, origW),
				scaleCoord(r.maxY+1, scale, origH),
			},
			Confidence: r.fillRatio(),
			Age:        "unknown",
			Gender:     "unknown",
			Emotion: model.Emotion{
				Label:      "neutral",
				Confidence: 0,
				Method:     "skin_region_heuristic",
			},
		})
	}

	return model.NewFaceSetResult(&model.FaceSet{
		Count: len(faces),
		Faces: faces,
	}), nil
}

// skinMask classifies each pixel as skin in YCbCr space. The Cb/Cr window
// is the classic skin cluster and is lightness-independent.
func skinMask(img *image.NRGBA) []bool {
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	mask := make([]bool, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*img.Stride + x*4
			_, cb, cr := color.RGBToYCbCr(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
			if cb >= 77 && cb <= 127 && cr >= 133 && cr <= 173 {
				mask[y*width+x] = true
			}
		}
	}
	return mask
}

// region is one connected skin component.
type region struct {
	minX, minY int
	maxX, maxY int
	area       int
}

// fillRatio returns how much of the bounding box the component fills,
// clamped to [0, 1]. Compact face-shaped regions fill most of their box.
func (r region) fillRatio() float64 {
	boxArea := (r.maxX - r.minX + 1) * (r.maxY - r.minY + 1)
	if boxArea == 0 {
		return 0
	}
	ratio := float64(r.area) / float64(boxArea)
	if ratio > 1 {
		return 1
	}
	return ratio
}

// connectedRegions labels 4-connected components in the mask with an
// iterative flood fill.
func connectedRegions(mask []bool, width, height int) []region {
	visited := make([]bool, len(mask))
	var regions []region

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}

		r := region{minX: width, minY: height, maxX: -1, maxY: -1}
		stack := []int{start}
		visited[start] = true

		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			x, y := idx%width, idx/width
			r.area++
			if x < r.minX {
				r.minX = x
			}
			if x > r.maxX {
				r.maxX = x
			}
			if y < r.minY {
				r.minY = y
			}
			if y > r.maxY {
				r.maxY = y
			}

			for _, next := range [4]int{idx - 1, idx + 1, idx - width, idx + width} {
				if next < 0 || next >= len(mask) {
					continue
				}
				// Horizontal neighbors must stay on the same row.
				if (next == idx-1 || next == idx+1) && next/width != y {
					continue
				}
				if mask[next] && !visited[next] {
					visited[next] = true
					stack = append(stack, next)
				}
			}
		}

		regions = append(regions, r)
	}
	return regions
}

// faceLike filters components by area and aspect ratio. Faces occupy a
// meaningful fraction of the frame and are roughly as tall as wide.
func faceLike(r region, width, height int) bool {
	w := r.maxX - r.minX + 1
	h := r.maxY - r.minY + 1
	if w < 8 || h < 8 {
		return false
	}

	minArea := width * height / 200
	if minArea < 64 {
		minArea = 64
	}
	if r.area < minArea {
		return false
	}

	aspect := float64(h) / float64(w)
	if aspect < 0.6 || aspect > 2.5 {
		return false
	}

	// Scattered skin-tone speckle produces sparse boxes; faces are compact.
	return r.fillRatio() >= 0.35
}

// scaleCoord maps a detection-space coordinate back to original-image space.
func scaleCoord(v int, scale float64, limit int) int {
	scaled := int(float64(v) * scale)
	if scaled > limit {
		return limit
	}
	return scaled
}

// Ensure FaceAnalyzer implements Analyzer.
var _ Analyzer = (*FaceAnalyzer)(nil)
