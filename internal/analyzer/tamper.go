package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/nao1215/imagescan/internal/model"
)

// tamperMethod names the scoring method in results.
const tamperMethod = "error_level_analysis"

// tamperCalibrationFile is the optional calibration file under the model
// directory.
const tamperCalibrationFile = "tamper_calibration.json"

// tamperCalibration tunes the error-level analysis scoring.
type tamperCalibration struct {
	// ReencodeQuality is the JPEG quality used for the reference re-encode.
	ReencodeQuality int `json:"reencode_quality"`

	// BlockSize is the residual block edge length in pixels.
	BlockSize int `json:"block_size"`

	// RegionThreshold flags a block as inconsistent when its residual
	// exceeds the image mean by this factor.
	RegionThreshold float64 `json:"region_threshold"`

	// ScoreScale maps the flagged-block ratio into the [0, 1] score.
	ScoreScale float64 `json:"score_scale"`
}

// defaultTamperCalibration returns the builtin calibration used when no
// model directory is configured.
func defaultTamperCalibration() tamperCalibration {
	return tamperCalibration{
		ReencodeQuality: 90,
		BlockSize:       16,
		RegionThreshold: 2.5,
		ScoreScale:      4.0,
	}
}

// TamperAnalyzer scores manipulation likelihood with error-level analysis.
//
// The image is re-encoded as JPEG at a known quality and compared to the
// original. Regions edited after the last save compress differently and
// stand out in the residual. Uniformly high or uniformly low residuals are
// normal; localized outliers are what raise the score.
type TamperAnalyzer struct {
	modelDir string

	loadOnce sync.Once
	cal      tamperCalibration
	loadErr  error
}

// NewTamperAnalyzer creates a TamperAnalyzer. Calibration is loaded lazily
// from modelDir on first use; an empty modelDir selects the builtin
// calibration.
func NewTamperAnalyzer(modelDir string) *TamperAnalyzer {
	return &TamperAnalyzer{modelDir: modelDir}
}

// Name returns the analyzer name.
func (a *TamperAnalyzer) Name() string {
	return "tamper"
}

// Kind returns the report slot this analyzer fills.
func (a *TamperAnalyzer) Kind() model.ResultKind {
	return model.KindTamper
}

// calibration loads the calibration file once. A missing file falls back to
// the builtin defaults; a present but unreadable file is a model fault.
func (a *TamperAnalyzer) calibration() (tamperCalibration, error) {
	a.loadOnce.Do(func() {
		a.cal = defaultTamperCalibration()
		if a.modelDir == "" {
			return
		}

		path := filepath.Join(a.modelDir, tamperCalibrationFile)
		data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return
			}
			a.loadErr = fmt.Errorf("%w: failed to read %s: %s", ErrModelUnavailable, path, err)
			return
		}
		if err := json.Unmarshal(data, &a.cal); err != nil {
			a.loadErr = fmt.Errorf("%w: malformed calibration %s: %s", ErrModelUnavailable, path, err)
		}
	})
	return a.cal, a.loadErr
}

// Analyze computes the tamper score for the upload.
func (a *TamperAnalyzer) Analyze(ctx context.Context, input *Input) (*model.AnalyzerResult, error) {
	cal, err := a.calibration()
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(input.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, err)
	}

	var reencoded bytes.Buffer
	if err := imaging.Encode(&reencoded, img, imaging.JPEG, imaging.JPEGQuality(cal.ReencodeQuality)); err != nil {
		return nil, fmt.Errorf("failed to re-encode image: %w", err)
	}
	reference, err := imaging.Decode(bytes.NewReader(reencoded.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("failed to decode re-encoded image: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	score, regions := elaScore(imaging.Clone(img), imaging.Clone(reference), cal)
	return model.NewTamperResult(&model.TamperScore{
		Score:   score,
		Regions: regions,
		Method:  tamperMethod,
	}), nil
}

// elaScore computes per-block residuals between the original and its
// re-encoded reference and scores the localized outliers.
// Both images come from imaging.Clone, so bounds start at the origin.
func elaScore(orig, ref *image.NRGBA, cal tamperCalibration) (float64, int) {
	width, height := orig.Bounds().Dx(), orig.Bounds().Dy()
	if width == 0 || height == 0 {
		return 0, 0
	}

	block := cal.BlockSize
	if block <= 0 {
		block = defaultTamperCalibration().BlockSize
	}

	var blockMeans []float64
	for by := 0; by < height; by += block {
		for bx := 0; bx < width; bx += block {
			var sum float64
			var n int
			for y := by; y < by+block && y < height; y++ {
				for x := bx; x < bx+block && x < width; x++ {
					oi := y*orig.Stride + x*4
					ri := y*ref.Stride + x*4
					for c := 0; c < 3; c++ {
						sum += math.Abs(float64(orig.Pix[oi+c]) - float64(ref.Pix[ri+c]))
					}
					n += 3
				}
			}
			if n > 0 {
				blockMeans = append(blockMeans, sum/float64(n))
			}
		}
	}
	if len(blockMeans) == 0 {
		return 0, 0
	}

	var total float64
	for _, m := range blockMeans {
		total += m
	}
	mean := total / float64(len(blockMeans))

	// A uniformly noisy image is consistent with a single save. Only blocks
	// that stand far above the image mean count as inconsistent regions.
	regions := 0
	if mean > 0 {
		for _, m := range blockMeans {
			if m > mean*cal.RegionThreshold {
				regions++
			}
		}
	}

	ratio := float64(regions) / float64(len(blockMeans))
	score := math.Min(1, ratio*cal.ScoreScale)
	return score, regions
}

// Ensure TamperAnalyzer implements Analyzer.
var _ Analyzer = (*TamperAnalyzer)(nil)
