package analyzer

import (
	"context"
	"errors"

	"github.com/nao1215/imagescan/internal/model"
)

// Sentinel errors analyzers use to classify their own faults. The Adapter
// maps them to the corresponding failure kinds.
var (
	// ErrModelUnavailable means the analyzer's model or calibration data
	// could not be loaded.
	ErrModelUnavailable = errors.New("analyzer model unavailable")

	// ErrUnsupportedInput means the image could not be decoded or is not a
	// format this analyzer handles.
	ErrUnsupportedInput = errors.New("unsupported input image")
)

// Input is the image handed to every analyzer. All analyzers receive the
// same input; none of them mutate it.
type Input struct {
	// Data is the raw uploaded image bytes.
	Data []byte

	// MIMEType is the client-declared MIME type.
	MIMEType string

	// Filename is the client-declared file name, for messages only.
	Filename string
}

// Analyzer is one forensic check over an uploaded image.
//
// Analyze returns either a success result or an error. Returned errors
// should wrap one of the package sentinels when the cause is classifiable;
// anything else is treated as an inference error by the Adapter.
type Analyzer interface {
	// Name returns the analyzer's name for logging.
	Name() string

	// Kind returns the report slot this analyzer fills.
	Kind() model.ResultKind

	// Analyze runs the check. Implementations must honor ctx cancellation
	// on long-running work.
	Analyze(ctx context.Context, input *Input) (*model.AnalyzerResult, error)
}
