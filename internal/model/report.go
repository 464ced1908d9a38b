package model

import (
	"encoding/json"
	"time"
)

// ResultKind identifies one analyzer slot in a report.
type ResultKind string

// Analyzer slot kinds. Every report carries exactly one slot per kind.
const (
	// KindMetadata is the EXIF/file-information analyzer slot.
	KindMetadata ResultKind = "metadata"

	// KindTamper is the tamper/forgery scoring analyzer slot.
	KindTamper ResultKind = "tamper"

	// KindAIDetection is the AI-generation detection analyzer slot.
	KindAIDetection ResultKind = "ai_detection"

	// KindFaces is the face/demographic analyzer slot.
	KindFaces ResultKind = "faces"
)

// Kinds returns all analyzer slot kinds in their stable report order.
func Kinds() []ResultKind {
	return []ResultKind{KindMetadata, KindTamper, KindAIDetection, KindFaces}
}

// FailureKind classifies why an analyzer failed.
type FailureKind string

// Analyzer failure kinds.
const (
	// FailureModelUnavailable means the analyzer's model could not be loaded
	// (e.g. calibration/weights file missing or unreadable).
	FailureModelUnavailable FailureKind = "model_unavailable"

	// FailureInferenceError means the analyzer faulted while scoring.
	FailureInferenceError FailureKind = "inference_error"

	// FailureUnsupportedInput means the image could not be decoded by this analyzer.
	FailureUnsupportedInput FailureKind = "unsupported_input"

	// FailureTimeout means the analyzer did not settle within its time budget.
	FailureTimeout FailureKind = "timeout"
)

// AnalyzerFailure is a typed analyzer fault embedded in a report slot.
// It is a value, not a Go error: analyzer faults never cross the adapter
// boundary as errors.
type AnalyzerFailure struct {
	// Kind classifies the failure.
	Kind FailureKind `json:"kind"`

	// Message is a human-readable description of the failure.
	Message string `json:"message"`
}

// String returns "kind: message" for logging.
func (f *AnalyzerFailure) String() string {
	return string(f.Kind) + ": " + f.Message
}

// FileInfo describes the uploaded file itself, independent of any model.
type FileInfo struct {
	// Format is the decoded image format name (e.g. "jpeg", "png").
	Format string `json:"format"`

	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// SizeBytes is the upload size in bytes.
	SizeBytes int64 `json:"size_bytes"`

	// Digest is the hex-encoded BLAKE2b-256 digest of the upload.
	Digest string `json:"digest"`
}

// Metadata is the success payload of the metadata analyzer.
type Metadata struct {
	// Tags maps EXIF tag names to their formatted values.
	// Empty when the image carries no EXIF data.
	Tags map[string]string `json:"exif_data"`

	// FileInfo describes the file independent of EXIF presence.
	FileInfo FileInfo `json:"file_info"`

	// Message explains an empty tag set (e.g. metadata stripped by social
	// media). Empty when tags were found.
	Message string `json:"message,omitempty"`
}

// TamperScore is the success payload of the tamper analyzer.
type TamperScore struct {
	// Score is the tamper likelihood in [0, 1]. Higher means more suspicious.
	Score float64 `json:"score"`

	// Regions is the number of image regions flagged as inconsistent.
	Regions int `json:"regions"`

	// Method names the scoring method used (e.g. "error_level_analysis").
	Method string `json:"method"`
}

// AIGenerationScore is the success payload of the AI-detection analyzer.
type AIGenerationScore struct {
	// IsAIGenerated is true when RawScore exceeds the decision threshold.
	IsAIGenerated bool `json:"is_ai_generated"`

	// Confidence is the confidence in the IsAIGenerated verdict, in [0, 1].
	Confidence float64 `json:"confidence_score"`

	// RawScore is the raw "artificial" score in [0, 1].
	RawScore float64 `json:"raw_score_for_ai"`
}

// Emotion is a per-face expression estimate.
type Emotion struct {
	// Label is the dominant expression (e.g. "neutral", "happy").
	Label string `json:"emotion"`

	// Confidence is the estimate confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// Method names how the estimate was produced.
	Method string `json:"method"`
}

// Face is one detected face.
type Face struct {
	// Index is the 1-based face number within the image.
	Index int `json:"face_id"`

	// BoundingBox is [x1, y1, x2, y2] in original image coordinates.
	BoundingBox [4]int `json:"bounding_box"`

	// Confidence is the detection confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// Age is the estimated age, or "unknown" when the model cannot tell.
	Age string `json:"age"`

	// Gender is the estimated gender, or "unknown" when the model cannot tell.
	Gender string `json:"gender"`

	// Emotion is the expression estimate for this face.
	Emotion Emotion `json:"emotion"`
}

// FaceSet is the success payload of the face analyzer.
type FaceSet struct {
	// Count is the number of detected faces. Always len(Faces).
	Count int `json:"count"`

	// Faces holds one entry per detected face.
	Faces []Face `json:"faces"`
}

// AnalyzerResult is one report slot: either a success payload or a typed
// failure, never both and never neither.
type AnalyzerResult struct {
	// Kind identifies which slot this result fills.
	Kind ResultKind `json:"-"`

	// Exactly one payload pointer is set on success; all are nil on failure.
	Metadata    *Metadata          `json:"-"`
	Tamper      *TamperScore       `json:"-"`
	AIDetection *AIGenerationScore `json:"-"`
	Faces       *FaceSet           `json:"-"`

	// Failure is set when the analyzer failed.
	Failure *AnalyzerFailure `json:"-"`
}

// NewMetadataResult returns a successful metadata slot.
func NewMetadataResult(m *Metadata) *AnalyzerResult {
	return &AnalyzerResult{Kind: KindMetadata, Metadata: m}
}

// NewTamperResult returns a successful tamper slot.
func NewTamperResult(t *TamperScore) *AnalyzerResult {
	return &AnalyzerResult{Kind: KindTamper, Tamper: t}
}

// NewAIDetectionResult returns a successful AI-detection slot.
func NewAIDetectionResult(s *AIGenerationScore) *AnalyzerResult {
	return &AnalyzerResult{Kind: KindAIDetection, AIDetection: s}
}

// NewFaceSetResult returns a successful face slot.
func NewFaceSetResult(f *FaceSet) *AnalyzerResult {
	return &AnalyzerResult{Kind: KindFaces, Faces: f}
}

// NewFailureResult returns a failed slot of the given kind.
func NewFailureResult(kind ResultKind, failure FailureKind, message string) *AnalyzerResult {
	return &AnalyzerResult{
		Kind:    kind,
		Failure: &AnalyzerFailure{Kind: failure, Message: message},
	}
}

// OK reports whether the slot holds a success payload.
func (r *AnalyzerResult) OK() bool {
	return r != nil && r.Failure == nil
}

// failureJSON is the wire shape of a failed slot.
type failureJSON struct {
	Error string      `json:"error"`
	Kind  FailureKind `json:"error_kind"`
}

// MarshalJSON renders the slot as either its bare success payload or a
// {"error", "error_kind"} object, matching the response contract.
func (r *AnalyzerResult) MarshalJSON() ([]byte, error) {
	if r.Failure != nil {
		return json.Marshal(failureJSON{Error: r.Failure.Message, Kind: r.Failure.Kind})
	}

	switch r.Kind {
	case KindMetadata:
		return json.Marshal(r.Metadata)
	case KindTamper:
		return json.Marshal(r.Tamper)
	case KindAIDetection:
		return json.Marshal(r.AIDetection)
	case KindFaces:
		return json.Marshal(r.Faces)
	}
	return []byte("null"), nil
}

// decodeSlot decodes a single slot of a known kind from its wire form.
func decodeSlot(kind ResultKind, data []byte) (*AnalyzerResult, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	// A failed slot carries an "error" key; probe for it first.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	if _, isFailure := probe["error"]; isFailure {
		var f failureJSON
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return NewFailureResult(kind, f.Kind, f.Error), nil
	}

	result := &AnalyzerResult{Kind: kind}
	var err error
	switch kind {
	case KindMetadata:
		result.Metadata = &Metadata{}
		err = json.Unmarshal(data, result.Metadata)
	case KindTamper:
		result.Tamper = &TamperScore{}
		err = json.Unmarshal(data, result.Tamper)
	case KindAIDetection:
		result.AIDetection = &AIGenerationScore{}
		err = json.Unmarshal(data, result.AIDetection)
	case KindFaces:
		result.Faces = &FaceSet{}
		err = json.Unmarshal(data, result.Faces)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ResultSet holds one slot per analyzer kind. Slots are stable: every slot is
// present in the JSON output regardless of analyzer completion order.
type ResultSet struct {
	Metadata    *AnalyzerResult `json:"metadata"`
	Tamper      *AnalyzerResult `json:"tamper"`
	AIDetection *AnalyzerResult `json:"ai_detection"`
	Faces       *AnalyzerResult `json:"faces"`
}

// UnmarshalJSON decodes all slots, restoring each slot's kind.
func (s *ResultSet) UnmarshalJSON(data []byte) error {
	var raw struct {
		Metadata    json.RawMessage `json:"metadata"`
		Tamper      json.RawMessage `json:"tamper"`
		AIDetection json.RawMessage `json:"ai_detection"`
		Faces       json.RawMessage `json:"faces"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var err error
	if s.Metadata, err = decodeSlot(KindMetadata, raw.Metadata); err != nil {
		return err
	}
	if s.Tamper, err = decodeSlot(KindTamper, raw.Tamper); err != nil {
		return err
	}
	if s.AIDetection, err = decodeSlot(KindAIDetection, raw.AIDetection); err != nil {
		return err
	}
	if s.Faces, err = decodeSlot(KindFaces, raw.Faces); err != nil {
		return err
	}
	return nil
}

// ForensicsReport is the aggregated result of one analysis run.
type ForensicsReport struct {
	// ImageID is the opaque token identifying the uploaded image.
	ImageID string `json:"image_id"`

	// SessionID is the opaque token identifying the owning session.
	SessionID string `json:"session_id"`

	// Filename is the client-declared file name of the upload.
	Filename string `json:"filename,omitempty"`

	// GeneratedAt is the timestamp when aggregation completed.
	GeneratedAt time.Time `json:"generated_at"`

	// Results holds one slot per registered analyzer kind.
	Results ResultSet `json:"results"`
}

// NewForensicsReport creates a report bound to the given tokens.
// Slots are filled via SetResult as analyzers settle.
func NewForensicsReport(imageID, sessionID, filename string) *ForensicsReport {
	return &ForensicsReport{
		ImageID:   imageID,
		SessionID: sessionID,
		Filename:  filename,
	}
}

// SetResult routes a settled analyzer result into its slot.
func (r *ForensicsReport) SetResult(result *AnalyzerResult) {
	if result == nil {
		return
	}
	switch result.Kind {
	case KindMetadata:
		r.Results.Metadata = result
	case KindTamper:
		r.Results.Tamper = result
	case KindAIDetection:
		r.Results.AIDetection = result
	case KindFaces:
		r.Results.Faces = result
	}
}

// Complete reports whether every analyzer slot has settled.
func (r *ForensicsReport) Complete() bool {
	return r.Results.Metadata != nil &&
		r.Results.Tamper != nil &&
		r.Results.AIDetection != nil &&
		r.Results.Faces != nil
}
