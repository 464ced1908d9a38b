package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/nao1215/imagescan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for documentation and
// sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ForensicsReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeMetadata(md, report.Results.Metadata)
	w.writeTamper(md, report.Results.Tamper)
	w.writeAIDetection(md, report.Results.AIDetection)
	w.writeFaces(md, report.Results.Faces)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with analysis information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ForensicsReport) {
	md.H1("Image Forensics Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Filename", "`" + report.Filename + "`"},
			{"Image ID", "`" + report.ImageID + "`"},
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")
}

// writeFailure writes a failed slot as an alert. Timeouts and missing
// models are operational conditions; undecodable input is the caller's.
func (w *MarkdownWriter) writeFailure(md *markdown.Markdown, failure *model.AnalyzerFailure) {
	switch failure.Kind {
	case model.FailureUnsupportedInput:
		md.Notef("Analyzer skipped: %s", failure.Message)
	case model.FailureModelUnavailable:
		md.Warningf("Analyzer unavailable: %s", failure.Message)
	default:
		md.Warningf("Analyzer failed (%s): %s", failure.Kind, failure.Message)
	}
	md.PlainText("")
}

// writeMetadata writes the EXIF/file-information section.
func (w *MarkdownWriter) writeMetadata(md *markdown.Markdown, slot *model.AnalyzerResult) {
	md.H2("Metadata")
	md.PlainText("")

	if slot == nil || slot.Failure != nil {
		w.writeFailure(md, slotFailure(slot))
		return
	}
	meta := slot.Metadata

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Format", meta.FileInfo.Format},
			{"Dimensions", fmt.Sprintf("%dx%d", meta.FileInfo.Width, meta.FileInfo.Height)},
			{"Size", strconv.FormatInt(meta.FileInfo.SizeBytes, 10) + " bytes"},
			{"Digest", "`" + truncateString(meta.FileInfo.Digest, 24) + "`"},
		},
	})
	md.PlainText("")

	if len(meta.Tags) == 0 {
		md.Note(meta.Message)
		md.PlainText("")
		return
	}

	names := make([]string, 0, len(meta.Tags))
	for name := range meta.Tags {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, truncateString(meta.Tags[name], 60)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"EXIF Tag", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeTamper writes the tamper-analysis section.
func (w *MarkdownWriter) writeTamper(md *markdown.Markdown, slot *model.AnalyzerResult) {
	md.H2("Tamper Analysis")
	md.PlainText("")

	if slot == nil || slot.Failure != nil {
		w.writeFailure(md, slotFailure(slot))
		return
	}
	score := slot.Tamper

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Score", fmt.Sprintf("%.2f", score.Score)},
			{"Inconsistent Regions", strconv.Itoa(score.Regions)},
			{"Method", score.Method},
		},
	})
	md.PlainText("")

	if score.Score >= 0.5 {
		md.Warningf("High manipulation likelihood (%.2f). Review the flagged regions manually.", score.Score)
		md.PlainText("")
	}
}

// writeAIDetection writes the AI-generation section.
func (w *MarkdownWriter) writeAIDetection(md *markdown.Markdown, slot *model.AnalyzerResult) {
	md.H2("AI Generation")
	md.PlainText("")

	if slot == nil || slot.Failure != nil {
		w.writeFailure(md, slotFailure(slot))
		return
	}
	score := slot.AIDetection

	verdict := "No"
	if score.IsAIGenerated {
		verdict = "Yes"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"AI Generated", verdict},
			{"Confidence", fmt.Sprintf("%.2f", score.Confidence)},
			{"Raw Score", fmt.Sprintf("%.2f", score.RawScore)},
		},
	})
	md.PlainText("")
}

// writeFaces writes the face-analysis section.
func (w *MarkdownWriter) writeFaces(md *markdown.Markdown, slot *model.AnalyzerResult) {
	md.H2("Faces")
	md.PlainText("")

	if slot == nil || slot.Failure != nil {
		w.writeFailure(md, slotFailure(slot))
		return
	}
	faces := slot.Faces

	if faces.Count == 0 {
		md.PlainText("No faces detected.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(faces.Faces))
	for _, face := range faces.Faces {
		rows = append(rows, []string{
			strconv.Itoa(face.Index),
			fmt.Sprintf("%v", face.BoundingBox),
			fmt.Sprintf("%.2f", face.Confidence),
			face.Age,
			face.Gender,
			face.Emotion.Label,
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Bounding Box", "Confidence", "Age", "Gender", "Emotion"},
		Rows:   rows,
	})
	md.PlainText("")
}

// slotFailure returns the slot's failure, synthesizing one for a missing
// slot so rendering never dereferences nil.
func slotFailure(slot *model.AnalyzerResult) *model.AnalyzerFailure {
	if slot == nil {
		return &model.AnalyzerFailure{
			Kind:    model.FailureInferenceError,
			Message: "no result recorded",
		}
	}
	return slot.Failure
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// Ensure MarkdownWriter implements Writer.
var _ Writer = (*MarkdownWriter)(nil)
