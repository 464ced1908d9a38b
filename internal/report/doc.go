// Package report renders forensic reports for export.
//
// Writers take a completed report and produce a serialized form: compact or
// pretty JSON for tool integration, Markdown for sharing with humans.
// Rendering never recomputes anything; writers only format what the
// analyzers already produced.
package report
