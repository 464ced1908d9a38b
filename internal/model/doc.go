// Package model defines the core data structures used throughout imagescan.
//
// This package contains the following main types:
//   - Session: A time-bounded handle binding one uploaded image to two opaque tokens
//   - ForensicsReport: The aggregated result of one analysis run
//   - AnalyzerResult: The success-or-failure outcome of a single analyzer
//   - AnalyzerFailure: A typed, human-readable analyzer fault
//
// The models are designed to be serializable to JSON for the HTTP response
// contract and for archive storage. Multiple packages (analyzer, orchestrator,
// session, report) need these types, so centralizing them prevents import
// cycles.
package model
