// Package archive persists completed forensic reports in SQLite.
//
// Reports are stored as JSON keyed by their session/image token pair, so a
// report can be re-exported later without re-running any analyzer. Rows are
// purged together with their owning session.
package archive
