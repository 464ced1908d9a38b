// Package log provides secure logging utilities for imagescan.
//
// Session and image identifiers are capability tokens: whoever holds the
// pair can fetch the uploaded image until the session expires. The handlers
// in this package truncate such tokens in log output so a leaked log line
// cannot be replayed against a live session, while keeping enough of the
// prefix for correlation across log lines. Ordinary secrets (passwords,
// authorization headers) are fully masked.
package log
