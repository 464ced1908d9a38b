package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// tokenKeys contains attribute keys whose values are capability tokens.
// These values are truncated, not removed: the prefix is still needed to
// correlate log lines belonging to the same session.
var tokenKeys = map[string]bool{
	"session_id": true,
	"sessionid":  true,
	"image_id":   true,
	"imageid":    true,
	"token":      true,
}

// secretKeys contains attribute keys whose values must be fully masked.
var secretKeys = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"proxy-authorization": true,
	"password":            true,
	"passwd":              true,
	"secret":              true,
	"api_key":             true,
	"apikey":              true,
	"access_key":          true,
	"secret_key":          true,
	"credential":          true,
	"credentials":         true,
}

// uuidPattern matches UUID-shaped values. Session and image tokens are
// UUIDs, so UUID-shaped string values are truncated even under unknown keys.
var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// MaskValue is the string used to replace fully masked secrets.
const MaskValue = "***REDACTED***"

// tokenPrefixLen is how many characters of a capability token survive
// truncation.
const tokenPrefixLen = 8

// TruncateToken shortens a capability token to a correlatable prefix.
// Values at or below the prefix length are returned unchanged.
func TruncateToken(token string) string {
	if len(token) <= tokenPrefixLen {
		return token
	}
	return token[:tokenPrefixLen] + "***"
}

// SecureHandler wraps an slog.Handler to sanitize capability tokens and
// secrets. It intercepts log records and rewrites attribute values before
// passing them to the underlying handler, so it composes with any text or
// JSON handler.
type SecureHandler struct {
	// handler is the underlying slog handler that receives sanitized records.
	handler slog.Handler
}

// NewSecureHandler creates a new SecureHandler wrapping the given handler.
// If handler is nil, the returned SecureHandler uses slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and passes it to the underlying handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})

	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are sanitized before being added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitizedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitizedAttrs[i] = h.sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitizedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr sanitizes a single attribute, recursively handling groups.
func (h *SecureHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitizedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			sanitizedAttrs[i] = h.sanitizeAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitizedAttrs...)}
	}

	keyLower := strings.ToLower(a.Key)

	if secretKeys[keyLower] {
		return slog.String(a.Key, MaskValue)
	}

	if tokenKeys[keyLower] && a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, TruncateToken(a.Value.String()))
	}

	// Unknown key carrying a UUID-shaped value: treat as a capability token.
	if a.Value.Kind() == slog.KindString && uuidPattern.MatchString(a.Value.String()) {
		return slog.String(a.Key, TruncateToken(a.Value.String()))
	}

	return a
}

// NewSecureLogger creates a text-format slog.Logger with token sanitization.
//
// Parameters:
//   - w: the io.Writer to write log output to (typically os.Stderr)
//   - verbose: if true, sets log level to Debug; otherwise Info
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger creates a JSON-format slog.Logger with token
// sanitization. Useful for structured log aggregation.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

// handlerOptions returns slog options for the requested verbosity.
func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
