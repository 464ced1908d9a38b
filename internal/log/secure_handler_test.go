package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// TestTruncateToken tests capability token truncation.
func TestTruncateToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{
			name:  "uuid token keeps correlatable prefix",
			token: "550e8400-e29b-41d4-a716-446655440000",
			want:  "550e8400***",
		},
		{
			name:  "short value unchanged",
			token: "abc",
			want:  "abc",
		},
		{
			name:  "empty value unchanged",
			token: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateToken(tt.token); got != tt.want {
				t.Errorf("TruncateToken(%q) = %q, expected %q", tt.token, got, tt.want)
			}
		})
	}
}

// TestSecureHandlerSanitization tests attribute sanitization end to end.
func TestSecureHandlerSanitization(t *testing.T) {
	t.Parallel()

	t.Run("truncates session and image tokens", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureJSONLogger(&buf, false)

		logger.Info("session created",
			"session_id", "550e8400-e29b-41d4-a716-446655440000",
			"image_id", "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		)

		var record map[string]any
		if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
			t.Fatalf("failed to parse log output: %v", err)
		}
		if got := record["session_id"]; got != "550e8400***" {
			t.Errorf("got %q, expected truncated session token", got)
		}
		if got := record["image_id"]; got != "6ba7b810***" {
			t.Errorf("got %q, expected truncated image token", got)
		}
	})

	t.Run("truncates uuid values under unknown keys", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureJSONLogger(&buf, false)

		logger.Info("lookup", "target", "550e8400-e29b-41d4-a716-446655440000")

		if strings.Contains(buf.String(), "446655440000") {
			t.Errorf("full token leaked into log output: %s", buf.String())
		}
	})

	t.Run("masks secrets fully", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, false)

		logger.Info("request", "authorization", "Bearer super-secret-value")

		out := buf.String()
		if strings.Contains(out, "super-secret-value") {
			t.Errorf("secret leaked into log output: %s", out)
		}
		if !strings.Contains(out, MaskValue) {
			t.Errorf("expected mask value in output: %s", out)
		}
	})

	t.Run("leaves ordinary attributes alone", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, false)

		logger.Info("upload accepted", "filename", "cat.jpg", "size", 2048)

		out := buf.String()
		if !strings.Contains(out, "cat.jpg") {
			t.Errorf("ordinary attribute mangled: %s", out)
		}
	})

	t.Run("verbose enables debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, true)

		logger.Debug("debug line")

		if !strings.Contains(buf.String(), "debug line") {
			t.Error("expected debug output in verbose mode")
		}
	})

	t.Run("debug suppressed by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, false)

		logger.Debug("debug line")

		if buf.Len() != 0 {
			t.Errorf("expected no debug output, got %s", buf.String())
		}
	})
}
