package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoadConfigFile tests YAML config loading and override semantics.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("overrides only keys present in the file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := []byte("listen_addr: \":9090\"\nsession_ttl: 30m\nevents:\n  enabled: true\n  brokers:\n    - localhost:9092\n  topic: forensics.events\n")
		if err := os.WriteFile(path, content, 0600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		cfg := NewConfig()
		if err := LoadConfigFile(path, cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.ListenAddr != ":9090" {
			t.Errorf("got %q, expected %q", cfg.ListenAddr, ":9090")
		}
		if cfg.SessionTTL != 30*time.Minute {
			t.Errorf("got %v, expected 30m", cfg.SessionTTL)
		}
		if !cfg.Events.Enabled || cfg.Events.Topic != "forensics.events" {
			t.Errorf("events not applied: %+v", cfg.Events)
		}
		// Untouched keys keep their defaults.
		if cfg.SweepInterval != DefaultSweepInterval {
			t.Errorf("got %v, expected default sweep interval", cfg.SweepInterval)
		}
		if cfg.MaxUploadSize != DefaultMaxUploadSize {
			t.Errorf("got %d, expected default upload ceiling", cfg.MaxUploadSize)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yml"), cfg)
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("got %v, expected ErrConfigNotFound", err)
		}
	})

	t.Run("malformed yaml returns an error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte(":\t this is not yaml"), 0600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		cfg := NewConfig()
		if err := LoadConfigFile(path, cfg); err == nil {
			t.Error("expected an error for malformed yaml")
		}
	})
}

// TestFindConfigFile tests config file discovery.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path wins", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yml")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		if got := FindConfigFile(path); got != path {
			t.Errorf("got %q, expected %q", got, path)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yml")); got != "" {
			t.Errorf("got %q, expected empty string", got)
		}
	})
}
