package config

import (
	"errors"
	"testing"
	"time"
)

// TestNewConfig tests the configuration defaults.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("sets listen address", func(t *testing.T) {
		t.Parallel()
		if cfg.ListenAddr != DefaultListenAddr {
			t.Errorf("got %q, expected %q", cfg.ListenAddr, DefaultListenAddr)
		}
	})

	t.Run("sets session lifetime defaults", func(t *testing.T) {
		t.Parallel()
		if cfg.SessionTTL != time.Hour {
			t.Errorf("got %v, expected 1h", cfg.SessionTTL)
		}
		if cfg.SweepInterval != 10*time.Minute {
			t.Errorf("got %v, expected 10m", cfg.SweepInterval)
		}
	})

	t.Run("defaults to local storage", func(t *testing.T) {
		t.Parallel()
		if cfg.StorageBackend != StorageBackendLocal {
			t.Errorf("got %q, expected %q", cfg.StorageBackend, StorageBackendLocal)
		}
		if cfg.UploadDir == "" {
			t.Error("expected non-empty upload dir")
		}
	})

	t.Run("events disabled by default", func(t *testing.T) {
		t.Parallel()
		if cfg.Events.Enabled {
			t.Error("expected events to be disabled by default")
		}
		if cfg.Events.Topic != DefaultEventTopic {
			t.Errorf("got %q, expected %q", cfg.Events.Topic, DefaultEventTopic)
		}
	})

	t.Run("default config is valid", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected validation error: %v", err)
		}
	})
}

// TestConfigValidate tests validation failures.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{
			name:   "empty listen address",
			mutate: func(c *Config) { c.ListenAddr = "  " },
			want:   ErrInvalidListenAddr,
		},
		{
			name:   "zero session ttl",
			mutate: func(c *Config) { c.SessionTTL = 0 },
			want:   ErrInvalidSessionTTL,
		},
		{
			name:   "negative sweep interval",
			mutate: func(c *Config) { c.SweepInterval = -time.Second },
			want:   ErrInvalidSweepInterval,
		},
		{
			name:   "zero analyzer timeout",
			mutate: func(c *Config) { c.AnalyzerTimeout = 0 },
			want:   ErrInvalidAnalyzerTimeout,
		},
		{
			name:   "zero upload ceiling",
			mutate: func(c *Config) { c.MaxUploadSize = 0 },
			want:   ErrInvalidMaxUploadSize,
		},
		{
			name:   "no allowed extensions",
			mutate: func(c *Config) { c.AllowedExtensions = nil },
			want:   ErrNoAllowedExtensions,
		},
		{
			name:   "unknown storage backend",
			mutate: func(c *Config) { c.StorageBackend = "ftp" },
			want:   ErrInvalidStorageBackend,
		},
		{
			name: "minio backend without endpoint",
			mutate: func(c *Config) {
				c.StorageBackend = StorageBackendMinIO
				c.MinIO.Bucket = "uploads"
			},
			want: ErrIncompleteMinIOConfig,
		},
		{
			name: "events enabled without brokers",
			mutate: func(c *Config) {
				c.Events.Enabled = true
			},
			want: ErrEventBrokersRequired,
		},
		{
			name: "events enabled without topic",
			mutate: func(c *Config) {
				c.Events.Enabled = true
				c.Events.Brokers = []string{"localhost:9092"}
				c.Events.Topic = ""
			},
			want: ErrEventTopicRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.mutate(cfg)

			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, expected %v", err, tt.want)
			}
		})
	}
}

// TestConfigExtensionAllowed tests the upload extension check.
func TestConfigExtensionAllowed(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	tests := []struct {
		ext  string
		want bool
	}{
		{".jpg", true},
		{".JPEG", true},
		{".png", true},
		{".webp", true},
		{".gif", false},
		{".exe", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run("ext "+tt.ext, func(t *testing.T) {
			t.Parallel()
			if got := cfg.ExtensionAllowed(tt.ext); got != tt.want {
				t.Errorf("ExtensionAllowed(%q) = %v, expected %v", tt.ext, got, tt.want)
			}
		})
	}
}
