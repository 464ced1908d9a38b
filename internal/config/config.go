package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. These are operational defaults observed in
// this class of forensics service, not protocol requirements; every one of
// them can be overridden via the config file or CLI flags.
const (
	// DefaultListenAddr is the HTTP listen address.
	DefaultListenAddr = ":8080"

	// DefaultSessionTTL is how long an uploaded image stays reachable.
	// One hour bounds the exposure window of the session-scoped public URL
	// while leaving enough time for reverse-search and export round trips.
	DefaultSessionTTL = time.Hour

	// DefaultSweepInterval is how often the expiry sweeper runs.
	// Ten minutes keeps worst-case storage overstay at TTL + 10m.
	DefaultSweepInterval = 10 * time.Minute

	// DefaultAnalyzerTimeout bounds a single analyzer run. Model inference is
	// the dominant latency source; the overall response is bounded by the
	// slowest analyzer, never by their sum.
	DefaultAnalyzerTimeout = 30 * time.Second

	// DefaultMaxUploadSize is the upload ceiling in bytes (50MB).
	DefaultMaxUploadSize = 50 << 20

	// AppName is the application name used for XDG directory paths.
	AppName = "imagescan"

	// StorageBackendLocal stores session artifacts on the local filesystem.
	StorageBackendLocal = "local"

	// StorageBackendMinIO stores session artifacts in a MinIO/S3 bucket.
	StorageBackendMinIO = "minio"

	// DefaultEventTopic is the Kafka topic for analysis lifecycle events.
	DefaultEventTopic = "imagescan.events"
)

// DefaultAllowedExtensions are the upload file extensions accepted by the
// gateway. Formats outside this set are rejected before a session exists.
var DefaultAllowedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".webp"}

// MinIOConfig holds object-storage backend settings.
type MinIOConfig struct {
	// Endpoint is the MinIO server address in "host:port" format.
	Endpoint string `yaml:"endpoint"`

	// AccessKey is the MinIO access key ID.
	AccessKey string `yaml:"access_key"`

	// SecretKey is the MinIO secret access key.
	SecretKey string `yaml:"secret_key"`

	// Bucket is the bucket holding session artifacts.
	Bucket string `yaml:"bucket"`

	// UseSSL enables TLS for the MinIO connection.
	UseSSL bool `yaml:"use_ssl"`
}

// EventsConfig holds the optional Kafka event publishing settings.
type EventsConfig struct {
	// Enabled turns on lifecycle event publishing.
	Enabled bool `yaml:"enabled"`

	// Brokers is the list of Kafka broker addresses.
	Brokers []string `yaml:"brokers"`

	// Topic is the Kafka topic for events.
	Topic string `yaml:"topic"`
}

// Config holds all configuration options for the imagescan server.
type Config struct {
	// ListenAddr is the HTTP listen address in "host:port" or ":port" format.
	ListenAddr string `yaml:"listen_addr"`

	// PublicBaseURL is the externally reachable base URL used to build
	// session-scoped image URLs for reverse search. When empty, the server
	// derives it per request from X-Forwarded-Host/X-Forwarded-Proto and the
	// Host header.
	PublicBaseURL string `yaml:"public_base_url"`

	// SessionTTL is the fixed lifetime of a session. TTL is set at creation
	// and never extended.
	SessionTTL time.Duration `yaml:"session_ttl"`

	// SweepInterval is how often expired sessions are reclaimed.
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// AnalyzerTimeout is the per-analyzer time budget. A timed-out analyzer
	// is reported as a timeout failure; it never delays the other analyzers.
	AnalyzerTimeout time.Duration `yaml:"analyzer_timeout"`

	// MaxUploadSize is the upload ceiling in bytes.
	MaxUploadSize int64 `yaml:"max_upload_size"`

	// AllowedExtensions are the accepted upload file extensions (lowercase,
	// dot-prefixed).
	AllowedExtensions []string `yaml:"allowed_extensions"`

	// UploadDir is where the local storage backend keeps session artifacts.
	UploadDir string `yaml:"upload_dir"`

	// ModelDir is where analyzers look for calibration profiles. Analyzers
	// fall back to built-in defaults when a profile is absent.
	ModelDir string `yaml:"model_dir"`

	// DataDir is where the report archive database lives.
	DataDir string `yaml:"data_dir"`

	// StorageBackend selects the artifact storage: "local" or "minio".
	StorageBackend string `yaml:"storage_backend"`

	// MinIO configures the object-storage backend. Only read when
	// StorageBackend is "minio".
	MinIO MinIOConfig `yaml:"minio"`

	// Events configures optional Kafka lifecycle event publishing.
	Events EventsConfig `yaml:"events"`

	// Verbose enables debug-level logging.
	Verbose bool `yaml:"verbose"`

	// JSONLog switches log output from text to JSON.
	JSONLog bool `yaml:"json_log"`
}

// NewConfig creates a Config with default values. Many defaults are non-zero,
// so callers must start from this constructor rather than a zero Config.
func NewConfig() *Config {
	return &Config{
		ListenAddr:        DefaultListenAddr,
		SessionTTL:        DefaultSessionTTL,
		SweepInterval:     DefaultSweepInterval,
		AnalyzerTimeout:   DefaultAnalyzerTimeout,
		MaxUploadSize:     DefaultMaxUploadSize,
		AllowedExtensions: append([]string(nil), DefaultAllowedExtensions...),
		UploadDir:         filepath.Join(XDGDataDir(), "uploads"),
		ModelDir:          XDGCacheDir(),
		DataDir:           XDGDataDir(),
		StorageBackend:    StorageBackendLocal,
		Events: EventsConfig{
			Topic: DefaultEventTopic,
		},
	}
}

// XDGDataDir returns the XDG data directory for imagescan.
// On Linux: ~/.local/share/imagescan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for imagescan.
// On Linux: ~/.config/imagescan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for imagescan.
// On Linux: ~/.cache/imagescan
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks that the configuration is usable. It returns the first
// problem found as a sentinel error usable with errors.Is.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return ErrInvalidListenAddr
	}
	if c.SessionTTL <= 0 {
		return ErrInvalidSessionTTL
	}
	if c.SweepInterval <= 0 {
		return ErrInvalidSweepInterval
	}
	if c.AnalyzerTimeout <= 0 {
		return ErrInvalidAnalyzerTimeout
	}
	if c.MaxUploadSize <= 0 {
		return ErrInvalidMaxUploadSize
	}
	if len(c.AllowedExtensions) == 0 {
		return ErrNoAllowedExtensions
	}

	switch c.StorageBackend {
	case StorageBackendLocal:
		if strings.TrimSpace(c.UploadDir) == "" {
			return ErrInvalidUploadDir
		}
	case StorageBackendMinIO:
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			return ErrIncompleteMinIOConfig
		}
	default:
		return ErrInvalidStorageBackend
	}

	if c.Events.Enabled {
		if len(c.Events.Brokers) == 0 {
			return ErrEventBrokersRequired
		}
		if strings.TrimSpace(c.Events.Topic) == "" {
			return ErrEventTopicRequired
		}
	}

	return nil
}

// ExtensionAllowed reports whether the given file extension (lowercase,
// dot-prefixed) is accepted by the upload gateway.
func (c *Config) ExtensionAllowed(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range c.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
