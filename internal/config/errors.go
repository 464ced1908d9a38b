package config

import "errors"

// Configuration validation errors. These are returned by Config.Validate()
// as package-level sentinels so callers can use errors.Is while still
// getting a human-readable message.
var (
	// ErrInvalidListenAddr is returned when the HTTP listen address is empty.
	ErrInvalidListenAddr = errors.New("invalid listen address: must not be empty")

	// ErrInvalidSessionTTL is returned when the session TTL is not positive.
	// A non-positive TTL would create sessions that are already expired.
	ErrInvalidSessionTTL = errors.New("invalid session ttl: must be positive")

	// ErrInvalidSweepInterval is returned when the sweep interval is not
	// positive. A non-positive interval would spin the sweeper.
	ErrInvalidSweepInterval = errors.New("invalid sweep interval: must be positive")

	// ErrInvalidAnalyzerTimeout is returned when the per-analyzer timeout is
	// not positive. A non-positive timeout would fail every analyzer
	// immediately.
	ErrInvalidAnalyzerTimeout = errors.New("invalid analyzer timeout: must be positive")

	// ErrInvalidMaxUploadSize is returned when the upload ceiling is not
	// positive.
	ErrInvalidMaxUploadSize = errors.New("invalid max upload size: must be positive")

	// ErrNoAllowedExtensions is returned when the allowed extension list is
	// empty, which would reject every upload.
	ErrNoAllowedExtensions = errors.New("no allowed extensions: at least one image extension is required")

	// ErrInvalidUploadDir is returned when the local storage backend is
	// selected without an upload directory.
	ErrInvalidUploadDir = errors.New("invalid upload dir: must not be empty for local storage")

	// ErrInvalidStorageBackend is returned for an unknown storage backend
	// name. Valid backends: "local", "minio".
	ErrInvalidStorageBackend = errors.New(`invalid storage backend: must be "local" or "minio"`)

	// ErrIncompleteMinIOConfig is returned when the minio backend is selected
	// without an endpoint or bucket.
	ErrIncompleteMinIOConfig = errors.New("incomplete minio config: endpoint and bucket are required")

	// ErrEventBrokersRequired is returned when event publishing is enabled
	// without any Kafka broker addresses.
	ErrEventBrokersRequired = errors.New("event publishing enabled but no brokers configured")

	// ErrEventTopicRequired is returned when event publishing is enabled
	// without a topic.
	ErrEventTopicRequired = errors.New("event publishing enabled but no topic configured")
)
