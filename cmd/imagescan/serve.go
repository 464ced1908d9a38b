package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/imagescan/internal/analyzer"
	"github.com/nao1215/imagescan/internal/archive"
	"github.com/nao1215/imagescan/internal/config"
	"github.com/nao1215/imagescan/internal/events"
	"github.com/nao1215/imagescan/internal/log"
	"github.com/nao1215/imagescan/internal/orchestrator"
	"github.com/nao1215/imagescan/internal/reverse"
	"github.com/nao1215/imagescan/internal/server"
	"github.com/nao1215/imagescan/internal/session"
	"github.com/nao1215/imagescan/internal/storage"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 15 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the image forensics HTTP server",
		Long: `Serve starts the HTTP API.

Endpoints:
  POST /analyze                          Upload an image and run all analyzers
  GET  /reverse/{engine}                 Build a reverse image search URL
  GET  /export/{session_id}/{image_id}   Export an archived report (json or markdown)
  GET  /uploads/{session_id}/{image_id}  Serve a stored artifact
  POST /cleanup/{session_id}             Reclaim a session immediately
  GET  /health                           Liveness probe

Examples:
  # Start with defaults (local storage, :8080)
  imagescan serve

  # Custom listen address and shorter session lifetime
  imagescan serve --addr :9000 --session-ttl 30m

  # Store artifacts in MinIO (endpoint and bucket from the config file)
  imagescan serve --storage minio -c /etc/imagescan.yaml

Configuration file (.imagescan) example:
  listen_addr: ":8080"
  session_ttl: 1h
  storage_backend: minio
  minio:
    endpoint: "minio:9000"
    access_key: "forensics"
    secret_key: "secret"
    bucket: "imagescan"
  events:
    enabled: true
    brokers: ["kafka:9092"]
    topic: "imagescan.events"`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", config.DefaultListenAddr,
		"HTTP listen address")
	cmd.Flags().String("public-base-url", "",
		"Externally reachable base URL (default: derived from request headers)")
	cmd.Flags().Duration("session-ttl", config.DefaultSessionTTL,
		"Session lifetime; uploads become unreachable after this")
	cmd.Flags().Duration("sweep-interval", config.DefaultSweepInterval,
		"How often expired sessions are reclaimed")
	cmd.Flags().Duration("analyzer-timeout", config.DefaultAnalyzerTimeout,
		"Per-analyzer time budget")
	cmd.Flags().Int64("max-upload-size", config.DefaultMaxUploadSize,
		"Upload size ceiling in bytes")
	cmd.Flags().String("upload-dir", "",
		"Directory for stored artifacts (default: XDG data directory)")
	cmd.Flags().String("model-dir", "",
		"Directory with analyzer calibration profiles (default: XDG cache directory)")
	cmd.Flags().String("data-dir", "",
		"Directory for the report archive database (default: XDG data directory)")
	cmd.Flags().StringP("storage", "s", config.StorageBackendLocal,
		"Artifact storage backend: local or minio")
	cmd.Flags().Bool("json-log", false,
		"Emit logs as JSON instead of text")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .imagescan in current or home directory)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, stopping...")
		cancel()
	}()

	return runServe(ctx, cfg, logger)
}

// buildConfig creates a Config from the config file and command flags.
// File values override defaults; explicitly set flags override the file.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	configFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath := config.FindConfigFile(configFlag)
	if configPath != "" {
		if err := config.LoadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if configFlag != "" {
		return nil, fmt.Errorf("configuration file not found: %s", configFlag)
	}

	if cmd.Flags().Changed("addr") {
		if cfg.ListenAddr, err = cmd.Flags().GetString("addr"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("public-base-url") {
		if cfg.PublicBaseURL, err = cmd.Flags().GetString("public-base-url"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("session-ttl") {
		if cfg.SessionTTL, err = cmd.Flags().GetDuration("session-ttl"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("sweep-interval") {
		if cfg.SweepInterval, err = cmd.Flags().GetDuration("sweep-interval"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("analyzer-timeout") {
		if cfg.AnalyzerTimeout, err = cmd.Flags().GetDuration("analyzer-timeout"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("max-upload-size") {
		if cfg.MaxUploadSize, err = cmd.Flags().GetInt64("max-upload-size"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("upload-dir") {
		if cfg.UploadDir, err = cmd.Flags().GetString("upload-dir"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("model-dir") {
		if cfg.ModelDir, err = cmd.Flags().GetString("model-dir"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("data-dir") {
		if cfg.DataDir, err = cmd.Flags().GetString("data-dir"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("storage") {
		if cfg.StorageBackend, err = cmd.Flags().GetString("storage"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("json-log") {
		if cfg.JSONLog, err = cmd.Flags().GetBool("json-log"); err != nil {
			return nil, err
		}
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the sanitizing structured logger.
func setupLogger(cfg *config.Config) *slog.Logger {
	if cfg.JSONLog {
		return log.NewSecureJSONLogger(os.Stderr, cfg.Verbose)
	}
	return log.NewSecureLogger(os.Stderr, cfg.Verbose)
}

// newStorage selects the artifact storage backend.
func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.StorageBackendMinIO:
		return storage.NewMinIO(ctx, storage.MinIOOptions{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		})
	default:
		return storage.NewLocal(cfg.UploadDir)
	}
}

// runServe wires everything together and serves until the context ends.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := newStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	arch, err := archive.Open(cfg.DataDir, archive.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open report archive: %w", err)
	}
	defer func() {
		if err := arch.Close(); err != nil {
			logger.Warn("failed to close archive", "error", err)
		}
	}()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		kafkaPub := events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic)
		defer func() {
			if err := kafkaPub.Close(); err != nil {
				logger.Warn("failed to close event publisher", "error", err)
			}
		}()
		publisher = kafkaPub
		logger.Info("event publishing enabled",
			"brokers", cfg.Events.Brokers, "topic", cfg.Events.Topic)
	}

	sessions := session.NewStore(cfg.SessionTTL)
	adapters := []*analyzer.Adapter{
		analyzer.NewAdapter(analyzer.NewMetadataAnalyzer(), cfg.AnalyzerTimeout, logger),
		analyzer.NewAdapter(analyzer.NewTamperAnalyzer(cfg.ModelDir), cfg.AnalyzerTimeout, logger),
		analyzer.NewAdapter(analyzer.NewAIGenAnalyzer(cfg.ModelDir), cfg.AnalyzerTimeout, logger),
		analyzer.NewAdapter(analyzer.NewFaceAnalyzer(), cfg.AnalyzerTimeout, logger),
	}

	orch := orchestrator.New(store, sessions, arch, adapters, publisher, logger)

	sweeper := session.NewSweeper(sessions, store, arch, orch, cfg.SweepInterval, logger)
	go sweeper.Run(ctx)

	handler := server.NewHandler(orch, sessions, store, arch, reverse.NewBuilder(sessions), cfg, logger)
	srv := server.New(cfg.ListenAddr, server.NewRouter(handler, logger))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started",
			"addr", cfg.ListenAddr,
			"storage", cfg.StorageBackend,
			"session_ttl", cfg.SessionTTL,
			"sweep_interval", cfg.SweepInterval)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
