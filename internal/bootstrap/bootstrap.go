// Package bootstrap provides dependency initialization for the media composer.
package bootstrap

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/maauso/mediacomposer/internal/compose"
	"github.com/maauso/mediacomposer/internal/config"
	"github.com/maauso/mediacomposer/internal/job"
	"github.com/maauso/mediacomposer/internal/media"
	"github.com/maauso/mediacomposer/internal/storage"
	"github.com/maauso/mediacomposer/internal/timeline"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Composer   *compose.Composer
	JobService *job.Service
	Storage    storage.Storage
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	// Initialize storage
	store, publisher, err := NewStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	composer := NewComposer(cfg, logger, publisher)

	// Initialize job repository and service
	repo := job.NewMemoryRepository()
	svc := job.NewService(repo, composer, store,
		job.WithMaxConcurrentJobs(cfg.MaxConcurrentJobs),
		job.WithLogger(logger),
	)

	return &Dependencies{
		Composer:   composer,
		JobService: svc,
		Storage:    store,
	}, nil
}

// NewComposer wires the ffprobe and ffmpeg adapters into a Composer.
// A nil publisher leaves publication disabled.
func NewComposer(cfg *config.Config, logger *slog.Logger, publisher compose.Publisher) *compose.Composer {
	prober := media.NewFFprobe(cfg.ProbeTimeout)
	encoder := media.NewFFmpegEncoder(cfg.FFmpegPath)

	opts := []compose.ComposerOption{
		compose.WithBuilder(timeline.NewBuilder(timeline.WithExistsCheck(fileExists))),
		compose.WithLogger(logger),
		compose.WithMaxConcurrentProbes(cfg.MaxConcurrentProbes),
	}
	if publisher != nil {
		opts = append(opts, compose.WithPublisher(publisher))
	}

	return compose.NewComposer(prober, encoder, cfg.CompileOptions(), opts...)
}

// NewStorage creates the appropriate storage backend based on configuration.
// The publisher is nil unless S3 is configured.
func NewStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, compose.Publisher, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", cfg.TempDir),
	)
	return localStore, nil, nil
}

// fileExists rejects missing inputs before any probe runs.
func fileExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
