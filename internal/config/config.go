// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"

	"github.com/maauso/mediacomposer/internal/audio"
	"github.com/maauso/mediacomposer/internal/compose"
)

// ErrInvalidConfig is returned when a loaded value is out of range.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port" validate:"min=1,max=65535"`

	// Storage settings
	TempDir string `env:"TEMP_DIR, default=/tmp/mediacomposer" json:"temp_dir" validate:"required"`

	// Engine settings
	FFmpegPath   string        `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path" validate:"required"`
	ProbeTimeout time.Duration `env:"PROBE_TIMEOUT, default=30s" json:"probe_timeout" validate:"gt=0"`

	// Canvas settings
	TargetWidth      int     `env:"TARGET_WIDTH, default=1920" json:"target_width" validate:"gt=0"`
	TargetHeight     int     `env:"TARGET_HEIGHT, default=1080" json:"target_height" validate:"gt=0"`
	TargetFPS        int     `env:"TARGET_FPS, default=25" json:"target_fps" validate:"gt=0,lte=120"`
	TargetSampleRate int     `env:"TARGET_SAMPLE_RATE, default=44100" json:"target_sample_rate" validate:"gt=0"`
	ZoomEnabled      bool    `env:"ZOOM_ENABLED, default=false" json:"zoom_enabled"`
	ZoomMax          float64 `env:"ZOOM_MAX, default=1.1" json:"zoom_max" validate:"gte=1"`

	// Mix settings
	MixGainMode string  `env:"MIX_GAIN_MODE, default=fixed" json:"mix_gain_mode" validate:"oneof=fixed linear"`
	MixGainDB   float64 `env:"MIX_GAIN_DB, default=4" json:"mix_gain_db"`

	// Processing settings
	MaxConcurrentProbes int `env:"MAX_CONCURRENT_PROBES, default=4" json:"max_concurrent_probes" validate:"gt=0"`
	MaxConcurrentJobs   int `env:"MAX_CONCURRENT_JOBS, default=2" json:"max_concurrent_jobs" validate:"gt=0"`

	// Encoding settings
	VideoCodec   string `env:"VIDEO_CODEC, default=libx264" json:"video_codec" validate:"required"`
	VideoPreset  string `env:"VIDEO_PRESET, default=fast" json:"video_preset"`
	VideoCRF     int    `env:"VIDEO_CRF, default=23" json:"video_crf" validate:"gt=0,lte=51"`
	AudioCodec   string `env:"AUDIO_CODEC, default=aac" json:"audio_codec" validate:"required"`
	AudioBitrate string `env:"AUDIO_BITRATE, default=192k" json:"audio_bitrate"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty" validate:"omitempty,url"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format" validate:"oneof=text json"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`                              // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig
// and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every field against its validate tag and reports the
// offending environment variables.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(fields, ", "))
}

// CompileOptions derives the compiler options from the configuration.
func (c *Config) CompileOptions() compose.Options {
	opts := compose.DefaultOptions()

	opts.Video.Width = c.TargetWidth
	opts.Video.Height = c.TargetHeight
	opts.Video.FPS = c.TargetFPS
	opts.Video.Zoom = c.ZoomEnabled
	opts.Video.ZoomMax = c.ZoomMax

	opts.Audio.SampleRate = c.TargetSampleRate
	opts.Audio.GainMode = audio.GainMode(strings.ToLower(c.MixGainMode))
	opts.Audio.GainDB = c.MixGainDB

	opts.Encoding.VideoCodec = c.VideoCodec
	opts.Encoding.Preset = c.VideoPreset
	opts.Encoding.CRF = c.VideoCRF
	opts.Encoding.AudioCodec = c.AudioCodec
	opts.Encoding.AudioBitrate = c.AudioBitrate

	return opts
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, TempDir: %s, FFmpegPath: %s, Canvas: %dx%d@%d, SampleRate: %d, Zoom: %t, MixGain: %s/%g, MaxConcurrentJobs: %d, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.TempDir,
		c.FFmpegPath,
		c.TargetWidth,
		c.TargetHeight,
		c.TargetFPS,
		c.TargetSampleRate,
		c.ZoomEnabled,
		c.MixGainMode,
		c.MixGainDB,
		c.MaxConcurrentJobs,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
