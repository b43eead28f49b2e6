// Package config defines process configuration and its loading.
//
// Values are layered: defaults from New, then an optional YAML file, then
// environment variables. Command-line flags are applied on top by the caller.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/CeoatNorthstar/openCern/internal/domain/model"
	"github.com/cockroachdb/errors"
)

// fallbackHome is used when the user home directory cannot be determined.
const fallbackHome = "/home/appuser"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log records.
	LogFormat string `koanf:"log_format"`

	// OutputDir receives one <stem>.json document per processed file.
	OutputDir string `koanf:"output_dir"`

	// MaxEvents is the number of events kept per file.
	MaxEvents int `koanf:"max_events"`

	// Experiment forces a layout: auto, cms, atlas or alice.
	Experiment string `koanf:"experiment"`

	// ProgressInterval logs scan progress every N rows; 0 disables it.
	ProgressInterval int64 `koanf:"progress_interval"`

	// Addr configures the HTTP listen address of serve mode.
	Addr string `koanf:"addr"`

	// StreamIntervalMS is the delay between events on /stream.
	StreamIntervalMS int `koanf:"stream_interval_ms"`

	// MetricsFile, when set, receives a Prometheus textfile after processing.
	MetricsFile string `koanf:"metrics_file"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		OutputDir:        DefaultOutputDir(),
		MaxEvents:        5000,
		Experiment:       "auto",
		ProgressInterval: 50_000,
		Addr:             "127.0.0.1:9001",
		StreamIntervalMS: 100,
	}
}

// DefaultOutputDir is $HOME/opencern-datasets/processed.
func DefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = fallbackHome
	}
	return filepath.Join(home, "opencern-datasets", "processed")
}

// ExperimentValue parses the Experiment setting.
func (c *Config) ExperimentValue() (model.Experiment, error) {
	return model.ParseExperiment(c.Experiment)
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch {
	case c.MaxEvents <= 0:
		return errors.Wrapf(ErrInvalidConfig, "max_events must be positive, got %d", c.MaxEvents)
	case strings.TrimSpace(c.OutputDir) == "":
		return errors.Wrap(ErrInvalidConfig, "output_dir must not be empty")
	case c.Addr == "":
		return errors.Wrap(ErrInvalidConfig, "addr must not be empty")
	case c.StreamIntervalMS < 0:
		return errors.Wrapf(ErrInvalidConfig, "stream_interval_ms must not be negative, got %d", c.StreamIntervalMS)
	case c.ProgressInterval < 0:
		return errors.Wrapf(ErrInvalidConfig, "progress_interval must not be negative, got %d", c.ProgressInterval)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return errors.Wrapf(ErrInvalidConfig, "log_format %q is not text or json", c.LogFormat)
	}
	if _, err := c.ExperimentValue(); err != nil {
		return errors.Mark(errors.WithHint(err, "use auto, cms, atlas or alice"), ErrInvalidConfig)
	}
	return nil
}
