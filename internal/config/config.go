// Package config defines gridcast configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over those defaults.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// DataDir is the root of the persisted wide-table files.
	DataDir string `koanf:"data_dir"`

	// HistoryDB is the SQLite file holding past prediction runs. Empty disables the ledger.
	HistoryDB string `koanf:"history_db"`

	// Addr configures the HTTP listen address of the serve command, e.g. ":9080".
	Addr string `koanf:"addr"`

	// OpenF1BaseURL is the telemetry provider root.
	OpenF1BaseURL string `koanf:"openf1_base_url"`

	// HTTPTimeoutMS bounds a single provider request.
	HTTPTimeoutMS int `koanf:"http_timeout_ms"`

	// RetryAttempts and RetryBackoffMS control the rate-limit retry loop.
	RetryAttempts  int `koanf:"retry_attempts"`
	RetryBackoffMS int `koanf:"retry_backoff_ms"`

	// RequestsPerSecond throttles outgoing provider requests. Zero disables the limiter.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// BuildWorkers is the number of events fetched at once by a season build.
	BuildWorkers int `koanf:"build_workers"`

	// TrainingYears lists the seasons scanned for training events.
	TrainingYears []int `koanf:"training_years"`

	// ModelKind selects the regressor: ridge or gradient.
	ModelKind string `koanf:"model_kind"`

	// RidgeLambda is the L2 penalty of the ridge regressor.
	RidgeLambda float64 `koanf:"ridge_lambda"`

	// GradientLearningRate and GradientIterations tune the gradient regressor.
	GradientLearningRate float64 `koanf:"gradient_learning_rate"`
	GradientIterations   int     `koanf:"gradient_iterations"`

	// MetricsFile, when set, receives a Prometheus text dump when the CLI exits.
	MetricsFile string `koanf:"metrics_file"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		DataDir:              "Formula_1_Grandprix_Data",
		HistoryDB:            "gridcast.db",
		Addr:                 ":9080",
		OpenF1BaseURL:        "https://api.openf1.org/v1",
		HTTPTimeoutMS:        30_000,
		RetryAttempts:        3,
		RetryBackoffMS:       1_000,
		RequestsPerSecond:    3,
		BuildWorkers:         1,
		TrainingYears:        []int{2023, 2024},
		ModelKind:            "ridge",
		RidgeLambda:          1.0,
		GradientLearningRate: 0.001,
		GradientIterations:   2_000,
	}
}

// HTTPTimeout returns HTTPTimeoutMS as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// RetryBackoff returns RetryBackoffMS as a duration.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMS) * time.Millisecond
}
