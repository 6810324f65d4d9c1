package config

import (
	"time"

	"mercator-hq/loadext/pkg/loadext"
)

// Config is the root configuration structure for loadext.
type Config struct {
	// Database selects the database file and the engine used to open it.
	Database DatabaseConfig `yaml:"database"`

	// Extensions is the ordered batch of extensions to load.
	Extensions []ExtensionConfig `yaml:"extensions"`

	// Watch contains configuration for the config file watcher.
	Watch WatchConfig `yaml:"watch"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	// Path is the database file path or SQLite URI.
	// Default: ":memory:"
	Path string `yaml:"path" env:"LOADEXT_DATABASE_PATH"`

	// Driver selects the engine.
	// Options: "auto", "native", "purego"
	// Default: "auto"
	Driver string `yaml:"driver" env:"LOADEXT_DATABASE_DRIVER"`
}

// ExtensionConfig is one extension to load.
type ExtensionConfig struct {
	// Path is the shared library file.
	Path string `yaml:"path"`

	// EntryPoint is the initialization symbol. When empty, SQLite derives it
	// from the file name.
	EntryPoint string `yaml:"entry_point"`
}

// WatchConfig contains configuration for the config file watcher.
type WatchConfig struct {
	// Debounce is how long to wait after the last change before reloading.
	// Default: 100ms
	Debounce time.Duration `yaml:"debounce" env:"LOADEXT_WATCH_DEBOUNCE"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level" env:"LOADEXT_LOG_LEVEL"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "text"
	Format string `yaml:"format" env:"LOADEXT_LOG_FORMAT"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source" env:"LOADEXT_LOG_ADD_SOURCE"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected.
	// Default: false
	Enabled bool `yaml:"enabled" env:"LOADEXT_METRICS_ENABLED"`

	// Namespace is the metric name prefix.
	// Default: "loadext"
	Namespace string `yaml:"namespace" env:"LOADEXT_METRICS_NAMESPACE"`

	// Subsystem is the metric subsystem name.
	// Default: "sqlite"
	Subsystem string `yaml:"subsystem" env:"LOADEXT_METRICS_SUBSYSTEM"`

	// Textfile is a file the metrics are written to after each run, in the
	// Prometheus text format read by the node exporter textfile collector.
	// Empty disables the export.
	Textfile string `yaml:"textfile" env:"LOADEXT_METRICS_TEXTFILE"`
}

// Requests converts the configured extensions to a load batch.
func (c *Config) Requests() []loadext.Extension {
	exts := make([]loadext.Extension, 0, len(c.Extensions))
	for _, e := range c.Extensions {
		exts = append(exts, loadext.Extension{Path: e.Path, EntryPoint: e.EntryPoint})
	}
	return exts
}
