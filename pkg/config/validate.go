package config

import (
	"fmt"
	"slices"
	"strings"

	"mercator-hq/loadext/pkg/loadext"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "extensions[0].path").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

var (
	validDrivers    = []string{"auto", "native", "purego"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"json", "text", "console"}
)

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateDatabase(&cfg.Database)...)
	errs = append(errs, validateExtensions(cfg.Extensions)...)
	errs = append(errs, validateWatch(&cfg.Watch)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateDatabase validates database configuration.
func validateDatabase(cfg *DatabaseConfig) []FieldError {
	var errs []FieldError

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "database.path",
			Message: "database path is required",
		})
	} else if strings.IndexByte(cfg.Path, 0) >= 0 {
		errs = append(errs, FieldError{
			Field:   "database.path",
			Message: "database path contains an interior null byte",
		})
	}

	if !slices.Contains(validDrivers, cfg.Driver) {
		errs = append(errs, FieldError{
			Field:   "database.driver",
			Message: fmt.Sprintf("invalid driver %q (valid: %s)", cfg.Driver, strings.Join(validDrivers, ", ")),
		})
	}

	return errs
}

// validateExtensions validates every configured extension. Strings are
// checked the same way the loader checks them before calling the engine.
func validateExtensions(exts []ExtensionConfig) []FieldError {
	var errs []FieldError

	for i, ext := range exts {
		field := fmt.Sprintf("extensions[%d]", i)

		if ext.Path == "" {
			errs = append(errs, FieldError{
				Field:   field + ".path",
				Message: "extension path is required",
			})
		} else if _, ok := loadext.NewCString(ext.Path); !ok {
			errs = append(errs, FieldError{
				Field:   field + ".path",
				Message: loadext.ErrInvalidPath.Error(),
			})
		}

		if _, ok := loadext.NewCString(ext.EntryPoint); !ok {
			errs = append(errs, FieldError{
				Field:   field + ".entry_point",
				Message: loadext.ErrInvalidEntryPoint.Error(),
			})
		}
	}

	return errs
}

// validateWatch validates watcher configuration.
func validateWatch(cfg *WatchConfig) []FieldError {
	if cfg.Debounce < 0 {
		return []FieldError{{
			Field:   "watch.debounce",
			Message: "debounce must be non-negative",
		}}
	}
	return nil
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	if !slices.Contains(validLogLevels, strings.ToLower(cfg.Logging.Level)) {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (valid: %s)", cfg.Logging.Level, strings.Join(validLogLevels, ", ")),
		})
	}
	if !slices.Contains(validLogFormats, strings.ToLower(cfg.Logging.Format)) {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (valid: %s)", cfg.Logging.Format, strings.Join(validLogFormats, ", ")),
		})
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Namespace == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.namespace",
			Message: "namespace is required when metrics are enabled",
		})
	}

	return errs
}
