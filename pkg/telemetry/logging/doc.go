// Package logging provides structured logging for the loadext CLI.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - JSON, text and console output
//   - Context-aware logging with run IDs and database fields
//   - Configurable log levels (debug, info, warn, error)
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	ctx = logging.WithRunID(ctx, runID)
//	logger.WithContext(ctx).Info("Extensions loaded", "count", 2)
//
//	// Hand the slog logger to the loader
//	loader := loadext.New(conn, loadext.WithLogger(logger.Slog()))
//
// Logs are written to stderr by default so stdout stays free for command
// output.
package logging
