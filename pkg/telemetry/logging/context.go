package logging

import (
	"context"
)

// Context keys for common log fields.
type contextKey string

const (
	// RunIDKey is the context key for the CLI run identifier.
	RunIDKey contextKey = "run_id"

	// DatabaseKey is the context key for the database path.
	DatabaseKey contextKey = "database"

	// DriverKey is the context key for the engine name.
	DriverKey contextKey = "driver"
)

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the run ID from the context.
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

// WithDatabase adds a database path to the context.
func WithDatabase(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, DatabaseKey, path)
}

// GetDatabase retrieves the database path from the context.
func GetDatabase(ctx context.Context) string {
	if path, ok := ctx.Value(DatabaseKey).(string); ok {
		return path
	}
	return ""
}

// WithDriver adds an engine name to the context.
func WithDriver(ctx context.Context, driver string) context.Context {
	return context.WithValue(ctx, DriverKey, driver)
}

// GetDriver retrieves the engine name from the context.
func GetDriver(ctx context.Context) string {
	if driver, ok := ctx.Value(DriverKey).(string); ok {
		return driver
	}
	return ""
}

// extractContextFields returns the context's run fields as key-value pairs
// suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any

	if runID := GetRunID(ctx); runID != "" {
		fields = append(fields, "run_id", runID)
	}
	if path := GetDatabase(ctx); path != "" {
		fields = append(fields, "database", path)
	}
	if driver := GetDriver(ctx); driver != "" {
		fields = append(fields, "driver", driver)
	}

	return fields
}
