// Package telemetry groups the observability packages of loadext.
//
// # Components
//
//   - logging: structured logging on log/slog with run context fields
//   - metrics: Prometheus collector for extension loading, served over HTTP
//     or written to a node exporter textfile
package telemetry
