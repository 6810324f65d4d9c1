// Package metrics provides Prometheus metrics for extension loading.
//
// # Overview
//
// Collector implements loadext.Observer. Attach it to a Loader and every
// toggle of the loading flag, every extension load and every batch is
// counted, including disable failures that the Loader does not return.
//
// # Metrics
//
//   - <ns>_<sub>_toggles_total{state, outcome}
//   - <ns>_<sub>_extension_loads_total{extension, outcome}
//   - <ns>_<sub>_batches_total{outcome}
//   - <ns>_<sub>_batch_duration_seconds
//   - <ns>_<sub>_batch_size
//   - <ns>_<sub>_last_batch_timestamp_seconds
//
// Outcomes are success, invalid, unsupported, toggle_error, load_error and
// error.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	loader := loadext.New(conn, loadext.WithObserver(collector))
//	err := loader.LoadExtensions(exts)
//
//	// One-shot commands export to a textfile
//	collector.WriteTextfile("/var/lib/node_exporter/loadext.prom")
//
//	// Long-running commands serve /metrics
//	http.Handle("/metrics", collector.Handler())
package metrics
