// Package config loads the loadext configuration file.
//
// # Loading Sequence
//
//  1. Read YAML from file (unknown fields are rejected)
//  2. Apply default values
//  3. Apply environment variable overrides (LOADEXT_*)
//  4. Validate, collecting every field error
//
// # Example
//
//	database:
//	  path: "data/app.db"
//	  driver: "native"
//
//	extensions:
//	  - path: "/usr/lib/sqlite3/vec0.so"
//	  - path: "/usr/lib/sqlite3/crypto.so"
//	    entry_point: "sqlite3_crypto_init"
//
//	telemetry:
//	  logging:
//	    level: "debug"
//	    format: "json"
//	  metrics:
//	    enabled: true
//	    textfile: "/var/lib/node_exporter/loadext.prom"
//
// # Environment Variables
//
//	LOADEXT_DATABASE_PATH       database.path
//	LOADEXT_DATABASE_DRIVER     database.driver
//	LOADEXT_WATCH_DEBOUNCE      watch.debounce
//	LOADEXT_LOG_LEVEL           telemetry.logging.level
//	LOADEXT_LOG_FORMAT          telemetry.logging.format
//	LOADEXT_LOG_ADD_SOURCE      telemetry.logging.add_source
//	LOADEXT_METRICS_ENABLED     telemetry.metrics.enabled
//	LOADEXT_METRICS_NAMESPACE   telemetry.metrics.namespace
//	LOADEXT_METRICS_SUBSYSTEM   telemetry.metrics.subsystem
//	LOADEXT_METRICS_TEXTFILE    telemetry.metrics.textfile
//
// # Watching
//
// Watcher reloads the file on change (debounced) and hands each valid
// configuration to a callback; the CLI's watch command uses it to re-run the
// extension batch.
package config
