// Loadext loads SQLite extensions into a database connection without ever
// leaving extension loading switched on.
//
// Usage:
//
//	# Load the extensions listed in loadext.yaml
//	loadext load
//
//	# Load extensions given on the command line
//	loadext load --db app.db --ext /usr/lib/sqlite3/vec0.so --ext ./crypto.so#sqlite3_crypto_init
//
//	# Check whether the engine can load extensions at all
//	loadext check --driver native
//
//	# Validate the configuration file
//	loadext validate --config loadext.yaml
//
//	# Re-run the batch whenever the configuration changes
//	loadext watch --config loadext.yaml --metrics-addr :9464
package main

func main() {
	Execute()
}
