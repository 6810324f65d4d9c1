// Package native is a loadext.Engine backed by the system SQLite library
// through cgo.
//
// The bindings are deliberately small: open, close, exec, and the four
// extension-loading primitives (sqlite3_enable_load_extension,
// sqlite3_load_extension, sqlite3_errmsg and sqlite3_free). Error buffers
// written by sqlite3_load_extension are handed to the caller as
// loadext.Message values and released with sqlite3_free.
//
// RegisterAutoExtension wraps sqlite3_auto_extension for extensions that are
// linked into the binary instead of loaded from a file. It registers at most
// once per process; CancelAutoExtension undoes it for future connections.
//
// The package builds without cgo, or with the sqlite_omit_load_extension tag,
// but Open then fails with loadext.ErrUnsupportedPlatform.
package native
