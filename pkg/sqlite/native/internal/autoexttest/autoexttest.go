//go:build cgo && !sqlite_omit_load_extension

// Package autoexttest provides a statically linked extension entry point for
// auto-extension tests. cgo is not available in _test.go files.
package autoexttest

/*
#cgo LDFLAGS: -lsqlite3
#include <sqlite3.h>

static void autoext_marker(sqlite3_context *ctx, int argc, sqlite3_value **argv) {
	sqlite3_result_int(ctx, 42);
}

int autoext_marker_init(sqlite3 *db, char **pzErrMsg, const sqlite3_api_routines *pApi) {
	return sqlite3_create_function(db, "autoext_marker", 0, SQLITE_UTF8, 0, autoext_marker, 0, 0);
}
*/
import "C"

import "unsafe"

// MarkerFunction is the SQL function the entry point registers.
const MarkerFunction = "autoext_marker"

// Init returns the entry point. It adds MarkerFunction to each connection.
func Init() unsafe.Pointer {
	return unsafe.Pointer(C.autoext_marker_init)
}
