//go:build cgo && !sqlite_omit_load_extension

package native

/*
#cgo LDFLAGS: -lsqlite3
#include <sqlite3.h>
*/
import "C"

import (
	"sync"
	"unsafe"
)

var (
	autoExtOnce sync.Once
	autoExtErr  error
)

// RegisterAutoExtension registers entry with sqlite3_auto_extension so that
// every connection opened afterwards runs it. entry must point to a C function
// with the signature of an extension entry point:
//
//	int init(sqlite3 *db, char **pzErrMsg, const sqlite3_api_routines *pApi);
//
// Registration happens at most once per process. Later calls do nothing and
// return the result of the first registration.
func RegisterAutoExtension(entry unsafe.Pointer) error {
	if entry == nil {
		return NewExecError("sqlite3_auto_extension", statusMisuse, "auto-extension entry point is NULL")
	}

	autoExtOnce.Do(func() {
		rc := C.sqlite3_auto_extension((*[0]byte)(entry))
		if rc != C.SQLITE_OK {
			autoExtErr = NewExecError("sqlite3_auto_extension", int(rc), C.GoString(C.sqlite3_errstr(rc)))
		}
	})
	return autoExtErr
}

// CancelAutoExtension removes entry from the auto-extension list. Connections
// that are already open keep the extension. It reports whether entry was
// registered.
func CancelAutoExtension(entry unsafe.Pointer) bool {
	if entry == nil {
		return false
	}
	return C.sqlite3_cancel_auto_extension((*[0]byte)(entry)) == 1
}
