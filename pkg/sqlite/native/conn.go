//go:build cgo && !sqlite_omit_load_extension

package native

/*
#cgo LDFLAGS: -lsqlite3
#include <sqlite3.h>
#include <stdlib.h>
*/
import "C"

import (
	"strings"
	"unsafe"

	"mercator-hq/loadext/pkg/loadext"
)

// Available reports whether the cgo engine was compiled in.
const Available = true

// Conn is a connection opened directly through the SQLite C API.
type Conn struct {
	db   *C.sqlite3
	path string
}

// Open opens (creating if needed) the database at path. URI filenames such
// as "file::memory:?cache=shared" are accepted.
func Open(path string) (*Conn, error) {
	if strings.IndexByte(path, 0) >= 0 {
		return nil, NewOpenError(path, statusMisuse, "database path contains an interior null byte")
	}

	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	var db *C.sqlite3
	flags := C.SQLITE_OPEN_READWRITE | C.SQLITE_OPEN_CREATE | C.SQLITE_OPEN_URI
	rc := C.sqlite3_open_v2(cpath, &db, C.int(flags), nil)
	if rc != C.SQLITE_OK {
		msg := "out of memory"
		if db != nil {
			msg = C.GoString(C.sqlite3_errmsg(db))
			C.sqlite3_close_v2(db)
		}
		return nil, NewOpenError(path, int(rc), msg)
	}

	return &Conn{db: db, path: path}, nil
}

// Path returns the path the connection was opened with.
func (c *Conn) Path() string {
	return c.path
}

// Close closes the connection. Calling Close more than once is a no-op.
func (c *Conn) Close() error {
	if c.db == nil {
		return nil
	}
	rc := C.sqlite3_close_v2(c.db)
	if rc != C.SQLITE_OK {
		return NewExecError("close", int(rc), C.GoString(C.sqlite3_errmsg(c.db)))
	}
	c.db = nil
	return nil
}

// Exec runs one or more SQL statements that return no rows.
func (c *Conn) Exec(query string) error {
	if c.db == nil {
		return NewExecError(query, statusMisuse, "connection is closed")
	}
	if strings.IndexByte(query, 0) >= 0 {
		return NewExecError(query, statusMisuse, "query contains an interior null byte")
	}

	cquery := C.CString(query)
	defer C.free(unsafe.Pointer(cquery))

	var errMsg *C.char
	rc := C.sqlite3_exec(c.db, cquery, nil, nil, &errMsg)
	if rc != C.SQLITE_OK {
		msg := &message{p: errMsg}
		defer msg.Free()
		text := msg.String()
		if text == "" {
			text = C.GoString(C.sqlite3_errmsg(c.db))
		}
		return NewExecError(query, int(rc), text)
	}
	return nil
}

// Version returns the SQLite library version.
func (c *Conn) Version() string {
	return C.GoString(C.sqlite3_libversion())
}

// EnableLoadExtension implements loadext.Engine.
func (c *Conn) EnableLoadExtension(onoff int) int {
	if c.db == nil {
		return statusMisuse
	}
	return int(C.sqlite3_enable_load_extension(c.db, C.int(onoff)))
}

// LoadExtension implements loadext.Engine.
func (c *Conn) LoadExtension(file, proc loadext.CString) (int, loadext.Message) {
	if c.db == nil {
		return statusMisuse, nil
	}
	if file.IsNull() {
		return loadext.StatusError, staticMessage("extension path is NULL")
	}

	cfile := C.CString(file.String())
	defer C.free(unsafe.Pointer(cfile))

	var cproc *C.char
	if !proc.IsNull() {
		cproc = C.CString(proc.String())
		defer C.free(unsafe.Pointer(cproc))
	}

	var errMsg *C.char
	rc := C.sqlite3_load_extension(c.db, cfile, cproc, &errMsg)
	if errMsg == nil {
		return int(rc), nil
	}
	return int(rc), &message{p: errMsg}
}

// ErrMsg implements loadext.Engine.
func (c *Conn) ErrMsg() string {
	if c.db == nil {
		return "connection is closed"
	}
	return C.GoString(C.sqlite3_errmsg(c.db))
}

// message is an error string allocated by SQLite.
type message struct {
	p *C.char
}

func (m *message) String() string {
	if m.p == nil {
		return ""
	}
	return C.GoString(m.p)
}

// Free releases the buffer with sqlite3_free. Later calls are no-ops.
func (m *message) Free() {
	if m.p == nil {
		return
	}
	C.sqlite3_free(unsafe.Pointer(m.p))
	m.p = nil
}
