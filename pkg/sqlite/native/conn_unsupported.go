//go:build !cgo || sqlite_omit_load_extension

package native

import (
	"fmt"

	"mercator-hq/loadext/pkg/loadext"
)

// Available reports whether the cgo engine was compiled in.
const Available = false

// Conn is never returned in builds without cgo; it exists so callers
// compile unchanged.
type Conn struct {
	path string
}

// Open always fails: this build has no native SQLite engine.
func Open(path string) (*Conn, error) {
	return nil, fmt.Errorf("native engine unavailable for %q: %w", path, loadext.ErrUnsupportedPlatform)
}

// Path returns the path the connection was opened with.
func (c *Conn) Path() string { return c.path }

// Close is a no-op.
func (c *Conn) Close() error { return nil }

// Exec always fails.
func (c *Conn) Exec(query string) error {
	return NewExecError(query, statusMisuse, "native engine unavailable")
}

// Version returns an empty string.
func (c *Conn) Version() string { return "" }

// EnableLoadExtension implements loadext.Engine.
func (c *Conn) EnableLoadExtension(int) int { return statusMisuse }

// LoadExtension implements loadext.Engine.
func (c *Conn) LoadExtension(loadext.CString, loadext.CString) (int, loadext.Message) {
	return statusMisuse, nil
}

// ErrMsg implements loadext.Engine.
func (c *Conn) ErrMsg() string { return "native engine unavailable" }

// LoadExtensionSupported implements loadext.Capability.
func (c *Conn) LoadExtensionSupported() bool { return false }
