// Package purego is a loadext.Engine backed by modernc.org/sqlite, a pure-Go
// translation of SQLite.
//
// The translated engine runs without cgo and therefore cannot dlopen native
// shared libraries. Conn reports that through loadext.Capability, so a
// loadext.Loader validates requests and then fails with
// loadext.ErrUnsupportedPlatform instead of calling into the engine.
package purego

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"mercator-hq/loadext/pkg/loadext"

	_ "modernc.org/sqlite" // SQLite driver
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

const unsupportedMsg = "extension loading is not supported by the pure-Go engine"

// Conn is a single-connection database handle on the pure-Go engine.
type Conn struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens the database at path. The pool is limited to one connection so
// the handle behaves like a single SQLite connection.
func Open(path string) (*Conn, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Conn{
		db:     db,
		path:   path,
		logger: slog.Default().With("component", "sqlite.purego"),
	}, nil
}

// DB returns the underlying database/sql handle.
func (c *Conn) DB() *sql.DB {
	return c.db
}

// Path returns the path the connection was opened with.
func (c *Conn) Path() string {
	return c.path
}

// Close closes the database.
func (c *Conn) Close() error {
	return c.db.Close()
}

// Exec runs one or more SQL statements that return no rows.
func (c *Conn) Exec(query string) error {
	if _, err := c.db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// Version returns the SQLite version of the translated engine.
func (c *Conn) Version() string {
	var version string
	if err := c.db.QueryRow("SELECT sqlite_version()").Scan(&version); err != nil {
		c.logger.Warn("Failed to query sqlite version", "error", err)
		return ""
	}
	return version
}

// LoadExtensionSupported implements loadext.Capability.
func (c *Conn) LoadExtensionSupported() bool {
	return false
}

// EnableLoadExtension implements loadext.Engine. It always fails.
func (c *Conn) EnableLoadExtension(int) int {
	return loadext.StatusError
}

// LoadExtension implements loadext.Engine. It always fails without
// allocating a message.
func (c *Conn) LoadExtension(loadext.CString, loadext.CString) (int, loadext.Message) {
	return loadext.StatusError, nil
}

// ErrMsg implements loadext.Engine.
func (c *Conn) ErrMsg() string {
	return unsupportedMsg
}
