// Package sqlite opens a database connection on one of the available
// engines and returns it as a loadext.Engine.
//
//   - native: system libsqlite3 through cgo; can load extensions.
//   - purego: modernc.org/sqlite; cannot load native extensions.
//   - auto: native when compiled in, purego otherwise.
package sqlite

import (
	"fmt"

	"mercator-hq/loadext/pkg/loadext"
	"mercator-hq/loadext/pkg/sqlite/native"
	"mercator-hq/loadext/pkg/sqlite/purego"
)

// Driver names.
const (
	DriverAuto   = "auto"
	DriverNative = "native"
	DriverPureGo = "purego"
)

// Conn is an open database connection usable by a loadext.Loader.
type Conn interface {
	loadext.Engine

	// Exec runs SQL statements that return no rows.
	Exec(query string) error

	// Version returns the engine's SQLite version.
	Version() string

	// Path returns the path the connection was opened with.
	Path() string

	// Close closes the connection.
	Close() error
}

// Drivers returns the accepted driver names.
func Drivers() []string {
	return []string{DriverAuto, DriverNative, DriverPureGo}
}

// ResolveDriver maps a configured driver name to the engine that will be
// used. An empty name means auto.
func ResolveDriver(driver string) (string, error) {
	switch driver {
	case "", DriverAuto:
		if native.Available {
			return DriverNative, nil
		}
		return DriverPureGo, nil
	case DriverNative, DriverPureGo:
		return driver, nil
	default:
		return "", fmt.Errorf("unknown sqlite driver %q (valid: auto, native, purego)", driver)
	}
}

// Open opens the database at path with the given driver.
func Open(driver, path string) (Conn, error) {
	resolved, err := ResolveDriver(driver)
	if err != nil {
		return nil, err
	}

	switch resolved {
	case DriverNative:
		conn, err := native.Open(path)
		if err != nil {
			return nil, err
		}
		return conn, nil
	default:
		conn, err := purego.Open(path)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}
