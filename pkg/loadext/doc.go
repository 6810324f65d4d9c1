// Package loadext guards SQLite's dynamic extension loading.
//
// # Overview
//
// SQLite refuses to load shared-library extensions until the per-connection
// extension-loading flag is turned on, and leaving that flag on afterwards
// lets any SQL running on the connection call load_extension(). This package
// wraps the engine primitives so the flag is only on for the duration of a
// load:
//
//   - SetExtensionLoading flips the flag and reports the engine's diagnostic
//     text on failure.
//   - LoadExtension and LoadExtensions validate every request, enable the
//     flag, load in order stopping at the first failure, and always disable
//     the flag again, including while a panic unwinds.
//
// # Usage
//
//	conn, err := native.Open("data/app.db")
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
//	loader := loadext.New(conn, loadext.WithLogger(logger))
//	err = loader.LoadExtensions([]loadext.Extension{
//	    {Path: "/usr/lib/sqlite/vec0.so"},
//	    {Path: "/usr/lib/sqlite/crypto.so", EntryPoint: "sqlite3_crypto_init"},
//	})
//
// # Errors
//
// All failures are returned, never logged:
//
//   - *ValidationError wrapping ErrInvalidPath or ErrInvalidEntryPoint when a
//     string contains a NUL byte. No engine call is made.
//   - *ToggleError when the engine rejects a flag change.
//   - *LoadError when the engine rejects a load.
//   - ErrUnsupportedPlatform when the engine cannot load native libraries.
//     Inputs are validated first so callers still see precise input errors.
//
// When a load fails and the following disable fails too, the load error is
// returned; the disable failure is only visible to an Observer.
package loadext
