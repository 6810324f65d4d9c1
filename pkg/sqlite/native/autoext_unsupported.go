//go:build !cgo || sqlite_omit_load_extension

package native

import (
	"unsafe"

	"mercator-hq/loadext/pkg/loadext"
)

// RegisterAutoExtension always fails: this build has no native SQLite engine.
func RegisterAutoExtension(unsafe.Pointer) error {
	return loadext.ErrUnsupportedPlatform
}

// CancelAutoExtension reports false.
func CancelAutoExtension(unsafe.Pointer) bool { return false }
