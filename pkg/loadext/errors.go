package loadext

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath is returned when an extension path contains a NUL byte.
	ErrInvalidPath = errors.New("extension path contains an interior null byte")

	// ErrInvalidEntryPoint is returned when an entry point contains a NUL byte.
	ErrInvalidEntryPoint = errors.New("entry point contains an interior null byte")

	// ErrUnsupportedPlatform is returned when the engine behind a connection
	// cannot load native shared libraries at all.
	ErrUnsupportedPlatform = errors.New("extension loading is not supported on this platform")

	// ErrBatchAborted is passed to Observer.BatchObserved when a batch is cut
	// short by a panic or runtime.Goexit. The Loader never returns it.
	ErrBatchAborted = errors.New("extension batch aborted")
)

// ToggleError is returned when the engine rejects a change of the
// extension-loading flag.
type ToggleError struct {
	Enabled bool   // Requested state
	Message string // Engine diagnostic text
}

// Error implements the error interface.
func (e *ToggleError) Error() string {
	if e.Enabled {
		return fmt.Sprintf("failed to enable extension loading: %s", e.Message)
	}
	return fmt.Sprintf("failed to disable extension loading: %s", e.Message)
}

// NewToggleError creates a new ToggleError.
func NewToggleError(enabled bool, message string) *ToggleError {
	return &ToggleError{
		Enabled: enabled,
		Message: message,
	}
}

// LoadError is returned when the engine rejects a load call.
type LoadError struct {
	Path       string // Extension path as given by the caller
	EntryPoint string // Entry point, empty when the engine derived it
	Message    string // Engine-supplied text or the connection's last error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.EntryPoint != "" {
		return fmt.Sprintf("failed to load extension %q (entry point %q): %s", e.Path, e.EntryPoint, e.Message)
	}
	return fmt.Sprintf("failed to load extension %q: %s", e.Path, e.Message)
}

// NewLoadError creates a new LoadError.
func NewLoadError(path, entryPoint, message string) *LoadError {
	return &LoadError{
		Path:       path,
		EntryPoint: entryPoint,
		Message:    message,
	}
}

// ValidationError reports which request of a batch could not be converted
// to native string form. It wraps ErrInvalidPath or ErrInvalidEntryPoint.
type ValidationError struct {
	Index int    // Position of the offending request in the batch
	Field string // "path" or "entry_point"
	Cause error  // ErrInvalidPath or ErrInvalidEntryPoint
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid extension request [index=%d, field=%s]: %v", e.Index, e.Field, e.Cause)
}

// Unwrap returns the underlying sentinel error.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new ValidationError.
func NewValidationError(index int, field string, cause error) *ValidationError {
	return &ValidationError{
		Index: index,
		Field: field,
		Cause: cause,
	}
}

// IsToggleError reports whether err is, or wraps, a ToggleError.
func IsToggleError(err error) bool {
	var te *ToggleError
	return errors.As(err, &te)
}

// IsLoadError reports whether err is, or wraps, a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
