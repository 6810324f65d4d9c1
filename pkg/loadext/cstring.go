package loadext

import "strings"

// CString is a string that has been checked for use across the native call
// boundary: it contains no NUL byte. The zero value is the NULL reference.
type CString struct {
	s     string
	valid bool
}

// NewCString converts s to native string form. It reports false if s
// contains a NUL byte.
func NewCString(s string) (CString, bool) {
	if strings.IndexByte(s, 0) >= 0 {
		return CString{}, false
	}
	return CString{s: s, valid: true}, true
}

// IsNull reports whether c is the NULL reference.
func (c CString) IsNull() bool {
	return !c.valid
}

// String returns the Go form of c. NULL converts to "".
func (c CString) String() string {
	return c.s
}

// nativeExtension is an Extension whose strings are already in native form.
type nativeExtension struct {
	file CString
	proc CString // NULL when the engine should derive the entry point
}

// validateExtensions converts every request to native form before any engine
// call is made. The first malformed request aborts the whole batch.
func validateExtensions(exts []Extension) ([]nativeExtension, error) {
	out := make([]nativeExtension, 0, len(exts))
	for i, ext := range exts {
		n, err := ext.native()
		if err != nil {
			return nil, NewValidationError(i, fieldOf(err), err)
		}
		out = append(out, n)
	}
	return out, nil
}

func fieldOf(err error) string {
	if err == ErrInvalidEntryPoint {
		return "entry_point"
	}
	return "path"
}
