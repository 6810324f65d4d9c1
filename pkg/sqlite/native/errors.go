package native

import "fmt"

// SQLITE_MISUSE, reported when a closed connection is used.
const statusMisuse = 21

// OpenError is returned when a database cannot be opened.
type OpenError struct {
	Path    string // Database path
	Code    int    // SQLite result code
	Message string // SQLite diagnostic text
}

// Error implements the error interface.
func (e *OpenError) Error() string {
	return fmt.Sprintf("open database [path=%s, code=%d]: %s", e.Path, e.Code, e.Message)
}

// NewOpenError creates a new OpenError.
func NewOpenError(path string, code int, message string) *OpenError {
	return &OpenError{
		Path:    path,
		Code:    code,
		Message: message,
	}
}

// ExecError is returned when a statement fails.
type ExecError struct {
	Query   string // Statement text, or the operation name
	Code    int    // SQLite result code
	Message string // SQLite diagnostic text
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	return fmt.Sprintf("exec [code=%d]: %s", e.Code, e.Message)
}

// NewExecError creates a new ExecError.
func NewExecError(query string, code int, message string) *ExecError {
	return &ExecError{
		Query:   query,
		Code:    code,
		Message: message,
	}
}

// staticMessage is a Go-side message for failures detected before SQLite is
// called. Free is a no-op.
type staticMessage string

func (m staticMessage) String() string { return string(m) }
func (m staticMessage) Free()          {}
