package loadext

import "time"

// Status codes shared by every engine. They match SQLITE_OK and SQLITE_ERROR.
const (
	StatusOK    = 0
	StatusError = 1
)

// Engine is the native database engine behind one open connection.
// Implementations are thin shims over sqlite3_enable_load_extension,
// sqlite3_load_extension and sqlite3_errmsg; they must not add any
// enable/disable management of their own.
type Engine interface {
	// EnableLoadExtension sets the extension-loading flag (1 on, 0 off) and
	// returns the engine status code.
	EnableLoadExtension(onoff int) int

	// LoadExtension loads the shared library at file. A NULL proc lets the
	// engine derive the entry point from the file name. On failure the engine
	// may return a message it allocated; the caller owns it and must Free it.
	LoadExtension(file, proc CString) (int, Message)

	// ErrMsg returns the connection's last error text. It is never empty.
	ErrMsg() string
}

// Message is an error buffer allocated by the engine. Free releases it
// through the engine's own allocator and must be called exactly once.
type Message interface {
	String() string
	Free()
}

// Capability is implemented by engines that can report whether they are able
// to load native libraries at all. Engines that do not implement it are
// assumed to be capable.
type Capability interface {
	LoadExtensionSupported() bool
}

// Supported reports whether e can load native extensions.
func Supported(e Engine) bool {
	if c, ok := e.(Capability); ok {
		return c.LoadExtensionSupported()
	}
	return true
}

// Extension is a single load request.
type Extension struct {
	// Path is the shared library file.
	Path string `json:"path" yaml:"path"`

	// EntryPoint is the initialization symbol. Empty means the engine derives
	// it from the file name.
	EntryPoint string `json:"entry_point,omitempty" yaml:"entry_point,omitempty"`
}

func (e Extension) native() (nativeExtension, error) {
	file, ok := NewCString(e.Path)
	if !ok {
		return nativeExtension{}, ErrInvalidPath
	}
	var proc CString
	if e.EntryPoint != "" {
		if proc, ok = NewCString(e.EntryPoint); !ok {
			return nativeExtension{}, ErrInvalidEntryPoint
		}
	}
	return nativeExtension{file: file, proc: proc}, nil
}

// Observer receives the outcome of every guarded operation. It is used for
// metrics and never changes what the Loader returns.
type Observer interface {
	ToggleObserved(enabled bool, err error)
	LoadObserved(ext Extension, err error)
	BatchObserved(size int, duration time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ToggleObserved(bool, error)              {}
func (nopObserver) LoadObserved(Extension, error)           {}
func (nopObserver) BatchObserved(int, time.Duration, error) {}

// MultiObserver fans every observation out to each of observers in order.
func MultiObserver(observers ...Observer) Observer {
	return multiObserver(observers)
}

type multiObserver []Observer

func (m multiObserver) ToggleObserved(enabled bool, err error) {
	for _, o := range m {
		o.ToggleObserved(enabled, err)
	}
}

func (m multiObserver) LoadObserved(ext Extension, err error) {
	for _, o := range m {
		o.LoadObserved(ext, err)
	}
}

func (m multiObserver) BatchObserved(size int, duration time.Duration, err error) {
	for _, o := range m {
		o.BatchObserved(size, duration, err)
	}
}
