// Package loadexttest provides an in-memory loadext.Engine that behaves like
// SQLite's extension-loading primitives and records every call made to it.
package loadexttest

import (
	"fmt"
	"sync"

	"mercator-hq/loadext/pkg/loadext"
)

// Messages reported by Engine, matching SQLite's wording.
const (
	MsgNotAuthorized = "not authorized"
	MsgNotAnError    = "not an error"
)

// Call is one recorded primitive invocation.
type Call struct {
	Op    string // "enable", "load" or "errmsg"
	OnOff int    // For "enable"
	File  string // For "load"
	Proc  string // For "load"
	Null  bool   // For "load": proc was NULL
}

// Engine is a scriptable fake of the native engine. The zero value is not
// usable; create one with NewEngine.
type Engine struct {
	mu sync.Mutex

	enabled bool
	lastErr string
	calls   []Call

	// Libraries that load successfully, keyed by path.
	libraries map[string]bool

	// FailEnable and FailDisable make the matching toggle return StatusError
	// with the given diagnostic text. Empty means succeed.
	FailEnable  string
	FailDisable string

	// PanicOnLoad panics with this path when it is loaded.
	PanicOnLoad string

	// NoBuffer makes failed loads report through ErrMsg instead of an
	// engine-allocated message.
	NoBuffer bool

	// Unsupported makes the engine report that it cannot load native code.
	Unsupported bool

	allocated int
	freed     int
	doubles   int
}

// NewEngine creates an Engine on which the given paths load successfully.
func NewEngine(available ...string) *Engine {
	e := &Engine{
		lastErr:   MsgNotAnError,
		libraries: make(map[string]bool),
	}
	for _, p := range available {
		e.libraries[p] = true
	}
	return e
}

// EnableLoadExtension implements loadext.Engine.
func (e *Engine) EnableLoadExtension(onoff int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, Call{Op: "enable", OnOff: onoff})

	if onoff != 0 && e.FailEnable != "" {
		e.lastErr = e.FailEnable
		return loadext.StatusError
	}
	if onoff == 0 && e.FailDisable != "" {
		e.lastErr = e.FailDisable
		return loadext.StatusError
	}

	e.enabled = onoff != 0
	e.lastErr = MsgNotAnError
	return loadext.StatusOK
}

// LoadExtension implements loadext.Engine.
func (e *Engine) LoadExtension(file, proc loadext.CString) (int, loadext.Message) {
	e.mu.Lock()
	e.calls = append(e.calls, Call{
		Op:   "load",
		File: file.String(),
		Proc: proc.String(),
		Null: proc.IsNull(),
	})
	panicOn := e.PanicOnLoad
	e.mu.Unlock()

	if panicOn != "" && file.String() == panicOn {
		panic(fmt.Sprintf("loadexttest: panic while loading %s", panicOn))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var text string
	switch {
	case file.IsNull():
		text = "file name is NULL"
	case !e.enabled:
		text = MsgNotAuthorized
	case !e.libraries[file.String()]:
		text = fmt.Sprintf("%s: cannot open shared object file: No such file or directory", file.String())
	default:
		e.lastErr = MsgNotAnError
		return loadext.StatusOK, nil
	}

	e.lastErr = text
	if e.NoBuffer {
		return loadext.StatusError, nil
	}
	e.allocated++
	return loadext.StatusError, &message{engine: e, text: text}
}

// ErrMsg implements loadext.Engine.
func (e *Engine) ErrMsg() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, Call{Op: "errmsg"})
	return e.lastErr
}

// LoadExtensionSupported implements loadext.Capability.
func (e *Engine) LoadExtensionSupported() bool {
	return !e.Unsupported
}

// Enabled reads the flag without going through the Loader.
func (e *Engine) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// Calls returns a copy of every primitive call recorded so far.
func (e *Engine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

// CountOp returns how many times the primitive named op was called.
func (e *Engine) CountOp(op string) int {
	n := 0
	for _, c := range e.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// LoadedFiles returns the files passed to the load primitive, in call order.
func (e *Engine) LoadedFiles() []string {
	var files []string
	for _, c := range e.Calls() {
		if c.Op == "load" {
			files = append(files, c.File)
		}
	}
	return files
}

// Buffers returns how many messages were allocated and freed, and how many
// frees hit an already released message.
func (e *Engine) Buffers() (allocated, freed, doubleFrees int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.allocated, e.freed, e.doubles
}

type message struct {
	engine *Engine
	text   string
	freed  bool
}

func (m *message) String() string {
	return m.text
}

func (m *message) Free() {
	m.engine.mu.Lock()
	defer m.engine.mu.Unlock()
	if m.freed {
		m.engine.doubles++
		return
	}
	m.freed = true
	m.engine.freed++
}
