package loadext

import (
	"log/slog"
	"time"
)

// Loader sequences the extension-loading primitives of a single connection.
// It is stateless between calls and does no locking: a Loader must not be
// used from more than one goroutine at a time, just like the connection it
// wraps.
type Loader struct {
	engine   Engine
	logger   *slog.Logger
	observer Observer
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for debug-level lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger.With("component", "loadext")
		}
	}
}

// WithObserver registers an observer for toggle, load and batch outcomes.
func WithObserver(observer Observer) Option {
	return func(l *Loader) {
		if observer != nil {
			l.observer = observer
		}
	}
}

// New creates a Loader for the given engine.
func New(engine Engine, opts ...Option) *Loader {
	l := &Loader{
		engine:   engine,
		logger:   slog.Default().With("component", "loadext"),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetExtensionLoading turns the engine's extension-loading flag on or off.
// Repeating the current state is not an error.
//
// Most callers want LoadExtension or LoadExtensions, which manage the flag
// themselves and never leave it on.
func (l *Loader) SetExtensionLoading(enabled bool) error {
	err := l.setExtensionLoading(enabled)
	l.observer.ToggleObserved(enabled, err)
	return err
}

func (l *Loader) setExtensionLoading(enabled bool) error {
	if !Supported(l.engine) {
		return ErrUnsupportedPlatform
	}

	onoff := 0
	if enabled {
		onoff = 1
	}
	if rc := l.engine.EnableLoadExtension(onoff); rc != StatusOK {
		return NewToggleError(enabled, l.engine.ErrMsg())
	}

	l.logger.Debug("Extension loading toggled", "enabled", enabled)
	return nil
}

// LoadExtension loads a single extension between an enable and a disable of
// the extension-loading flag. An empty entryPoint lets the engine derive the
// entry point from the file name.
func (l *Loader) LoadExtension(path, entryPoint string) error {
	return l.LoadExtensions([]Extension{{Path: path, EntryPoint: entryPoint}})
}

// LoadExtensions loads exts in order within a single enable/disable cycle.
//
// Every request is validated before the engine is touched. Loading stops at
// the first failure and the remaining requests are skipped. The flag is
// turned off again before returning, including when a panic unwinds through
// the call. An empty batch succeeds without any engine call. Observers see
// a batch that panicked as ErrBatchAborted.
//
// The returned error is, in priority order: the first invalid request, the
// enable failure, the first load failure, or the disable failure.
func (l *Loader) LoadExtensions(exts []Extension) (err error) {
	start := time.Now()
	returned := false
	defer func() {
		observed := err
		if !returned {
			observed = ErrBatchAborted
		}
		l.observer.BatchObserved(len(exts), time.Since(start), observed)
	}()

	err = l.loadBatch(exts)
	returned = true
	return err
}

func (l *Loader) loadBatch(exts []Extension) error {
	if len(exts) == 0 {
		return nil
	}

	requests, err := validateExtensions(exts)
	if err != nil {
		return err
	}

	if !Supported(l.engine) {
		return ErrUnsupportedPlatform
	}

	return l.WithExtensionLoading(func() error {
		for _, req := range requests {
			if err := l.loadOne(req.file, req.proc); err != nil {
				return err
			}
		}
		return nil
	})
}

// WithExtensionLoading enables extension loading, runs fn and disables
// extension loading again on every exit path.
//
// If enabling fails, fn is not run and the disable step is skipped. An error
// from fn takes precedence over a disable failure; a disable failure is only
// returned when fn succeeded. If fn panics, the flag is still turned off, the
// outcome of that disable is discarded and the panic continues.
func (l *Loader) WithExtensionLoading(fn func() error) (err error) {
	if err := l.SetExtensionLoading(true); err != nil {
		return err
	}

	returned := false
	defer func() {
		disableErr := l.SetExtensionLoading(false)
		if !returned {
			// Unwinding from a panic or runtime.Goexit.
			return
		}
		if err == nil {
			err = disableErr
		}
	}()

	err = fn()
	returned = true
	return err
}

// loadOne calls the engine's load primitive once. The flag must already be on.
func (l *Loader) loadOne(file, proc CString) error {
	req := Extension{Path: file.String(), EntryPoint: proc.String()}

	rc, msg := l.engine.LoadExtension(file, proc)
	if rc == StatusOK {
		if msg != nil {
			msg.Free()
		}
		l.logger.Debug("Extension loaded", "path", req.Path, "entry_point", req.EntryPoint)
		l.observer.LoadObserved(req, nil)
		return nil
	}

	var text string
	if msg != nil {
		text = msg.String()
		msg.Free()
	} else {
		text = l.engine.ErrMsg()
	}

	err := NewLoadError(req.Path, req.EntryPoint, text)
	l.observer.LoadObserved(req, err)
	return err
}
