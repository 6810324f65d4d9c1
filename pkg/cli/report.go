package cli

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"mercator-hq/loadext/pkg/loadext"
)

// Extension statuses in a LoadReport.
const (
	StatusLoaded  = "loaded"
	StatusFailed  = "failed"
	StatusInvalid = "invalid"
	StatusSkipped = "skipped"
)

// Recorder is a loadext.Observer that remembers the outcome of each load in
// the current batch and whether disabling the flag failed.
type Recorder struct {
	mu         sync.Mutex
	loads      []error
	disableErr error
	duration   time.Duration
	aborted    bool
}

var _ loadext.Observer = (*Recorder)(nil)

// ToggleObserved implements loadext.Observer.
func (r *Recorder) ToggleObserved(enabled bool, err error) {
	if enabled || err == nil {
		return
	}
	r.mu.Lock()
	r.disableErr = err
	r.mu.Unlock()
}

// LoadObserved implements loadext.Observer.
func (r *Recorder) LoadObserved(_ loadext.Extension, err error) {
	r.mu.Lock()
	r.loads = append(r.loads, err)
	r.mu.Unlock()
}

// BatchObserved implements loadext.Observer.
func (r *Recorder) BatchObserved(_ int, duration time.Duration, err error) {
	r.mu.Lock()
	r.duration = duration
	r.aborted = errors.Is(err, loadext.ErrBatchAborted)
	r.mu.Unlock()
}

// Aborted reports whether the last batch was cut short by a panic.
func (r *Recorder) Aborted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.aborted
}

// Reset clears the recorded outcomes before the next batch.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.loads = nil
	r.disableErr = nil
	r.duration = 0
	r.aborted = false
	r.mu.Unlock()
}

// ExtensionResult is the outcome of one requested extension.
type ExtensionResult struct {
	Path       string `json:"path"`
	EntryPoint string `json:"entry_point,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// LoadReport describes one batch run of the load or watch command.
type LoadReport struct {
	RunID      string            `json:"run_id"`
	Database   string            `json:"database"`
	Driver     string            `json:"driver"`
	OK         bool              `json:"ok"`
	Error      string            `json:"error,omitempty"`
	Cleanup    string            `json:"cleanup_error,omitempty"`
	DurationMS float64           `json:"duration_ms"`
	Extensions []ExtensionResult `json:"extensions"`
}

// NewLoadReport builds the report for a batch from the requested extensions,
// the outcomes seen by rec and the error returned by the loader. Extensions
// after the first failure are reported as skipped.
func NewLoadReport(runID, database, driver string, requested []loadext.Extension, rec *Recorder, err error) *LoadReport {
	rec.mu.Lock()
	loads := append([]error(nil), rec.loads...)
	disableErr := rec.disableErr
	duration := rec.duration
	rec.mu.Unlock()

	report := &LoadReport{
		RunID:      runID,
		Database:   database,
		Driver:     driver,
		OK:         err == nil,
		DurationMS: float64(duration.Microseconds()) / 1000,
		Extensions: make([]ExtensionResult, 0, len(requested)),
	}
	if err != nil {
		report.Error = err.Error()
	}
	// A disable failure that lost to a load error is not in err.
	if disableErr != nil && !errors.Is(err, disableErr) {
		report.Cleanup = disableErr.Error()
	}

	invalid := -1
	var verr *loadext.ValidationError
	if errors.As(err, &verr) {
		invalid = verr.Index
	}

	for i, ext := range requested {
		res := ExtensionResult{Path: ext.Path, EntryPoint: ext.EntryPoint, Status: StatusSkipped}
		switch {
		case i == invalid:
			res.Status = StatusInvalid
			res.Error = verr.Cause.Error()
		case i < len(loads) && loads[i] == nil:
			res.Status = StatusLoaded
		case i < len(loads):
			res.Status = StatusFailed
			res.Error = loads[i].Error()
		}
		report.Extensions = append(report.Extensions, res)
	}

	return report
}

// Loaded returns the number of extensions that loaded.
func (r *LoadReport) Loaded() int {
	n := 0
	for _, e := range r.Extensions {
		if e.Status == StatusLoaded {
			n++
		}
	}
	return n
}

func (r *LoadReport) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "database: %s (driver %s)\n", r.Database, r.Driver)
	for _, e := range r.Extensions {
		name := e.Path
		if e.EntryPoint != "" {
			name = fmt.Sprintf("%s#%s", e.Path, e.EntryPoint)
		}
		if e.Error != "" {
			fmt.Fprintf(&sb, "  %-8s %s: %s\n", e.Status, name, e.Error)
		} else {
			fmt.Fprintf(&sb, "  %-8s %s\n", e.Status, name)
		}
	}
	if r.Cleanup != "" {
		fmt.Fprintf(&sb, "warning: %s\n", r.Cleanup)
	}

	if r.OK {
		fmt.Fprintf(&sb, "ok: %d of %d extensions loaded", r.Loaded(), len(r.Extensions))
	} else {
		fmt.Fprintf(&sb, "error: %s", r.Error)
	}
	return sb.String()
}

// CheckReport describes the result of the check command.
type CheckReport struct {
	Database  string `json:"database"`
	Driver    string `json:"driver"`
	Version   string `json:"sqlite_version"`
	Supported bool   `json:"extension_loading"`
	Error     string `json:"error,omitempty"`
}

func (r *CheckReport) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "database: %s (driver %s, sqlite %s)\n", r.Database, r.Driver, r.Version)
	switch {
	case r.Error != "":
		fmt.Fprintf(&sb, "extension loading: error: %s", r.Error)
	case r.Supported:
		sb.WriteString("extension loading: supported")
	default:
		sb.WriteString("extension loading: not supported")
	}
	return sb.String()
}

// ValidateReport describes the result of the validate command.
type ValidateReport struct {
	Config     string   `json:"config"`
	Valid      bool     `json:"valid"`
	Extensions int      `json:"extensions"`
	Errors     []string `json:"errors,omitempty"`
}

func (r *ValidateReport) String() string {
	if r.Valid {
		return fmt.Sprintf("%s: valid (%d extensions)", r.Config, r.Extensions)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: invalid", r.Config)
	for _, e := range r.Errors {
		fmt.Fprintf(&sb, "\n  - %s", e)
	}
	return sb.String()
}
