package loadext_test

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/loadext/pkg/loadext"
	"mercator-hq/loadext/pkg/loadext/loadexttest"
)

// assertDisabled checks the flag both through the fake's state and through
// the raw load primitive, which SQLite rejects with "not authorized".
func assertDisabled(t *testing.T, engine *loadexttest.Engine, loader *loadext.Loader) {
	t.Helper()

	if engine.Enabled() {
		t.Fatal("extension loading left enabled")
	}

	err := loader.LoadRaw("some_extension", "")
	var le *loadext.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("raw load error = %v, want *LoadError", err)
	}
	if le.Message != loadexttest.MsgNotAuthorized {
		t.Errorf("raw load message = %q, want %q", le.Message, loadexttest.MsgNotAuthorized)
	}
}

func TestSetExtensionLoading(t *testing.T) {
	engine := loadexttest.NewEngine()
	loader := loadext.New(engine)

	if err := loader.SetExtensionLoading(true); err != nil {
		t.Fatalf("enable error = %v", err)
	}
	if !engine.Enabled() {
		t.Error("flag should be on after enable")
	}

	if err := loader.SetExtensionLoading(false); err != nil {
		t.Fatalf("disable error = %v", err)
	}
	if engine.Enabled() {
		t.Error("flag should be off after disable")
	}
}

func TestSetExtensionLoading_Idempotent(t *testing.T) {
	engine := loadexttest.NewEngine()
	loader := loadext.New(engine)

	for _, enabled := range []bool{true, true, false, false} {
		if err := loader.SetExtensionLoading(enabled); err != nil {
			t.Fatalf("SetExtensionLoading(%v) error = %v", enabled, err)
		}
		if engine.Enabled() != enabled {
			t.Errorf("Enabled() = %v, want %v", engine.Enabled(), enabled)
		}
	}

	if got := engine.CountOp("enable"); got != 4 {
		t.Errorf("toggle calls = %d, want 4", got)
	}
}

func TestSetExtensionLoading_Failure(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		setup   func(*loadexttest.Engine)
	}{
		{
			name:    "enable rejected",
			enabled: true,
			setup:   func(e *loadexttest.Engine) { e.FailEnable = "enable refused" },
		},
		{
			name:    "disable rejected",
			enabled: false,
			setup:   func(e *loadexttest.Engine) { e.FailDisable = "disable refused" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := loadexttest.NewEngine()
			tt.setup(engine)
			loader := loadext.New(engine)

			err := loader.SetExtensionLoading(tt.enabled)

			var te *loadext.ToggleError
			if !errors.As(err, &te) {
				t.Fatalf("error = %v, want *ToggleError", err)
			}
			if te.Enabled != tt.enabled {
				t.Errorf("Enabled = %v, want %v", te.Enabled, tt.enabled)
			}
			if !strings.HasSuffix(te.Message, "refused") {
				t.Errorf("Message = %q, want engine diagnostic text", te.Message)
			}
		})
	}
}

func TestLoadExtensions_Empty(t *testing.T) {
	for _, exts := range [][]loadext.Extension{nil, {}} {
		engine := loadexttest.NewEngine()
		loader := loadext.New(engine)

		if err := loader.LoadExtensions(exts); err != nil {
			t.Fatalf("LoadExtensions(empty) error = %v", err)
		}
		if calls := engine.Calls(); len(calls) != 0 {
			t.Errorf("engine calls = %v, want none", calls)
		}
	}
}

func TestLoadExtensions_EmptyNeverTogglesEvenWhenTogglesFail(t *testing.T) {
	engine := loadexttest.NewEngine()
	engine.FailEnable = "enable refused"
	loader := loadext.New(engine)

	if err := loader.LoadExtensions(nil); err != nil {
		t.Fatalf("LoadExtensions(nil) error = %v", err)
	}
}

func TestLoadExtension_Nonexistent(t *testing.T) {
	engine := loadexttest.NewEngine()
	loader := loadext.New(engine)

	err := loader.LoadExtension("/nonexistent/path.so", "")

	var le *loadext.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("error = %v, want *LoadError", err)
	}
	if le.Message == "" {
		t.Error("expected non-empty error message")
	}
	if le.Path != "/nonexistent/path.so" {
		t.Errorf("Path = %q, want %q", le.Path, "/nonexistent/path.so")
	}

	allocated, freed, doubles := engine.Buffers()
	if allocated != 1 || freed != 1 || doubles != 0 {
		t.Errorf("buffers allocated=%d freed=%d double=%d, want 1/1/0", allocated, freed, doubles)
	}

	assertDisabled(t, engine, loader)
}

func TestLoadExtension_WithEntryPoint(t *testing.T) {
	engine := loadexttest.NewEngine()
	loader := loadext.New(engine)

	err := loader.LoadExtension("/nonexistent/extension.so", "my_init")
	if !loadext.IsLoadError(err) {
		t.Fatalf("error = %v, want *LoadError", err)
	}

	calls := engine.Calls()
	var load loadexttest.Call
	for _, c := range calls {
		if c.Op == "load" {
			load = c
		}
	}
	if load.Null || load.Proc != "my_init" {
		t.Errorf("entry point passed = %q (null=%v), want \"my_init\"", load.Proc, load.Null)
	}
}

func TestLoadExtension_DefaultEntryPointIsNull(t *testing.T) {
	engine := loadexttest.NewEngine("/lib/ext.so")
	loader := loadext.New(engine)

	if err := loader.LoadExtension("/lib/ext.so", ""); err != nil {
		t.Fatalf("LoadExtension() error = %v", err)
	}

	for _, c := range engine.Calls() {
		if c.Op == "load" && !c.Null {
			t.Errorf("entry point should be NULL, got %q", c.Proc)
		}
	}
}

func TestLoadExtension_InvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		entryPoint string
		want       error
	}{
		{"nul in path", "bad\x00path", "", loadext.ErrInvalidPath},
		{"nul in entry point", "some_extension", "entry\x00point", loadext.ErrInvalidEntryPoint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := loadexttest.NewEngine()
			loader := loadext.New(engine)

			err := loader.LoadExtension(tt.path, tt.entryPoint)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if calls := engine.Calls(); len(calls) != 0 {
				t.Errorf("engine calls = %v, want none", calls)
			}
		})
	}
}

func TestLoadExtensions_ValidatesBeforeActing(t *testing.T) {
	good := loadext.Extension{Path: "/lib/ok.so"}
	badPath := loadext.Extension{Path: "bad\x00path"}
	badEntry := loadext.Extension{Path: "/lib/ok.so", EntryPoint: "in\x00it"}

	tests := []struct {
		name      string
		exts      []loadext.Extension
		want      error
		wantIndex int
	}{
		{"bad path first", []loadext.Extension{badPath, good, good}, loadext.ErrInvalidPath, 0},
		{"bad path middle", []loadext.Extension{good, badPath, good}, loadext.ErrInvalidPath, 1},
		{"bad path last", []loadext.Extension{good, good, badPath}, loadext.ErrInvalidPath, 2},
		{"bad entry point last", []loadext.Extension{good, good, badEntry}, loadext.ErrInvalidEntryPoint, 2},
		{"ok then bad", []loadext.Extension{{Path: "ok_path"}, {Path: "bad\x00path"}}, loadext.ErrInvalidPath, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := loadexttest.NewEngine("/lib/ok.so")
			loader := loadext.New(engine)

			err := loader.LoadExtensions(tt.exts)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}

			var ve *loadext.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error %T is not a *ValidationError", err)
			}
			if ve.Index != tt.wantIndex {
				t.Errorf("Index = %d, want %d", ve.Index, tt.wantIndex)
			}
			if calls := engine.Calls(); len(calls) != 0 {
				t.Errorf("engine calls = %v, want none", calls)
			}
		})
	}
}

func TestLoadExtensions_Success(t *testing.T) {
	engine := loadexttest.NewEngine("/lib/a.so", "/lib/b.so")
	loader := loadext.New(engine)

	err := loader.LoadExtensions([]loadext.Extension{
		{Path: "/lib/a.so"},
		{Path: "/lib/b.so", EntryPoint: "sqlite3_b_init"},
	})
	if err != nil {
		t.Fatalf("LoadExtensions() error = %v", err)
	}

	want := []loadexttest.Call{
		{Op: "enable", OnOff: 1},
		{Op: "load", File: "/lib/a.so", Null: true},
		{Op: "load", File: "/lib/b.so", Proc: "sqlite3_b_init"},
		{Op: "enable", OnOff: 0},
	}
	if got := engine.Calls(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %+v\nwant %+v", got, want)
	}

	assertDisabled(t, engine, loader)
}

func TestLoadExtensions_StopsAtFirstFailure(t *testing.T) {
	paths := []string{"/lib/0.so", "/lib/1.so", "/lib/2.so", "/lib/3.so"}

	for k := range paths {
		t.Run(fmt.Sprintf("fail at %d", k), func(t *testing.T) {
			var available []string
			for i, p := range paths {
				if i != k {
					available = append(available, p)
				}
			}
			engine := loadexttest.NewEngine(available...)
			loader := loadext.New(engine)

			exts := make([]loadext.Extension, len(paths))
			for i, p := range paths {
				exts[i] = loadext.Extension{Path: p}
			}

			err := loader.LoadExtensions(exts)

			var le *loadext.LoadError
			if !errors.As(err, &le) {
				t.Fatalf("error = %v, want *LoadError", err)
			}
			if le.Path != paths[k] {
				t.Errorf("failed path = %q, want %q", le.Path, paths[k])
			}
			if got := engine.LoadedFiles(); !reflect.DeepEqual(got, paths[:k+1]) {
				t.Errorf("attempted = %v, want %v", got, paths[:k+1])
			}

			assertDisabled(t, engine, loader)
		})
	}
}

func TestLoadExtensions_FirstOfTwoFailures(t *testing.T) {
	engine := loadexttest.NewEngine()
	loader := loadext.New(engine)

	err := loader.LoadExtensions([]loadext.Extension{
		{Path: "/bad1.so"},
		{Path: "/bad2.so", EntryPoint: "init"},
	})

	var le *loadext.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("error = %v, want *LoadError", err)
	}
	if le.Path != "/bad1.so" {
		t.Errorf("failed path = %q, want /bad1.so", le.Path)
	}
	if got := engine.LoadedFiles(); !reflect.DeepEqual(got, []string{"/bad1.so"}) {
		t.Errorf("attempted = %v, want only /bad1.so", got)
	}

	assertDisabled(t, engine, loader)
}

func TestLoadExtensions_FallsBackToErrMsg(t *testing.T) {
	engine := loadexttest.NewEngine()
	engine.NoBuffer = true
	loader := loadext.New(engine)

	err := loader.LoadExtension("/missing.so", "")

	var le *loadext.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("error = %v, want *LoadError", err)
	}
	if !strings.Contains(le.Message, "/missing.so") {
		t.Errorf("Message = %q, want last error text", le.Message)
	}
	if allocated, _, _ := engine.Buffers(); allocated != 0 {
		t.Errorf("allocated = %d, want 0", allocated)
	}
}

func TestLoadExtensions_EnableFailure(t *testing.T) {
	engine := loadexttest.NewEngine("/lib/a.so")
	engine.FailEnable = "enable refused"
	loader := loadext.New(engine)

	err := loader.LoadExtensions([]loadext.Extension{{Path: "/lib/a.so"}})

	var te *loadext.ToggleError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *ToggleError", err)
	}
	if !te.Enabled {
		t.Error("ToggleError should describe the enable step")
	}
	if got := engine.CountOp("load"); got != 0 {
		t.Errorf("load calls = %d, want 0", got)
	}
	if got := engine.CountOp("enable"); got != 1 {
		t.Errorf("toggle calls = %d, want 1 (no disable after failed enable)", got)
	}
}

func TestLoadExtensions_DisableFailureAfterSuccess(t *testing.T) {
	engine := loadexttest.NewEngine("/lib/a.so")
	engine.FailDisable = "disable refused"
	loader := loadext.New(engine)

	err := loader.LoadExtensions([]loadext.Extension{{Path: "/lib/a.so"}})

	var te *loadext.ToggleError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *ToggleError", err)
	}
	if te.Enabled {
		t.Error("ToggleError should describe the disable step")
	}
}

func TestLoadExtensions_LoadErrorWinsOverDisableError(t *testing.T) {
	engine := loadexttest.NewEngine()
	engine.FailDisable = "disable refused"
	loader := loadext.New(engine)

	err := loader.LoadExtensions([]loadext.Extension{{Path: "/missing.so"}})

	if !loadext.IsLoadError(err) {
		t.Fatalf("error = %v, want *LoadError", err)
	}
	if loadext.IsToggleError(err) {
		t.Error("disable failure should not be reported")
	}
	if got := engine.CountOp("enable"); got != 2 {
		t.Errorf("toggle calls = %d, want 2", got)
	}
}

func TestLoadExtensions_PanicStillDisables(t *testing.T) {
	engine := loadexttest.NewEngine("/lib/a.so", "/lib/c.so")
	engine.PanicOnLoad = "/lib/b.so"
	loader := loadext.New(engine)

	recovered := func() (r any) {
		defer func() { r = recover() }()
		_ = loader.LoadExtensions([]loadext.Extension{
			{Path: "/lib/a.so"},
			{Path: "/lib/b.so"},
			{Path: "/lib/c.so"},
		})
		return nil
	}()

	if recovered == nil {
		t.Fatal("expected the panic to propagate")
	}
	if got := engine.LoadedFiles(); !reflect.DeepEqual(got, []string{"/lib/a.so", "/lib/b.so"}) {
		t.Errorf("attempted = %v", got)
	}

	assertDisabled(t, engine, loader)
}

func TestLoadExtensions_PanicObservedAsAborted(t *testing.T) {
	engine := loadexttest.NewEngine("/lib/a.so")
	engine.PanicOnLoad = "/lib/b.so"
	obs := &recordingObserver{}
	loader := loadext.New(engine, loadext.WithObserver(obs))

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected the panic to propagate")
			}
		}()
		_ = loader.LoadExtensions([]loadext.Extension{{Path: "/lib/a.so"}, {Path: "/lib/b.so"}})
	}()

	if len(obs.batchErrs) != 1 {
		t.Fatalf("batch observations = %d, want 1", len(obs.batchErrs))
	}
	if !errors.Is(obs.batchErrs[0], loadext.ErrBatchAborted) {
		t.Errorf("observed batch error = %v, want ErrBatchAborted", obs.batchErrs[0])
	}
	if want := []int{2}; !reflect.DeepEqual(obs.batches, want) {
		t.Errorf("batches = %v, want %v", obs.batches, want)
	}
}

func TestLoadExtensions_ObservedErrorMatchesReturn(t *testing.T) {
	engine := loadexttest.NewEngine()
	obs := &recordingObserver{}
	loader := loadext.New(engine, loadext.WithObserver(obs))

	err := loader.LoadExtensions([]loadext.Extension{{Path: "/missing.so"}})
	if !loadext.IsLoadError(err) {
		t.Fatalf("error = %v, want *LoadError", err)
	}
	if len(obs.batchErrs) != 1 || obs.batchErrs[0] != err {
		t.Errorf("observed batch errors = %v, want [%v]", obs.batchErrs, err)
	}
}

func TestWithExtensionLoading_PanicDiscardsDisableOutcome(t *testing.T) {
	engine := loadexttest.NewEngine()
	engine.FailDisable = "disable refused"
	loader := loadext.New(engine)

	recovered := func() (r any) {
		defer func() { r = recover() }()
		_ = loader.WithExtensionLoading(func() error {
			panic("intentional panic for test")
		})
		return nil
	}()

	if recovered != "intentional panic for test" {
		t.Fatalf("recovered = %v, want original panic value", recovered)
	}
	if got := engine.CountOp("enable"); got != 2 {
		t.Errorf("toggle calls = %d, want 2 (disable attempted during unwind)", got)
	}
}

func TestWithExtensionLoading_Goexit(t *testing.T) {
	engine := loadexttest.NewEngine()
	loader := loadext.New(engine)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = loader.WithExtensionLoading(func() error {
			runtime.Goexit()
			return nil
		})
	}()
	wg.Wait()

	if engine.Enabled() {
		t.Error("extension loading left enabled after Goexit")
	}
}

func TestWithExtensionLoading_Precedence(t *testing.T) {
	fnErr := errors.New("fn failed")

	tests := []struct {
		name        string
		failDisable string
		fnErr       error
		wantFnErr   bool
		wantToggle  bool
	}{
		{"both succeed", "", nil, false, false},
		{"fn fails", "", fnErr, true, false},
		{"disable fails", "disable refused", nil, false, true},
		{"both fail", "disable refused", fnErr, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := loadexttest.NewEngine()
			engine.FailDisable = tt.failDisable
			loader := loadext.New(engine)

			ran := false
			err := loader.WithExtensionLoading(func() error {
				ran = true
				if !engine.Enabled() {
					t.Error("flag should be on inside fn")
				}
				return tt.fnErr
			})

			if !ran {
				t.Fatal("fn was not run")
			}
			if got := errors.Is(err, fnErr); got != tt.wantFnErr {
				t.Errorf("errors.Is(err, fnErr) = %v, want %v (err=%v)", got, tt.wantFnErr, err)
			}
			if got := loadext.IsToggleError(err); got != tt.wantToggle {
				t.Errorf("IsToggleError(err) = %v, want %v (err=%v)", got, tt.wantToggle, err)
			}
			if !tt.wantFnErr && !tt.wantToggle && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestUnsupportedPlatform(t *testing.T) {
	engine := loadexttest.NewEngine("/lib/a.so")
	engine.Unsupported = true
	loader := loadext.New(engine)

	if err := loader.SetExtensionLoading(true); !errors.Is(err, loadext.ErrUnsupportedPlatform) {
		t.Errorf("SetExtensionLoading() error = %v, want ErrUnsupportedPlatform", err)
	}
	if err := loader.LoadExtensions(nil); err != nil {
		t.Errorf("LoadExtensions(nil) error = %v, want nil", err)
	}
	if err := loader.LoadExtension("bad\x00path", ""); !errors.Is(err, loadext.ErrInvalidPath) {
		t.Errorf("invalid input error = %v, want ErrInvalidPath", err)
	}
	if err := loader.LoadExtension("/lib/a.so", "in\x00it"); !errors.Is(err, loadext.ErrInvalidEntryPoint) {
		t.Errorf("invalid input error = %v, want ErrInvalidEntryPoint", err)
	}
	if err := loader.LoadExtension("/lib/a.so", ""); !errors.Is(err, loadext.ErrUnsupportedPlatform) {
		t.Errorf("LoadExtension() error = %v, want ErrUnsupportedPlatform", err)
	}
	if calls := engine.Calls(); len(calls) != 0 {
		t.Errorf("engine calls = %v, want none", calls)
	}
}

type recordingObserver struct {
	toggles   []string
	loads     []string
	batches   []int
	batchErrs []error
}

func (r *recordingObserver) ToggleObserved(enabled bool, err error) {
	r.toggles = append(r.toggles, fmt.Sprintf("%v:%v", enabled, err == nil))
}

func (r *recordingObserver) LoadObserved(ext loadext.Extension, err error) {
	r.loads = append(r.loads, fmt.Sprintf("%s:%v", ext.Path, err == nil))
}

func (r *recordingObserver) BatchObserved(size int, _ time.Duration, err error) {
	r.batches = append(r.batches, size)
	r.batchErrs = append(r.batchErrs, err)
}

func TestObserver_SeesDroppedDisableFailure(t *testing.T) {
	engine := loadexttest.NewEngine()
	engine.FailDisable = "disable refused"
	obs := &recordingObserver{}
	loader := loadext.New(engine, loadext.WithObserver(obs))

	err := loader.LoadExtensions([]loadext.Extension{{Path: "/missing.so"}})
	if !loadext.IsLoadError(err) {
		t.Fatalf("error = %v, want *LoadError", err)
	}

	if want := []string{"true:true", "false:false"}; !reflect.DeepEqual(obs.toggles, want) {
		t.Errorf("toggles = %v, want %v", obs.toggles, want)
	}
	if want := []string{"/missing.so:false"}; !reflect.DeepEqual(obs.loads, want) {
		t.Errorf("loads = %v, want %v", obs.loads, want)
	}
	if want := []int{1}; !reflect.DeepEqual(obs.batches, want) {
		t.Errorf("batches = %v, want %v", obs.batches, want)
	}
}

func TestMultiObserver_FansOut(t *testing.T) {
	engine := loadexttest.NewEngine("/usr/lib/vec0.so")
	first, second := &recordingObserver{}, &recordingObserver{}
	loader := loadext.New(engine, loadext.WithObserver(loadext.MultiObserver(first, second)))

	if err := loader.LoadExtension("/usr/lib/vec0.so", ""); err != nil {
		t.Fatalf("LoadExtension() error = %v", err)
	}

	for i, obs := range []*recordingObserver{first, second} {
		if want := []string{"true:true", "false:true"}; !reflect.DeepEqual(obs.toggles, want) {
			t.Errorf("observer %d toggles = %v, want %v", i, obs.toggles, want)
		}
		if want := []string{"/usr/lib/vec0.so:true"}; !reflect.DeepEqual(obs.loads, want) {
			t.Errorf("observer %d loads = %v, want %v", i, obs.loads, want)
		}
		if want := []int{1}; !reflect.DeepEqual(obs.batches, want) {
			t.Errorf("observer %d batches = %v, want %v", i, obs.batches, want)
		}
	}
}
