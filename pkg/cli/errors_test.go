package cli

import (
	"errors"
	"fmt"
	"testing"

	"mercator-hq/loadext/pkg/config"
	"mercator-hq/loadext/pkg/loadext"
)

func TestConfigError(t *testing.T) {
	err := &ConfigError{
		Field:   "ext",
		Message: "empty path",
	}

	expected := "config error in ext: empty path"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("field", "message")
	if err.Field != "field" {
		t.Errorf("Field = %q, want %q", err.Field, "field")
	}
	if err.Message != "message" {
		t.Errorf("Message = %q, want %q", err.Message, "message")
	}
}

func TestCommandError(t *testing.T) {
	underlyingErr := errors.New("underlying error")
	err := NewCommandError("load", underlyingErr)

	expected := "command load failed: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, underlyingErr) {
		t.Error("CommandError should unwrap to the underlying error")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"config error", NewConfigError("ext", "bad"), ExitConfigError},
		{"wrapped config error", fmt.Errorf("load: %w", NewConfigError("ext", "bad")), ExitConfigError},
		{"validation error", fmt.Errorf("configuration validation failed: %w", config.ValidationError{}), ExitConfigError},
		{"load error", NewCommandError("load", loadext.NewLoadError("/a.so", "", "nope")), ExitFailure},
		{"other", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
