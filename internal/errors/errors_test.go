// Package apperrors provides tests for application error types.
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestConfigError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error returns message",
			err:      ConfigError{Message: "invalid flag value"},
			expected: "invalid flag value",
		},
		{
			name:     "NewConfigError creates formatted error",
			err:      NewConfigError("invalid value %d for flag %s", 2, "--iterations"),
			expected: "invalid value 2 for flag --iterations",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.err.Error())
			}
			var configErr ConfigError
			if !errors.As(tt.err, &configErr) {
				t.Error("expected error to be ConfigError type")
			}
		})
	}
}

func TestInitializationErrorUnwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("exec: not found")
	err := fmt.Errorf("start: %w", InitializationError{Cause: cause})

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
	var initErr InitializationError
	if !errors.As(err, &initErr) {
		t.Fatal("expected InitializationError")
	}
	if got := (InitializationError{}).Error(); got != "execution unit failed to initialize" {
		t.Errorf("unexpected message for nil cause: %q", got)
	}
}

func TestCancelledErrorIs(t *testing.T) {
	t.Parallel()
	err := CancelledError{Epoch: 7}
	if !errors.Is(err, ErrCancelled) {
		t.Error("CancelledError should match ErrCancelled")
	}
	if errors.Is(err, ErrClosed) {
		t.Error("CancelledError should not match ErrClosed")
	}
	if got, want := err.Error(), "job cancelled (epoch 7)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	withReason := CancelledError{Epoch: 1, Reason: "target changed"}
	if got, want := withReason.Error(), "job cancelled (epoch 1): target changed"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestComputationErrorMessage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  ComputationError
		want string
	}{
		{"unit message", ComputationError{Message: "the requested problem is not available"}, "the requested problem is not available"},
		{"host cause", ComputationError{Cause: errors.New("unit exited")}, "unit exited"},
		{"empty", ComputationError{}, "computation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsCancelled(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"cancelled error", CancelledError{Epoch: 2}, true},
		{"wrapped cancelled", WrapError(CancelledError{}, "solve"), true},
		{"context canceled", context.Canceled, true},
		{"deadline", context.DeadlineExceeded, true},
		{"computation", ComputationError{Message: "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsCancelled(tt.err); got != tt.want {
				t.Errorf("IsCancelled(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	t.Parallel()
	if WrapError(nil, "ctx") != nil {
		t.Error("WrapError(nil) should be nil")
	}
	base := errors.New("boom")
	err := WrapError(base, "job %d", 3)
	if err.Error() != "job 3: boom" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should match base")
	}
}

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"config", NewConfigError("bad"), ExitErrorConfig},
		{"validation", ValidationError{Field: "id", Message: "must be positive"}, ExitErrorConfig},
		{"init", InitializationError{Cause: errors.New("x")}, ExitErrorUnavailable},
		{"computation", ComputationError{Message: "x"}, ExitErrorComputation},
		{"protocol", ProtocolError{Kind: "nope", Message: "unknown"}, ExitErrorComputation},
		{"cancelled", CancelledError{}, ExitErrorCanceled},
		{"context", context.Canceled, ExitErrorCanceled},
		{"generic", errors.New("x"), ExitErrorGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExitCodeFor(tt.err); got != tt.want {
				t.Errorf("ExitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
