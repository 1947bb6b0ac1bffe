package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess          = 0   // Indicates successful execution.
	ExitErrorGeneric     = 1   // Indicates a generic error.
	ExitErrorUnavailable = 2   // Indicates the execution unit could not be started.
	ExitErrorComputation = 3   // Indicates the execution unit reported a failure.
	ExitErrorConfig      = 4   // Indicates a configuration error.
	ExitErrorCanceled    = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

var (
	// ErrCancelled is matched by every CancelledError through errors.Is.
	ErrCancelled = errors.New("cancelled")
	// ErrClosed is returned by a dispatcher that has been shut down.
	ErrClosed = errors.New("dispatcher closed")
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// InitializationError reports that an execution unit failed before it
// signalled readiness. The job that triggered the start is rejected with it.
type InitializationError struct {
	// Cause is the underlying start failure.
	Cause error
}

// Error returns a message describing the start failure.
func (e InitializationError) Error() string {
	if e.Cause == nil {
		return "execution unit failed to initialize"
	}
	return "execution unit failed to initialize: " + e.Cause.Error()
}

// Unwrap returns the underlying start failure.
func (e InitializationError) Unwrap() error { return e.Cause }

// CancelledError rejects a job abandoned by a cancel-all. It is benign:
// callers are expected to drop it silently.
type CancelledError struct {
	// Epoch is the generation the job was submitted under.
	Epoch uint64
	// Reason is an optional human-readable explanation.
	Reason string
}

// Error returns a message naming the abandoned epoch.
func (e CancelledError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("job cancelled (epoch %d): %s", e.Epoch, e.Reason)
	}
	return fmt.Sprintf("job cancelled (epoch %d)", e.Epoch)
}

// Is makes errors.Is(err, ErrCancelled) true for any CancelledError.
func (e CancelledError) Is(target error) bool { return target == ErrCancelled }

// ComputationError carries a failure reported by the execution unit for one
// job, such as an unknown problem id or a panic inside the solver.
type ComputationError struct {
	// JobID identifies the rejected job.
	JobID string
	// Message is the unit's description of the failure.
	Message string
	// Cause is set when the failure originated on the host side, for example
	// when the unit died while the job was in flight.
	Cause error
}

// Error returns the unit's failure message.
func (e ComputationError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Cause != nil:
		return e.Cause.Error()
	default:
		return "computation failed"
	}
}

// Unwrap returns the host-side cause, if any.
func (e ComputationError) Unwrap() error { return e.Cause }

// ProtocolError reports a request the execution unit does not understand.
type ProtocolError struct {
	// Kind is the offending request kind.
	Kind string
	// Message explains the violation.
	Message string
}

// Error returns a formatted message describing the protocol violation.
func (e ProtocolError) Error() string {
	if e.Kind == "" {
		return "protocol error: " + e.Message
	}
	return fmt.Sprintf("protocol error for kind %q: %s", e.Kind, e.Message)
}

// ValidationError represents an input validation failure. It identifies which
// field failed validation and provides a human-readable explanation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsCancelled reports whether err means "the work was abandoned", either by a
// dispatcher cancel-all or by the caller's context.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || IsContextError(err)
}

// ExitCodeFor maps an error returned by a command to a process exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var (
		cfgErr  ConfigError
		valErr  ValidationError
		initErr InitializationError
		compErr ComputationError
		protErr ProtocolError
	)
	switch {
	case IsCancelled(err):
		return ExitErrorCanceled
	case errors.As(err, &cfgErr), errors.As(err, &valErr):
		return ExitErrorConfig
	case errors.As(err, &initErr):
		return ExitErrorUnavailable
	case errors.As(err, &compErr), errors.As(err, &protErr):
		return ExitErrorComputation
	default:
		return ExitErrorGeneric
	}
}
