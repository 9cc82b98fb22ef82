// Package errors provides the error taxonomy for the analysis pipeline,
// along with constructors and classification helpers.
//
// # Error Kinds
//
// Every error that crosses a pipeline boundary maps to a Kind:
//   - KindNoTasksSelected: the exclusion set removed every analyzer (pre-execution, recoverable)
//   - KindInvalidSnapshot: the repository snapshot is unreadable (pre-execution, fatal)
//   - KindAnalyzer: an analyzer returned an error or panicked (task-local)
//   - KindTimeout: an analyzer exceeded its time budget (task-local, retriable)
//   - KindStoreWrite: persisting an artifact failed (task-local)
//
// Only the pre-execution kinds are returned from an orchestration call.
// Task-local kinds are folded into the execution report as failures.
//
// # Usage
//
//	err := errors.NewAnalyzerError(analysis.Structure, "walk failed", cause).WithRetryable(true)
//
//	if errors.Is(err, errors.ErrNoTasksSelected) { ... }
//
//	var timeout *errors.TimeoutError
//	if errors.As(err, &timeout) { ... }
//
//	if errors.IsRetryable(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Kind classifies an error by where it happened in the pipeline.
type Kind string

const (
	KindUnknown         Kind = "Unknown"
	KindNoTasksSelected Kind = "NoTasksSelected"
	KindInvalidSnapshot Kind = "InvalidSnapshot"
	KindAnalyzer        Kind = "AnalyzerError"
	KindTimeout         Kind = "Timeout"
	KindStoreWrite      Kind = "StoreWriteError"
	KindValidation      Kind = "ValidationError"
)

// String returns the kind name as it appears in reports.
func (k Kind) String() string {
	if k == "" {
		return string(KindUnknown)
	}
	return string(k)
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Orchestration sentinel errors
var (
	// ErrNoTasksSelected indicates that the exclusion set removed every analyzer.
	ErrNoTasksSelected = New("no analysis tasks selected")
	// ErrInvalidSnapshot indicates that the repository snapshot cannot be read.
	ErrInvalidSnapshot = New("invalid repository snapshot")
	// ErrUnknownAnalyzer indicates a reference to an analyzer that is not registered.
	ErrUnknownAnalyzer = New("unknown analyzer")
	// ErrDuplicateAnalyzer indicates that an analyzer was registered twice.
	ErrDuplicateAnalyzer = New("analyzer already registered")
)

// Storage sentinel errors
var (
	// ErrNotFound indicates that no value exists for the requested key.
	ErrNotFound = New("not found")
	// ErrStoreWrite indicates that a value could not be persisted.
	ErrStoreWrite = New("store write failed")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrPanic indicates that a panic was recovered at a task boundary.
	ErrPanic = New("panic recovered")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error
// -----------------------------------------------------------------------------

// PipelineError is implemented by every error type in this package.
type PipelineError interface {
	error

	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Kind returns the pipeline classification of the error.
	Kind() Kind

	// IsRetryable returns true if re-running the operation may succeed.
	IsRetryable() bool
}

type baseError struct {
	message   string
	cause     error
	retryable bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// Message returns the error message without prefix or cause.
func (e *baseError) Message() string {
	return e.message
}

func formatWithContext(prefix string, parts []string, message string, cause error) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	if cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, message, cause)
	}
	return fmt.Sprintf("%s: %s", prefix, message)
}

// -----------------------------------------------------------------------------
// Task-Local Errors
// -----------------------------------------------------------------------------

// AnalyzerError is raised when an analyzer returns an error or panics.
// Analyzers may return one themselves to mark a failure as retriable.
//
// Example:
//
//	err := errors.NewAnalyzerError("dependency", "manifest unreadable", cause).WithRetryable(true)
//	fmt.Println(err) // "analyzer error [analyzer=dependency]: manifest unreadable: <cause>"
type AnalyzerError struct {
	baseError
	Analyzer string
}

// NewAnalyzerError creates a new AnalyzerError.
func NewAnalyzerError(analyzer, message string, cause error) *AnalyzerError {
	return &AnalyzerError{
		baseError: baseError{message: message, cause: cause},
		Analyzer:  analyzer,
	}
}

// WithRetryable sets whether the error is retryable.
func (e *AnalyzerError) WithRetryable(r bool) *AnalyzerError {
	e.retryable = r
	return e
}

// Kind returns KindAnalyzer.
func (e *AnalyzerError) Kind() Kind { return KindAnalyzer }

// Error returns the formatted error message.
func (e *AnalyzerError) Error() string {
	var parts []string
	if e.Analyzer != "" {
		parts = append(parts, fmt.Sprintf("analyzer=%s", e.Analyzer))
	}
	return formatWithContext("analyzer error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *AnalyzerError) Is(target error) bool {
	if _, ok := target.(*AnalyzerError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that exceeded its time budget.
// Timeouts are retryable by default.
//
// Example:
//
//	err := errors.NewTimeoutError("analyzer structure", 2*time.Minute)
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:   fmt.Sprintf("%s timed out after %s", operation, duration),
			retryable: true,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// WithRetryable sets whether the error is retryable (default true for timeouts).
func (e *TimeoutError) WithRetryable(r bool) *TimeoutError {
	e.retryable = r
	return e
}

// Kind returns KindTimeout.
func (e *TimeoutError) Kind() Kind { return KindTimeout }

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// StoreError represents a failure reading or writing the artifact store.
// Write failures are retryable.
//
// Example:
//
//	err := errors.NewStoreError("put", cause).WithKey("repo@abc/analysis/structure.json")
type StoreError struct {
	baseError
	Op      string
	Key     string
	Backend string
}

// NewStoreError creates a new StoreError for the given operation.
func NewStoreError(op string, cause error) *StoreError {
	return &StoreError{
		baseError: baseError{
			message:   op + " failed",
			cause:     cause,
			retryable: op == "put",
		},
		Op: op,
	}
}

// WithKey adds the store key to the error context.
func (e *StoreError) WithKey(key string) *StoreError {
	e.Key = key
	return e
}

// WithBackend adds the backend name to the error context.
func (e *StoreError) WithBackend(backend string) *StoreError {
	e.Backend = backend
	return e
}

// Kind returns KindStoreWrite for write operations and KindUnknown otherwise.
func (e *StoreError) Kind() Kind {
	if e.Op == "put" {
		return KindStoreWrite
	}
	return KindUnknown
}

// Error returns the formatted error message.
func (e *StoreError) Error() string {
	var parts []string
	if e.Backend != "" {
		parts = append(parts, fmt.Sprintf("backend=%s", e.Backend))
	}
	if e.Key != "" {
		parts = append(parts, fmt.Sprintf("key=%s", e.Key))
	}
	return formatWithContext("store error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *StoreError) Is(target error) bool {
	if _, ok := target.(*StoreError); ok {
		return true
	}
	if e.Op == "put" && errors.Is(target, ErrStoreWrite) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Pre-Execution Errors
// -----------------------------------------------------------------------------

// SnapshotError reports why a repository snapshot was rejected.
type SnapshotError struct {
	baseError
	Root string
}

// NewSnapshotError creates a new SnapshotError wrapping ErrInvalidSnapshot.
func NewSnapshotError(root, message string) *SnapshotError {
	return &SnapshotError{
		baseError: baseError{message: message, cause: ErrInvalidSnapshot},
		Root:      root,
	}
}

// Kind returns KindInvalidSnapshot.
func (e *SnapshotError) Kind() Kind { return KindInvalidSnapshot }

// Error returns the formatted error message.
func (e *SnapshotError) Error() string {
	var parts []string
	if e.Root != "" {
		parts = append(parts, fmt.Sprintf("root=%s", e.Root))
	}
	return formatWithContext("invalid snapshot", parts, e.message, nil)
}

// Is checks if this error matches the target.
func (e *SnapshotError) Is(target error) bool {
	if _, ok := target.(*SnapshotError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or configuration.
//
// Example:
//
//	err := errors.NewValidationError("analysis.exclude", "nope", "unknown analyzer")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{message: message, cause: ErrInvalidInput},
		Field:     field,
		Value:     value,
	}
}

// Kind returns KindValidation.
func (e *ValidationError) Kind() Kind { return KindValidation }

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation error: %s: %s (got: %v)", e.Field, e.message, e.Value)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry. This checks for:
//   - Errors implementing PipelineError with IsRetryable() returning true
//   - Errors wrapping ErrTimeout
//   - Errors with a Timeout() method reporting true
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var pe PipelineError
	if As(err, &pe) {
		return pe.IsRetryable()
	}

	if Is(err, ErrTimeout) {
		return true
	}

	// Network errors and context.DeadlineExceeded expose Timeout.
	var temp interface{ Timeout() bool }
	if As(err, &temp) {
		return temp.Timeout()
	}

	return false
}

// KindOf returns the pipeline classification of err.
// Errors that carry no classification are reported as KindAnalyzer, since
// anything escaping an analyzer without a type is the analyzer's failure.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var pe PipelineError
	if As(err, &pe) {
		if k := pe.Kind(); k != KindUnknown {
			return k
		}
	}

	switch {
	case Is(err, ErrNoTasksSelected):
		return KindNoTasksSelected
	case Is(err, ErrInvalidSnapshot):
		return KindInvalidSnapshot
	case Is(err, ErrTimeout):
		return KindTimeout
	case Is(err, ErrStoreWrite):
		return KindStoreWrite
	}
	return KindAnalyzer
}

// IsPreExecution reports whether err is one of the precondition failures
// that abort an orchestration run before any task is submitted.
func IsPreExecution(err error) bool {
	return Is(err, ErrNoTasksSelected) || Is(err, ErrInvalidSnapshot) ||
		Is(err, ErrUnknownAnalyzer) || Is(err, ErrInvalidInput)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to load report")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to read artifact %s", id)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
