package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
// AnalyzerError Tests
// -----------------------------------------------------------------------------

func TestNewAnalyzerError(t *testing.T) {
	cause := New("boom")
	err := NewAnalyzerError("structure", "walk failed", cause)

	if err.message != "walk failed" {
		t.Errorf("message = %q, want %q", err.message, "walk failed")
	}
	if err.cause != cause {
		t.Errorf("cause = %v, want %v", err.cause, cause)
	}
	if err.IsRetryable() {
		t.Error("IsRetryable() = true, want false")
	}
	if err.Kind() != KindAnalyzer {
		t.Errorf("Kind() = %v, want %v", err.Kind(), KindAnalyzer)
	}
}

func TestAnalyzerError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AnalyzerError
		want string
	}{
		{
			name: "basic error",
			err:  NewAnalyzerError("", "failed", nil),
			want: "analyzer error: failed",
		},
		{
			name: "with analyzer",
			err:  NewAnalyzerError("dependency", "failed", nil),
			want: "analyzer error [analyzer=dependency]: failed",
		},
		{
			name: "with analyzer and cause",
			err:  NewAnalyzerError("dependency", "failed", ErrPanic),
			want: "analyzer error [analyzer=dependency]: failed: panic recovered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnalyzerError_Is(t *testing.T) {
	err := NewAnalyzerError("structure", "x", ErrPanic)

	if !Is(err, &AnalyzerError{}) {
		t.Error("Is(AnalyzerError{}) = false, want true")
	}
	if !Is(err, ErrPanic) {
		t.Error("Is(ErrPanic) = false, want true")
	}
	if Is(err, ErrTimeout) {
		t.Error("Is(ErrTimeout) = true, want false")
	}
}

// -----------------------------------------------------------------------------
// TimeoutError Tests
// -----------------------------------------------------------------------------

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("analyzer structure", 2*time.Second)

	if !err.IsRetryable() {
		t.Error("IsRetryable() = false, want true")
	}
	if !Is(err, ErrTimeout) {
		t.Error("Is(ErrTimeout) = false, want true")
	}
	want := "timeout error: analyzer structure (timeout: 2s)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	withCause := NewTimeoutError("op", time.Second).WithCause(context.DeadlineExceeded)
	if !Is(withCause, context.DeadlineExceeded) {
		t.Error("Is(context.DeadlineExceeded) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// StoreError Tests
// -----------------------------------------------------------------------------

func TestStoreError(t *testing.T) {
	put := NewStoreError("put", New("disk full")).WithKey("k").WithBackend("disk")
	if put.Kind() != KindStoreWrite {
		t.Errorf("Kind() = %v, want %v", put.Kind(), KindStoreWrite)
	}
	if !Is(put, ErrStoreWrite) {
		t.Error("Is(ErrStoreWrite) = false, want true")
	}
	if !put.IsRetryable() {
		t.Error("put IsRetryable() = false, want true")
	}
	want := "store error [backend=disk, key=k]: put failed: disk full"
	if got := put.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	get := NewStoreError("get", ErrNotFound)
	if Is(get, ErrStoreWrite) {
		t.Error("get error matched ErrStoreWrite")
	}
	if !Is(get, ErrNotFound) {
		t.Error("Is(ErrNotFound) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// Snapshot and Validation Tests
// -----------------------------------------------------------------------------

func TestSnapshotError(t *testing.T) {
	err := NewSnapshotError("/nope", "root does not exist")
	if !Is(err, ErrInvalidSnapshot) {
		t.Error("Is(ErrInvalidSnapshot) = false, want true")
	}
	if KindOf(err) != KindInvalidSnapshot {
		t.Errorf("KindOf() = %v, want %v", KindOf(err), KindInvalidSnapshot)
	}
	if !IsPreExecution(err) {
		t.Error("IsPreExecution() = false, want true")
	}
}

func TestValidationError_Error(t *testing.T) {
	err := NewValidationError("analysis.exclude", "nope", "unknown analyzer")
	want := "validation error: analysis.exclude: unknown analyzer (got: nope)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrInvalidInput) {
		t.Error("Is(ErrInvalidInput) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

type netTimeout struct{}

func (netTimeout) Error() string { return "i/o timeout" }
func (netTimeout) Timeout() bool { return true }

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", New("x"), false},
		{"timeout sentinel", fmt.Errorf("wrapped: %w", ErrTimeout), true},
		{"timeout type", NewTimeoutError("op", time.Second), true},
		{"retryable analyzer", NewAnalyzerError("a", "m", nil).WithRetryable(true), true},
		{"non-retryable analyzer", NewAnalyzerError("a", "m", nil), false},
		{"network timeout", netTimeout{}, true},
		{"wrapped store write", Wrap(NewStoreError("put", nil), "ctx"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"untyped", New("x"), KindAnalyzer},
		{"no tasks", Wrap(ErrNoTasksSelected, "select"), KindNoTasksSelected},
		{"timeout", NewTimeoutError("op", time.Second), KindTimeout},
		{"store write", NewStoreError("put", nil), KindStoreWrite},
		{"store write sentinel", fmt.Errorf("x: %w", ErrStoreWrite), KindStoreWrite},
		{"snapshot", NewSnapshotError("", "empty"), KindInvalidSnapshot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	if got := Kind("").String(); got != "Unknown" {
		t.Errorf("String() = %q, want Unknown", got)
	}
	if got := KindTimeout.String(); got != "Timeout" {
		t.Errorf("String() = %q, want Timeout", got)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "x") != nil {
		t.Error("Wrap(nil) != nil")
	}
	err := Wrapf(ErrNotFound, "artifact %s", "structure")
	if !errors.Is(err, ErrNotFound) {
		t.Error("Wrapf lost the cause")
	}
	if err.Error() != "artifact structure: not found" {
		t.Errorf("Error() = %q", err.Error())
	}
}
