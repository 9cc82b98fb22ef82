package analysis

import (
	"time"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
)

// Status is the terminal state of a task in a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Skip reasons recorded in execution reports.
const (
	ReasonExcluded             = "excluded by configuration"
	ReasonOrchestrationTimeout = "orchestration timeout"
	ReasonCanceled             = "orchestration canceled"
)

// Failure records why an analyzer did not produce an artifact.
type Failure struct {
	AnalyzerID AnalyzerID  `json:"analyzer_id"`
	Kind       errors.Kind `json:"kind"`
	Message    string      `json:"message"`
	Retriable  bool        `json:"retriable"`
}

// NewFailure classifies err into a Failure for id.
func NewFailure(id AnalyzerID, err error) Failure {
	return Failure{
		AnalyzerID: id,
		Kind:       errors.KindOf(err),
		Message:    err.Error(),
		Retriable:  errors.IsRetryable(err),
	}
}

// Outcome is the terminal result of one requested task.
// Exactly one of Artifact, Failure, or SkipReason is set, matching Status.
type Outcome struct {
	Status     Status        `json:"status"`
	Artifact   *Artifact     `json:"artifact,omitempty"`
	Failure    *Failure      `json:"failure,omitempty"`
	SkipReason string        `json:"skip_reason,omitempty"`
	Attempts   int           `json:"attempts,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
}

// Succeeded returns a successful outcome carrying a.
func Succeeded(a Artifact) Outcome {
	return Outcome{Status: StatusSucceeded, Artifact: &a, Attempts: 1}
}

// Failed returns a failed outcome carrying f.
func Failed(f Failure) Outcome {
	return Outcome{Status: StatusFailed, Failure: &f, Attempts: 1}
}

// Skipped returns an outcome for a task that never produced a result.
func Skipped(reason string) Outcome {
	return Outcome{Status: StatusSkipped, SkipReason: reason}
}

// Detail returns a short human-readable description of the outcome.
func (o Outcome) Detail() string {
	switch o.Status {
	case StatusFailed:
		if o.Failure != nil {
			return o.Failure.Kind.String() + ": " + o.Failure.Message
		}
	case StatusSkipped:
		return o.SkipReason
	case StatusSucceeded:
		if o.Artifact != nil {
			return string(o.Artifact.Content.Format)
		}
	}
	return ""
}
