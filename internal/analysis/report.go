package analysis

import (
	"fmt"
	"slices"
	"time"
)

// ExecutionReport is the per-run record of every requested task's outcome.
// It is built once by the aggregator and treated as read-only afterward.
type ExecutionReport struct {
	RunID      string `json:"run_id"`
	SnapshotID string `json:"snapshot_id"`
	// Sequence increases by one for every run of the same snapshot.
	Sequence       uint64                 `json:"sequence"`
	RequestedTasks []AnalyzerID           `json:"requested_tasks"`
	ActiveTasks    []AnalyzerID           `json:"active_tasks"`
	MaxWorkers     int                    `json:"max_workers"`
	Outcomes       map[AnalyzerID]Outcome `json:"outcomes"`
	StartedAt      time.Time              `json:"started_at"`
	FinishedAt     time.Time              `json:"finished_at"`
}

// Outcome returns the outcome recorded for id.
func (r *ExecutionReport) Outcome(id AnalyzerID) (Outcome, bool) {
	o, ok := r.Outcomes[id]
	return o, ok
}

// WithStatus returns the IDs whose outcome has the given status, sorted.
func (r *ExecutionReport) WithStatus(s Status) []AnalyzerID {
	var ids []AnalyzerID
	for id, o := range r.Outcomes {
		if o.Status == s {
			ids = append(ids, id)
		}
	}
	SortIDs(ids)
	return ids
}

// Succeeded returns the IDs that produced a stored artifact.
func (r *ExecutionReport) Succeeded() []AnalyzerID { return r.WithStatus(StatusSucceeded) }

// Failed returns the IDs that ended in a failure.
func (r *ExecutionReport) Failed() []AnalyzerID { return r.WithStatus(StatusFailed) }

// Skipped returns the IDs that never ran to completion.
func (r *ExecutionReport) Skipped() []AnalyzerID { return r.WithStatus(StatusSkipped) }

// Counts returns the number of succeeded, failed and skipped outcomes.
func (r *ExecutionReport) Counts() (succeeded, failed, skipped int) {
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusSucceeded:
			succeeded++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return succeeded, failed, skipped
}

// Duration returns the wall-clock length of the run.
func (r *ExecutionReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Validate checks that every requested task has exactly one well-formed outcome
// and that no outcome exists for a task that was not requested.
func (r *ExecutionReport) Validate() error {
	if len(r.Outcomes) != len(r.RequestedTasks) {
		return fmt.Errorf("report: %d outcomes for %d requested tasks", len(r.Outcomes), len(r.RequestedTasks))
	}
	for _, id := range r.RequestedTasks {
		o, ok := r.Outcomes[id]
		if !ok {
			return fmt.Errorf("report: no outcome for %s", id)
		}
		switch o.Status {
		case StatusSucceeded:
			if o.Artifact == nil {
				return fmt.Errorf("report: succeeded outcome for %s has no artifact", id)
			}
		case StatusFailed:
			if o.Failure == nil {
				return fmt.Errorf("report: failed outcome for %s has no failure", id)
			}
		case StatusSkipped:
			if o.SkipReason == "" {
				return fmt.Errorf("report: skipped outcome for %s has no reason", id)
			}
		default:
			return fmt.Errorf("report: outcome for %s has unknown status %q", id, o.Status)
		}
	}
	for _, id := range r.ActiveTasks {
		if !slices.Contains(r.RequestedTasks, id) {
			return fmt.Errorf("report: active task %s was not requested", id)
		}
	}
	return nil
}
