package event

import (
	"time"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "task.started", "run.completed")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeRunStarted        = "run.started"
	TypeRunCompleted      = "run.completed"
	TypeTaskSubmitted     = "task.submitted"
	TypeTaskStarted       = "task.started"
	TypeTaskFinished      = "task.finished"
	TypeArtifactStored    = "artifact.stored"
	TypeDocumentGenerated = "document.generated"
	TypeWatchTriggered    = "watch.triggered"
)

// baseEvent provides common fields for all events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Run Lifecycle Events
// -----------------------------------------------------------------------------

// RunStartedEvent is emitted once the active task set is known and before
// any task is submitted.
type RunStartedEvent struct {
	baseEvent
	RunID      string                `json:"run_id"`
	SnapshotID string                `json:"snapshot_id"`
	Tasks      []analysis.AnalyzerID `json:"tasks"`
	MaxWorkers int                   `json:"max_workers"`
}

// NewRunStartedEvent creates a RunStartedEvent.
func NewRunStartedEvent(runID, snapshotID string, tasks []analysis.AnalyzerID, maxWorkers int) RunStartedEvent {
	return RunStartedEvent{
		baseEvent:  newBaseEvent(TypeRunStarted),
		RunID:      runID,
		SnapshotID: snapshotID,
		Tasks:      tasks,
		MaxWorkers: maxWorkers,
	}
}

// RunCompletedEvent is emitted after the execution report has been built.
type RunCompletedEvent struct {
	baseEvent
	RunID      string        `json:"run_id"`
	SnapshotID string        `json:"snapshot_id"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Duration   time.Duration `json:"duration"`
}

// NewRunCompletedEvent creates a RunCompletedEvent from a finished report.
func NewRunCompletedEvent(r *analysis.ExecutionReport) RunCompletedEvent {
	s, f, k := r.Counts()
	return RunCompletedEvent{
		baseEvent:  newBaseEvent(TypeRunCompleted),
		RunID:      r.RunID,
		SnapshotID: r.SnapshotID,
		Succeeded:  s,
		Failed:     f,
		Skipped:    k,
		Duration:   r.Duration(),
	}
}

// -----------------------------------------------------------------------------
// Task Events
// -----------------------------------------------------------------------------

// TaskSubmittedEvent is emitted when a task is handed to the worker pool.
type TaskSubmittedEvent struct {
	baseEvent
	RunID      string              `json:"run_id"`
	AnalyzerID analysis.AnalyzerID `json:"analyzer_id"`
}

// NewTaskSubmittedEvent creates a TaskSubmittedEvent.
func NewTaskSubmittedEvent(runID string, id analysis.AnalyzerID) TaskSubmittedEvent {
	return TaskSubmittedEvent{
		baseEvent:  newBaseEvent(TypeTaskSubmitted),
		RunID:      runID,
		AnalyzerID: id,
	}
}

// TaskStartedEvent is emitted when a worker begins running an analyzer.
type TaskStartedEvent struct {
	baseEvent
	RunID      string              `json:"run_id"`
	AnalyzerID analysis.AnalyzerID `json:"analyzer_id"`
	Attempt    int                 `json:"attempt"`
}

// NewTaskStartedEvent creates a TaskStartedEvent.
func NewTaskStartedEvent(runID string, id analysis.AnalyzerID, attempt int) TaskStartedEvent {
	return TaskStartedEvent{
		baseEvent:  newBaseEvent(TypeTaskStarted),
		RunID:      runID,
		AnalyzerID: id,
		Attempt:    attempt,
	}
}

// TaskFinishedEvent is emitted when a task reaches a terminal state.
type TaskFinishedEvent struct {
	baseEvent
	RunID      string              `json:"run_id"`
	AnalyzerID analysis.AnalyzerID `json:"analyzer_id"`
	Status     analysis.Status     `json:"status"`
	Detail     string              `json:"detail,omitempty"`
	Duration   time.Duration       `json:"duration"`
}

// NewTaskFinishedEvent creates a TaskFinishedEvent from an outcome.
func NewTaskFinishedEvent(runID string, id analysis.AnalyzerID, o analysis.Outcome) TaskFinishedEvent {
	return TaskFinishedEvent{
		baseEvent:  newBaseEvent(TypeTaskFinished),
		RunID:      runID,
		AnalyzerID: id,
		Status:     o.Status,
		Detail:     o.Detail(),
		Duration:   o.Duration,
	}
}

// ArtifactStoredEvent is emitted after an artifact was written to the store.
type ArtifactStoredEvent struct {
	baseEvent
	RunID      string              `json:"run_id"`
	AnalyzerID analysis.AnalyzerID `json:"analyzer_id"`
	SnapshotID string              `json:"snapshot_id"`
}

// NewArtifactStoredEvent creates an ArtifactStoredEvent.
func NewArtifactStoredEvent(runID string, a analysis.Artifact) ArtifactStoredEvent {
	return ArtifactStoredEvent{
		baseEvent:  newBaseEvent(TypeArtifactStored),
		RunID:      runID,
		AnalyzerID: a.AnalyzerID,
		SnapshotID: a.SnapshotID,
	}
}

// -----------------------------------------------------------------------------
// Generation Events
// -----------------------------------------------------------------------------

// DocumentGeneratedEvent is emitted when a generator writes a document.
type DocumentGeneratedEvent struct {
	baseEvent
	Generator string                `json:"generator"`
	Path      string                `json:"path"`
	Missing   []analysis.AnalyzerID `json:"missing,omitempty"` // analyzers the document was built without
	Skipped   bool                  `json:"skipped,omitempty"`
}

// NewDocumentGeneratedEvent creates a DocumentGeneratedEvent.
func NewDocumentGeneratedEvent(generator, path string, missing []analysis.AnalyzerID, skipped bool) DocumentGeneratedEvent {
	return DocumentGeneratedEvent{
		baseEvent: newBaseEvent(TypeDocumentGenerated),
		Generator: generator,
		Path:      path,
		Missing:   missing,
		Skipped:   skipped,
	}
}

// WatchTriggeredEvent is emitted when the watcher schedules a new run.
type WatchTriggeredEvent struct {
	baseEvent
	Root    string   `json:"root"`
	Reason  string   `json:"reason"`
	Changed []string `json:"changed,omitempty"`
}

// NewWatchTriggeredEvent creates a WatchTriggeredEvent.
func NewWatchTriggeredEvent(root, reason string, changed []string) WatchTriggeredEvent {
	return WatchTriggeredEvent{
		baseEvent: newBaseEvent(TypeWatchTriggered),
		Root:      root,
		Reason:    reason,
		Changed:   changed,
	}
}

// -----------------------------------------------------------------------------
// Wire Encoding
// -----------------------------------------------------------------------------

// Envelope is the JSON shape used when events leave the process.
type Envelope struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      Event     `json:"data"`
}

// Wrap builds the envelope for e.
func Wrap(e Event) Envelope {
	return Envelope{Type: e.EventType(), Timestamp: e.Timestamp(), Data: e}
}
