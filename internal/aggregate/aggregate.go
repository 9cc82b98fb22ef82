// Package aggregate turns executor results into an ExecutionReport and
// persists the artifacts of successful tasks.
package aggregate

import (
	"context"
	"slices"
	"time"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/event"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/executor"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/logging"
)

// ArtifactWriter persists artifacts. *artifact.Store implements it.
type ArtifactWriter interface {
	Put(ctx context.Context, a analysis.Artifact) error
}

// Input is everything the aggregator needs from one run.
type Input struct {
	RunID    string
	Snapshot analysis.Snapshot
	// Sequence is the run's logical time for this snapshot.
	Sequence uint64
	// Requested is the full universe the run accounts for.
	Requested []analysis.AnalyzerID
	// Active is the subset that was executed.
	Active     []analysis.AnalyzerID
	MaxWorkers int
	Configs    map[analysis.AnalyzerID]analysis.TaskConfig
	Results    map[analysis.AnalyzerID]executor.Result
	StartedAt  time.Time
}

// Aggregator builds reports. It is safe for concurrent use if its writer is.
type Aggregator struct {
	store    ArtifactWriter
	observer executor.Observer
	logger   *logging.Logger
	now      func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithObserver publishes artifact.stored and run.completed events to o.
func WithObserver(o executor.Observer) Option {
	return func(a *Aggregator) { a.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// New creates an Aggregator that writes artifacts to store.
func New(store ArtifactWriter, opts ...Option) *Aggregator {
	a := &Aggregator{store: store, logger: logging.NopLogger(), now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate records one outcome per requested task and writes every
// successful artifact, replacing the previous artifact for the same analyzer
// and snapshot. A failed write turns that task into a StoreWriteError
// failure and leaves the others untouched.
//
// The only error returned is a report that fails its own accounting check.
func (g *Aggregator) Aggregate(ctx context.Context, in Input) (*analysis.ExecutionReport, error) {
	requested := slices.Clone(in.Requested)
	analysis.SortIDs(requested)
	requested = slices.Compact(requested)
	active := slices.Clone(in.Active)
	analysis.SortIDs(active)

	snapshotID := in.Snapshot.Identity()
	logger := g.logger.WithRun(in.RunID).WithPhase("aggregate")

	report := &analysis.ExecutionReport{
		RunID:          in.RunID,
		SnapshotID:     snapshotID,
		Sequence:       in.Sequence,
		RequestedTasks: requested,
		ActiveTasks:    active,
		MaxWorkers:     in.MaxWorkers,
		Outcomes:       make(map[analysis.AnalyzerID]analysis.Outcome, len(requested)),
		StartedAt:      in.StartedAt,
	}

	for _, id := range requested {
		if !slices.Contains(active, id) {
			report.Outcomes[id] = analysis.Skipped(analysis.ReasonExcluded)
			continue
		}

		res, ok := in.Results[id]
		if !ok {
			report.Outcomes[id] = analysis.Skipped(analysis.ReasonCanceled)
			continue
		}

		var o analysis.Outcome
		switch res.Status() {
		case analysis.StatusSkipped:
			o = analysis.Skipped(res.SkipReason)
		case analysis.StatusFailed:
			o = analysis.Failed(analysis.NewFailure(id, res.Err))
		default:
			o = g.persist(ctx, logger, in, snapshotID, res)
		}
		o.Attempts = res.Attempt
		o.Duration = res.Duration()
		report.Outcomes[id] = o
	}

	report.FinishedAt = g.now()
	if err := report.Validate(); err != nil {
		return nil, err
	}

	succeeded, failed, skipped := report.Counts()
	logger.Info("run aggregated",
		"succeeded", succeeded, "failed", failed, "skipped", skipped,
		"duration", report.Duration())
	g.publish(event.NewRunCompletedEvent(report))
	return report, nil
}

func (g *Aggregator) persist(ctx context.Context, logger *logging.Logger, in Input, snapshotID string, res executor.Result) analysis.Outcome {
	art := analysis.Artifact{
		AnalyzerID:  res.ID,
		SnapshotID:  snapshotID,
		Content:     res.Content,
		LogicalTime: in.Sequence,
		CreatedAt:   g.now(),
		ConfigHash:  in.Configs[res.ID].Hash(),
		RunID:       in.RunID,
	}
	if err := g.store.Put(ctx, art); err != nil {
		logger.WithAnalyzer(string(res.ID)).Error("failed to store artifact", "error", err)
		return analysis.Failed(analysis.NewFailure(res.ID, err))
	}
	g.publish(event.NewArtifactStoredEvent(in.RunID, art))
	return analysis.Succeeded(art)
}

func (g *Aggregator) publish(e event.Event) {
	if g.observer != nil {
		g.observer.Publish(e)
	}
}
