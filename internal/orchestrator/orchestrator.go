package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/aggregate"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/artifact"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/config"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/event"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/executor"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/logging"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/orchestrator/retry"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/registry"
)

// Request describes one orchestration run.
type Request struct {
	Snapshot   analysis.Snapshot
	Exclusions registry.Exclusions
	// MaxWorkers bounds concurrency. 0 selects min(NumCPU, active tasks).
	MaxWorkers int
	// TaskTimeout applies to analyzers whose config sets no timeout. 0 disables it.
	TaskTimeout time.Duration
	// GlobalTimeout bounds the whole run. Tasks unfinished when it fires are
	// skipped. 0 disables it.
	GlobalTimeout time.Duration
	// Configs holds the resolved configuration per analyzer.
	Configs map[analysis.AnalyzerID]analysis.TaskConfig
	Retry   retry.Policy
	// ExportDir, when set, receives a Markdown copy of each new artifact.
	ExportDir string
	// RunID is generated when empty.
	RunID string
}

// RequestFromConfig builds a Request from loaded configuration.
func RequestFromConfig(cfg *config.Config, snap analysis.Snapshot, ex registry.Exclusions, universe []analysis.AnalyzerID) Request {
	req := Request{
		Snapshot:      snap,
		Exclusions:    ex,
		MaxWorkers:    cfg.Analysis.MaxWorkers,
		TaskTimeout:   cfg.Analysis.TaskTimeout,
		GlobalTimeout: cfg.Analysis.RunTimeout,
		Configs:       cfg.TaskConfigs(universe),
		Retry:         retry.Policy{MaxRetries: cfg.Analysis.Retries, Backoff: cfg.Analysis.RetryBackoff},
	}
	if cfg.Analysis.ExportDocs {
		req.ExportDir = config.ResolvePath(snap.Root, cfg.Analysis.DocsDir)
	}
	return req
}

// Orchestrator wires the registry, executor and aggregator together.
type Orchestrator struct {
	registry *registry.Registry
	store    *artifact.Store
	fs       afero.Fs
	observer executor.Observer
	logger   *logging.Logger
	now      func() time.Time
	newRunID func() string
}

// New creates an Orchestrator.
func New(reg *registry.Registry, store *artifact.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: reg,
		store:    store,
		fs:       afero.NewOsFs(),
		logger:   logging.NopLogger(),
		now:      time.Now,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Store returns the artifact store runs write to.
func (o *Orchestrator) Store() *artifact.Store { return o.store }

// Registry returns the analyzer registry.
func (o *Orchestrator) Registry() *registry.Registry { return o.registry }

// Run executes one orchestration pass and returns its report.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*analysis.ExecutionReport, error) {
	if err := analysis.ValidateSnapshot(o.fs, req.Snapshot); err != nil {
		return nil, err
	}

	universe := o.registry.Universe()
	active, err := registry.SelectTasks(universe, req.Exclusions)
	if err != nil {
		return nil, err
	}

	snapshotID := req.Snapshot.Identity()
	seq, err := o.store.NextSequence(ctx, snapshotID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read run history")
	}

	runID := req.RunID
	if runID == "" {
		runID = o.newRunID()
	}
	workers := executor.ResolveWorkers(req.MaxWorkers, len(active))
	logger := o.logger.WithRun(runID)
	started := o.now()

	logger.Info("run started",
		"snapshot", snapshotID,
		"sequence", seq,
		"active", analysis.IDStrings(active),
		"max_workers", workers)
	o.publish(event.NewRunStartedEvent(runID, snapshotID, active, workers))

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if req.GlobalTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, req.GlobalTimeout)
	}
	defer cancel()

	exec := executor.New(
		executor.WithObserver(o.observer),
		executor.WithLogger(o.logger),
		executor.WithClock(o.now),
	)
	results := o.execute(runCtx, exec, req, runID, workers, active, logger)

	agg := aggregate.New(o.store,
		aggregate.WithObserver(o.observer),
		aggregate.WithLogger(o.logger),
		aggregate.WithClock(o.now),
	)
	// Results already gathered are persisted even when the caller has gone away.
	persistCtx := context.WithoutCancel(ctx)
	report, err := agg.Aggregate(persistCtx, aggregate.Input{
		RunID:      runID,
		Snapshot:   req.Snapshot,
		Sequence:   seq,
		Requested:  universe,
		Active:     active,
		MaxWorkers: workers,
		Configs:    req.Configs,
		Results:    results,
		StartedAt:  started,
	})
	if err != nil {
		return nil, err
	}

	if err := o.store.PutReport(persistCtx, report); err != nil {
		logger.Error("failed to persist report", "error", err)
	}
	if req.ExportDir != "" {
		o.export(req.ExportDir, report, logger)
	}
	return report, nil
}

func (o *Orchestrator) execute(
	ctx context.Context,
	exec *executor.Executor,
	req Request,
	runID string,
	workers int,
	ids []analysis.AnalyzerID,
	logger *logging.Logger,
) map[analysis.AnalyzerID]executor.Result {
	results := exec.Execute(ctx, executor.Request{
		RunID:      runID,
		Snapshot:   req.Snapshot,
		Tasks:      o.tasks(req, ids),
		MaxWorkers: workers,
		Attempt:    1,
	})
	if !req.Retry.Enabled() {
		return results
	}

	mgr := retry.NewManager(req.Retry.MaxRetries)
	record := func(batch map[analysis.AnalyzerID]executor.Result) {
		for id, r := range batch {
			switch r.Status() {
			case analysis.StatusSucceeded:
				mgr.RecordSuccess(id)
			case analysis.StatusFailed:
				mgr.RecordFailure(id, analysis.NewFailure(id, r.Err))
			default:
				mgr.RecordSkip(id, r.SkipReason)
			}
		}
	}
	record(results)

	for round := 1; ; round++ {
		pending := mgr.Pending()
		if len(pending) == 0 {
			break
		}
		if err := sleepCtx(ctx, req.Retry.Delay(round)); err != nil {
			logger.Info("retry abandoned", "reason", err, "pending", analysis.IDStrings(pending))
			break
		}
		logger.Info("retrying analyzers", "round", round, "analyzers", analysis.IDStrings(pending))

		batch := exec.Execute(ctx, executor.Request{
			RunID:      runID,
			Snapshot:   req.Snapshot,
			Tasks:      o.tasks(req, pending),
			MaxWorkers: min(workers, len(pending)),
			Attempt:    round + 1,
		})
		record(batch)
		for id, r := range batch {
			// An attempt that never ran does not erase the failure before it.
			if r.Status() == analysis.StatusSkipped {
				prev := results[id]
				prev.Attempt = r.Attempt
				results[id] = prev
				continue
			}
			results[id] = r
		}
	}

	if exhausted := mgr.Exhausted(); len(exhausted) > 0 {
		logger.Warn("retries exhausted", "analyzers", analysis.IDStrings(exhausted))
	}
	return results
}

func (o *Orchestrator) tasks(req Request, ids []analysis.AnalyzerID) []executor.Task {
	tasks := make([]executor.Task, 0, len(ids))
	for _, id := range ids {
		a, _ := o.registry.Get(id)
		cfg := req.Configs[id]
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = req.TaskTimeout
		}
		tasks = append(tasks, executor.Task{ID: id, Analyzer: a, Config: cfg, Timeout: timeout})
	}
	return tasks
}

func (o *Orchestrator) export(dir string, report *analysis.ExecutionReport, logger *logging.Logger) {
	for _, id := range report.Succeeded() {
		out, _ := report.Outcome(id)
		path, err := artifact.Export(o.fs, dir, *out.Artifact)
		if err != nil {
			logger.WithAnalyzer(string(id)).Warn("failed to export analysis", "error", err)
			continue
		}
		logger.WithAnalyzer(string(id)).Debug("exported analysis", "path", path)
	}
}

func (o *Orchestrator) publish(e event.Event) {
	if o.observer != nil {
		o.observer.Publish(e)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
