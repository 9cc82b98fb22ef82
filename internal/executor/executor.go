package executor

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/event"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/logging"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/registry"
)

// Task is one analyzer invocation.
type Task struct {
	ID       analysis.AnalyzerID
	Analyzer registry.Analyzer
	Config   analysis.TaskConfig
	// Timeout bounds the wait for the analyzer. 0 means no per-task limit.
	Timeout time.Duration
}

// Request describes one batch of tasks.
type Request struct {
	RunID    string
	Snapshot analysis.Snapshot
	Tasks    []Task
	// MaxWorkers bounds concurrency. 0 or less selects automatically.
	MaxWorkers int
	// Attempt is recorded on each result and in task.started events. It starts at 1.
	Attempt int
}

// Result is the terminal state of one task in a batch.
// Exactly one of Content (Err == nil and SkipReason == ""), Err, or SkipReason
// describes it.
type Result struct {
	ID         analysis.AnalyzerID
	Content    analysis.Content
	Err        error
	SkipReason string
	Attempt    int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Status maps the result onto a report status.
func (r Result) Status() analysis.Status {
	switch {
	case r.SkipReason != "":
		return analysis.StatusSkipped
	case r.Err != nil:
		return analysis.StatusFailed
	default:
		return analysis.StatusSucceeded
	}
}

// Duration is the time spent waiting on the analyzer.
func (r Result) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Executor runs analyzer tasks on a bounded pool.
type Executor struct {
	observer Observer
	logger   *logging.Logger
	now      func() time.Time
}

// New creates an Executor.
func New(opts ...Option) *Executor {
	e := &Executor{
		logger: logging.NopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ResolveWorkers returns the pool size for n tasks. A non-positive maxWorkers
// selects min(runtime.NumCPU(), n). The result is never above n or below 1.
func ResolveWorkers(maxWorkers, n int) int {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	return max(1, min(maxWorkers, n))
}

// Execute runs every task in req and returns one result per task ID.
// It returns when every task has a result; analyzers that ignore their
// context may keep running after that, and their late results are dropped.
func (e *Executor) Execute(ctx context.Context, req Request) map[analysis.AnalyzerID]Result {
	results := make(map[analysis.AnalyzerID]Result, len(req.Tasks))
	if len(req.Tasks) == 0 {
		return results
	}
	if req.Attempt < 1 {
		req.Attempt = 1
	}

	tasks := slices.Clone(req.Tasks)
	slices.SortFunc(tasks, func(a, b Task) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	workers := ResolveWorkers(req.MaxWorkers, len(tasks))
	logger := e.logger.WithRun(req.RunID).WithPhase("execute")
	logger.Debug("executing tasks", "tasks", len(tasks), "workers", workers, "attempt", req.Attempt)

	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(workers)
	for _, t := range tasks {
		e.publish(event.NewTaskSubmittedEvent(req.RunID, t.ID))
		p.Go(func() {
			r := e.runTask(ctx, req, t, logger)
			mu.Lock()
			results[t.ID] = r
			mu.Unlock()
			e.publish(event.NewTaskFinishedEvent(req.RunID, t.ID, analysis.Outcome{
				Status:     r.Status(),
				SkipReason: r.SkipReason,
				Failure:    failureOf(r),
				Attempts:   r.Attempt,
				Duration:   r.Duration(),
			}))
		})
	}
	p.Wait()

	return results
}

type runResult struct {
	content analysis.Content
	err     error
}

func (e *Executor) runTask(ctx context.Context, req Request, t Task, logger *logging.Logger) Result {
	res := Result{ID: t.ID, Attempt: req.Attempt}
	log := logger.WithAnalyzer(string(t.ID))

	if err := ctx.Err(); err != nil {
		res.SkipReason = skipReason(err)
		log.Debug("task not started", "reason", res.SkipReason)
		return res
	}
	if t.Analyzer == nil {
		res.Err = errors.NewAnalyzerError(string(t.ID), "no analyzer registered", errors.ErrUnknownAnalyzer)
		return res
	}

	e.publish(event.NewTaskStartedEvent(req.RunID, t.ID, req.Attempt))
	res.StartedAt = e.now()

	taskCtx, cancel := ctx, context.CancelFunc(func() {})
	if t.Timeout > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, t.Timeout)
	}
	defer cancel()

	// Buffered so an analyzer that outlives its timeout can still send and exit.
	done := make(chan runResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- runResult{err: errors.NewAnalyzerError(string(t.ID), fmt.Sprintf("%v", r), errors.ErrPanic)}
			}
		}()
		content, err := t.Analyzer.Run(taskCtx, req.Snapshot, t.Config.Clone())
		done <- runResult{content: content, err: err}
	}()

	var (
		r        runResult
		finished bool
	)
	select {
	case r = <-done:
		finished = true
	case <-taskCtx.Done():
		select {
		case r = <-done:
			finished = true
		default:
		}
	}

	switch {
	case finished && r.err == nil:
		res.Content = r.content
	case ctx.Err() != nil && (!finished || isContextErr(r.err)):
		res.SkipReason = skipReason(ctx.Err())
	case finished && !(taskCtx.Err() != nil && isContextErr(r.err)):
		res.Err = r.err
	default:
		res.Err = errors.NewTimeoutError("analyzer "+string(t.ID), t.Timeout).WithCause(taskCtx.Err())
	}

	res.FinishedAt = e.now()
	switch res.Status() {
	case analysis.StatusFailed:
		log.Warn("analyzer failed", "error", res.Err, "retriable", errors.IsRetryable(res.Err))
	case analysis.StatusSkipped:
		log.Info("analyzer interrupted", "reason", res.SkipReason)
	default:
		log.Info("analyzer finished", "duration", res.Duration())
	}
	return res
}

func (e *Executor) publish(ev event.Event) {
	if e.observer != nil {
		e.observer.Publish(ev)
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func skipReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return analysis.ReasonOrchestrationTimeout
	}
	return analysis.ReasonCanceled
}

func failureOf(r Result) *analysis.Failure {
	if r.Status() != analysis.StatusFailed {
		return nil
	}
	f := analysis.NewFailure(r.ID, r.Err)
	return &f
}
