// Package orchestrator runs one analysis pass over a repository snapshot.
//
// A run validates the snapshot, selects the active analyzers from the
// registry, executes them on a bounded pool, optionally re-executes
// retriable failures, and hands every result to the aggregator, which writes
// artifacts and builds the ExecutionReport. The report is persisted next to
// the artifacts so later context builds can tell fresh results from stale
// ones.
//
// Only precondition failures (invalid snapshot, no tasks selected, unknown
// analyzers, unreadable store) are returned as errors. Anything that goes
// wrong inside a task is recorded in the report.
//
// Typical use:
//
//	o := orchestrator.New(reg, store, orchestrator.WithObserver(bus))
//	report, err := o.Run(ctx, orchestrator.Request{Snapshot: snap})
package orchestrator
