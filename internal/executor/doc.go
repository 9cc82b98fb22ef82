// Package executor runs a set of analyzers against one snapshot with bounded
// parallelism.
//
// Each task runs behind a bulkhead: an error, panic or timeout in one analyzer
// becomes that task's result and never cancels or blocks the others. Tasks are
// submitted to the pool in ascending AnalyzerID order; completion order is
// unspecified and results are returned as a map.
//
// When the context passed to Execute is canceled or reaches its deadline,
// tasks that have not finished are reported with a skip reason instead of a
// failure. The executor never retries; retry is the caller's decision.
//
// Lifecycle events are published to an optional [Observer]. The
// [event.Bus] satisfies it.
package executor
