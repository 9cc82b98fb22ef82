// Package event provides the pub-sub bus that carries pipeline progress.
//
// Execution never depends on a subscriber: the executor and aggregator
// publish lifecycle events and move on. Progress views, the websocket
// stream and log sinks subscribe to the same [Bus].
//
// # Event Categories
//
// Run lifecycle:
//   - [RunStartedEvent]: active task set resolved, nothing submitted yet
//   - [RunCompletedEvent]: execution report built
//
// Tasks:
//   - [TaskSubmittedEvent], [TaskStartedEvent], [TaskFinishedEvent]
//   - [ArtifactStoredEvent]: a successful artifact was persisted
//
// Generation and scheduling:
//   - [DocumentGeneratedEvent]
//   - [WatchTriggeredEvent]
//
// # Thread Safety
//
// [Bus] is safe for concurrent use. Handlers run synchronously on the
// publishing goroutine, so they must be fast; slow consumers should use
// [Bus.SubscribeChan], which drops events instead of blocking.
package event
