package executor

import (
	"time"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/event"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/logging"
)

// Observer receives task lifecycle events. Execution never depends on it.
type Observer interface {
	Publish(e event.Event)
}

// Option configures an Executor.
type Option func(*Executor)

// WithObserver sets the observer that receives lifecycle events.
func WithObserver(o Observer) Option {
	return func(e *Executor) {
		e.observer = o
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logging.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}
