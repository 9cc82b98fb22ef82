package orchestrator

import (
	"time"

	"github.com/spf13/afero"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/executor"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/logging"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFs sets the filesystem used to validate snapshots and export docs.
// The default is the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(o *Orchestrator) {
		if fs != nil {
			o.fs = fs
		}
	}
}

// WithObserver publishes run, task and artifact events to obs.
func WithObserver(obs executor.Observer) Option {
	return func(o *Orchestrator) {
		o.observer = obs
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRunIDs replaces the run ID generator.
func WithRunIDs(next func() string) Option {
	return func(o *Orchestrator) {
		if next != nil {
			o.newRunID = next
		}
	}
}
