// Package registry holds the set of analyzers available to a run and
// selects the active subset from configuration.
package registry

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
)

// Analyzer produces one kind of analysis for a repository snapshot.
//
// Run must honor ctx cancellation where it can. An analyzer that ignores
// ctx keeps running after its timeout but its result is discarded.
// Returning an error built with errors.NewAnalyzerError(...).WithRetryable(true)
// marks the failure as retriable.
type Analyzer interface {
	ID() analysis.AnalyzerID
	Run(ctx context.Context, snap analysis.Snapshot, cfg analysis.TaskConfig) (analysis.Content, error)
}

// RunFunc is the signature of an analyzer's Run method.
type RunFunc func(ctx context.Context, snap analysis.Snapshot, cfg analysis.TaskConfig) (analysis.Content, error)

type funcAnalyzer struct {
	id analysis.AnalyzerID
	fn RunFunc
}

func (f funcAnalyzer) ID() analysis.AnalyzerID { return f.id }

func (f funcAnalyzer) Run(ctx context.Context, snap analysis.Snapshot, cfg analysis.TaskConfig) (analysis.Content, error) {
	return f.fn(ctx, snap, cfg)
}

// Func adapts fn into an Analyzer with the given id.
func Func(id analysis.AnalyzerID, fn RunFunc) Analyzer {
	return funcAnalyzer{id: id, fn: fn}
}

// Registry maps analyzer IDs to implementations. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	analyzers map[analysis.AnalyzerID]Analyzer
}

// New creates a Registry containing analyzers.
func New(analyzers ...Analyzer) (*Registry, error) {
	r := &Registry{analyzers: make(map[analysis.AnalyzerID]Analyzer, len(analyzers))}
	for _, a := range analyzers {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a. Registering the same ID twice is an error.
func (r *Registry) Register(a Analyzer) error {
	if a == nil {
		return errors.New("registry: analyzer is nil")
	}
	id := a.ID()
	if id == "" {
		return errors.New("registry: analyzer ID is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.analyzers[id]; exists {
		return fmt.Errorf("registry: %s: %w", id, errors.ErrDuplicateAnalyzer)
	}
	r.analyzers[id] = a
	return nil
}

// Replace registers a, overwriting any analyzer with the same ID.
func (r *Registry) Replace(a Analyzer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyzers[a.ID()] = a
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(a Analyzer) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

// Get returns the analyzer registered under id.
func (r *Registry) Get(id analysis.AnalyzerID) (Analyzer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.analyzers[id]
	return a, ok
}

// Universe returns every registered ID in ascending order.
func (r *Registry) Universe() []analysis.AnalyzerID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.analyzers))
}

// Len returns the number of registered analyzers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.analyzers)
}
