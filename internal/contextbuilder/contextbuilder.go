// Package contextbuilder assembles the read-only AnalysisContext that
// generators consume. It only reads the artifact store; it never runs
// analyzers.
package contextbuilder

import (
	"context"
	"maps"
	"slices"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/logging"
)

// ReasonNotAnalyzed is recorded for an analyzer with no artifact and no
// outcome in the latest report.
const ReasonNotAnalyzed = "not analyzed"

// Reader is the subset of the artifact store the builder needs.
type Reader interface {
	Get(ctx context.Context, snapshotID string, id analysis.AnalyzerID) (analysis.Artifact, error)
	LatestReport(ctx context.Context, snapshotID string) (*analysis.ExecutionReport, error)
}

// AnalysisContext is an immutable view of the artifacts available for one
// snapshot. It never holds an entry for an analyzer whose latest outcome is
// failed or skipped.
type AnalysisContext struct {
	SnapshotID string
	artifacts  map[analysis.AnalyzerID]analysis.Artifact
	missing    map[analysis.AnalyzerID]string
}

// Get returns the artifact for id.
func (c *AnalysisContext) Get(id analysis.AnalyzerID) (analysis.Artifact, bool) {
	a, ok := c.artifacts[id]
	return a, ok
}

// Body returns the content body for id, or "" when absent.
func (c *AnalysisContext) Body(id analysis.AnalyzerID) string {
	return c.artifacts[id].Content.Body
}

// Has reports whether an artifact for id is present.
func (c *AnalysisContext) Has(id analysis.AnalyzerID) bool {
	_, ok := c.artifacts[id]
	return ok
}

// HasAll reports whether every id is present.
func (c *AnalysisContext) HasAll(ids ...analysis.AnalyzerID) bool {
	for _, id := range ids {
		if !c.Has(id) {
			return false
		}
	}
	return true
}

// IDs returns the present analyzer IDs in ascending order.
func (c *AnalysisContext) IDs() []analysis.AnalyzerID {
	return slices.Sorted(maps.Keys(c.artifacts))
}

// Len returns the number of present artifacts.
func (c *AnalysisContext) Len() int { return len(c.artifacts) }

// Missing returns the required analyzers that are absent, in ascending order.
func (c *AnalysisContext) Missing() []analysis.AnalyzerID {
	return slices.Sorted(maps.Keys(c.missing))
}

// Reason returns why id is missing, or "" when it is present or was not required.
func (c *AnalysisContext) Reason(id analysis.AnalyzerID) string {
	return c.missing[id]
}

// Builder reads artifacts for generation requests.
type Builder struct {
	store  Reader
	logger *logging.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a Builder over store.
func New(store Reader, opts ...Option) *Builder {
	b := &Builder{store: store, logger: logging.NopLogger()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build collects the required artifacts for snapshotID. Absent artifacts are
// recorded in Missing and are not an error. An artifact left over from an
// earlier run is dropped when the latest report says that analyzer failed or
// was skipped. Errors are returned only for store failures other than
// not-found.
func (b *Builder) Build(ctx context.Context, required []analysis.AnalyzerID, snapshotID string) (*AnalysisContext, error) {
	ids := slices.Clone(required)
	analysis.SortIDs(ids)
	ids = slices.Compact(ids)

	ac := &AnalysisContext{
		SnapshotID: snapshotID,
		artifacts:  make(map[analysis.AnalyzerID]analysis.Artifact, len(ids)),
		missing:    make(map[analysis.AnalyzerID]string),
	}

	report, err := b.store.LatestReport(ctx, snapshotID)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return nil, errors.Wrap(err, "failed to read latest report")
	}

	for _, id := range ids {
		if report != nil {
			if o, ok := report.Outcome(id); ok && o.Status != analysis.StatusSucceeded {
				ac.missing[id] = missingReason(o)
				continue
			}
		}

		a, err := b.store.Get(ctx, snapshotID, id)
		switch {
		case errors.Is(err, errors.ErrNotFound):
			ac.missing[id] = ReasonNotAnalyzed
		case err != nil:
			return nil, errors.Wrapf(err, "failed to read artifact %s", id)
		default:
			ac.artifacts[id] = a
		}
	}

	if len(ac.missing) > 0 {
		b.logger.WithPhase("context").Info("building context without some analyses",
			"snapshot", snapshotID, "missing", analysis.IDStrings(ac.Missing()))
	}
	return ac, nil
}

func missingReason(o analysis.Outcome) string {
	if o.Status == analysis.StatusFailed && o.Failure != nil {
		return "failed: " + o.Failure.Kind.String()
	}
	return o.Detail()
}
