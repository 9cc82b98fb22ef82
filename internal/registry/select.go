package registry

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
)

// Exclusions is the set of analyzers a run must not execute.
type Exclusions map[analysis.AnalyzerID]struct{}

// NewExclusions builds a set from analyzer names, normalizing aliases.
func NewExclusions(names ...string) Exclusions {
	ex := make(Exclusions, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		ex[analysis.Normalize(n)] = struct{}{}
	}
	return ex
}

// Has reports whether id is excluded.
func (e Exclusions) Has(id analysis.AnalyzerID) bool {
	_, ok := e[id]
	return ok
}

// List returns the excluded IDs in ascending order.
func (e Exclusions) List() []analysis.AnalyzerID {
	return slices.Sorted(maps.Keys(e))
}

// MergeExclusions combines the config file's exclusion list with run-time flags.
// Flags win: an analyzer named in flagExclude is excluded even if the file
// enables it, and one named in flagInclude runs even if the file excludes it.
// Naming the same analyzer in both flag lists is an error.
func MergeExclusions(file, flagExclude, flagInclude []string) (Exclusions, error) {
	include := NewExclusions(flagInclude...)
	exclude := NewExclusions(flagExclude...)

	for id := range exclude {
		if include.Has(id) {
			return nil, errors.NewValidationError("exclude", string(id), "analyzer is both included and excluded")
		}
	}

	out := NewExclusions(file...)
	for id := range include {
		delete(out, id)
	}
	maps.Copy(out, exclude)
	return out, nil
}

// SelectTasks returns the members of universe not in exclusions, in
// ascending ID order. Every exclusion must name a member of universe.
// An empty result is reported as errors.ErrNoTasksSelected.
func SelectTasks(universe []analysis.AnalyzerID, exclusions Exclusions) ([]analysis.AnalyzerID, error) {
	known := make(map[analysis.AnalyzerID]bool, len(universe))
	for _, id := range universe {
		known[id] = true
	}

	var unknown []string
	for _, id := range exclusions.List() {
		if !known[id] {
			unknown = append(unknown, string(id))
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnknownAnalyzer,
			errors.NewValidationError("exclude", strings.Join(unknown, ","), "not a registered analyzer"))
	}

	active := make([]analysis.AnalyzerID, 0, len(known))
	for id := range known {
		if !exclusions.Has(id) {
			active = append(active, id)
		}
	}
	if len(active) == 0 {
		return nil, fmt.Errorf("all %d analyzers excluded: %w", len(known), errors.ErrNoTasksSelected)
	}

	analysis.SortIDs(active)
	return active, nil
}

// Select applies SelectTasks to the registry's universe.
func (r *Registry) Select(exclusions Exclusions) ([]analysis.AnalyzerID, error) {
	return SelectTasks(r.Universe(), exclusions)
}
