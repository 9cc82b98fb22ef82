// Package analysis defines the value types that flow through the analysis
// pipeline: analyzer identifiers, repository snapshots, task configuration,
// artifacts, failures, and the per-run execution report.
//
// Everything in this package is a plain value. Nothing here performs I/O
// except snapshot resolution, which reads the repository's git metadata.
package analysis

import (
	"slices"
	"strings"
)

// AnalyzerID identifies one kind of analysis.
// The built-in set is closed but the registry accepts additional IDs.
type AnalyzerID string

// Built-in analyzers.
const (
	Structure   AnalyzerID = "structure"
	Dependency  AnalyzerID = "dependency"
	DataFlow    AnalyzerID = "data-flow"
	RequestFlow AnalyzerID = "request-flow"
	APISurface  AnalyzerID = "api-surface"
)

// String implements fmt.Stringer.
func (id AnalyzerID) String() string { return string(id) }

// Universe returns the built-in analyzers in ascending order.
func Universe() []AnalyzerID {
	ids := []AnalyzerID{Structure, Dependency, DataFlow, RequestFlow, APISurface}
	SortIDs(ids)
	return ids
}

// aliases maps the names used by flags and older config files onto IDs.
var aliases = map[string]AnalyzerID{
	"structure":      Structure,
	"code-structure": Structure,
	"dependency":     Dependency,
	"dependencies":   Dependency,
	"data-flow":      DataFlow,
	"dataflow":       DataFlow,
	"request-flow":   RequestFlow,
	"requestflow":    RequestFlow,
	"api-surface":    APISurface,
	"api":            APISurface,
	"api-analysis":   APISurface,
}

// Normalize maps a user-supplied analyzer name onto its canonical ID.
// Underscores and case are ignored. Names that are not a known alias are
// returned lowercased so the registry can decide whether they exist.
func Normalize(name string) AnalyzerID {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "_", "-")
	if id, ok := aliases[key]; ok {
		return id
	}
	return AnalyzerID(key)
}

// SortIDs sorts ids in place in ascending order.
func SortIDs(ids []AnalyzerID) {
	slices.Sort(ids)
}

// IDStrings converts ids to plain strings, preserving order.
func IDStrings(ids []AnalyzerID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
