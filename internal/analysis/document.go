package analysis

import "time"

// Document is the output of a generator.
type Document struct {
	// Generator names the producer, e.g. "readme" or "rules".
	Generator string `json:"generator"`
	// Path is relative to the repository root.
	Path       string `json:"path"`
	SnapshotID string `json:"snapshot_id"`
	Body       string `json:"body"`
	// Missing lists analyzers the document needed but had no artifact for.
	Missing []AnalyzerID `json:"missing,omitempty"`
	// Skipped is set when an existing file was left untouched.
	Skipped   bool      `json:"skipped,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
