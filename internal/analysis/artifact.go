package analysis

import (
	"fmt"
	"time"
)

// Format describes how artifact content is encoded.
type Format string

// Supported content formats.
const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatText     Format = "text"
)

// Content is what an analyzer produces. The pipeline never interprets Body.
type Content struct {
	Format Format `json:"format"`
	Body   string `json:"body"`
}

// Artifact is the stored output of one analyzer for one snapshot.
// There is at most one artifact per (AnalyzerID, SnapshotID); a later run
// replaces it.
type Artifact struct {
	AnalyzerID AnalyzerID `json:"analyzer_id"`
	SnapshotID string     `json:"snapshot_id"`
	Content    Content    `json:"content"`
	// LogicalTime is the run sequence number that produced the artifact.
	LogicalTime uint64    `json:"logical_time"`
	CreatedAt   time.Time `json:"created_at"`
	ConfigHash  string    `json:"config_hash"`
	RunID       string    `json:"run_id,omitempty"`
}

// Key returns the storage key of the artifact.
func (a Artifact) Key() string {
	return a.SnapshotID + "/" + string(a.AnalyzerID)
}

// Validate reports whether the artifact carries the fields needed to store it.
func (a Artifact) Validate() error {
	if a.AnalyzerID == "" {
		return fmt.Errorf("artifact: analyzer_id is required")
	}
	if a.SnapshotID == "" {
		return fmt.Errorf("artifact: snapshot_id is required")
	}
	return nil
}
