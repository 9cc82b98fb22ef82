// Package report renders execution reports for the terminal and for tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"gopkg.in/yaml.v3"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ValidFormats returns the formats Render accepts.
func ValidFormats() []string {
	return []string{FormatTable, FormatJSON, FormatYAML}
}

// maxDetailWidth bounds the detail column of the table.
const maxDetailWidth = 60

// Summary is the machine-readable view of an ExecutionReport. It leaves out
// artifact bodies.
type Summary struct {
	RunID      string        `json:"run_id" yaml:"run_id"`
	SnapshotID string        `json:"snapshot_id" yaml:"snapshot_id"`
	Sequence   uint64        `json:"sequence" yaml:"sequence"`
	MaxWorkers int           `json:"max_workers" yaml:"max_workers"`
	StartedAt  time.Time     `json:"started_at" yaml:"started_at"`
	Duration   string        `json:"duration" yaml:"duration"`
	Succeeded  int           `json:"succeeded" yaml:"succeeded"`
	Failed     int           `json:"failed" yaml:"failed"`
	Skipped    int           `json:"skipped" yaml:"skipped"`
	Tasks      []TaskSummary `json:"tasks" yaml:"tasks"`
}

// TaskSummary is one row of a Summary.
type TaskSummary struct {
	Analyzer  analysis.AnalyzerID `json:"analyzer" yaml:"analyzer"`
	Status    analysis.Status     `json:"status" yaml:"status"`
	Attempts  int                 `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Duration  string              `json:"duration,omitempty" yaml:"duration,omitempty"`
	Detail    string              `json:"detail,omitempty" yaml:"detail,omitempty"`
	Retriable bool                `json:"retriable,omitempty" yaml:"retriable,omitempty"`
}

// Summarize builds the Summary of r with tasks in requested order.
func Summarize(r *analysis.ExecutionReport) Summary {
	s := Summary{
		RunID:      r.RunID,
		SnapshotID: r.SnapshotID,
		Sequence:   r.Sequence,
		MaxWorkers: r.MaxWorkers,
		StartedAt:  r.StartedAt,
		Duration:   r.Duration().Round(time.Millisecond).String(),
	}
	s.Succeeded, s.Failed, s.Skipped = r.Counts()

	for _, id := range r.RequestedTasks {
		o, ok := r.Outcome(id)
		if !ok {
			continue
		}
		t := TaskSummary{Analyzer: id, Status: o.Status, Attempts: o.Attempts}
		if o.Duration > 0 {
			t.Duration = o.Duration.Round(time.Millisecond).String()
		}
		if o.Status != analysis.StatusSucceeded {
			t.Detail = o.Detail()
		}
		if o.Failure != nil {
			t.Retriable = o.Failure.Retriable
		}
		s.Tasks = append(s.Tasks, t)
	}
	return s
}

// Render writes r to w in format. The table format uses colors only when w
// is a terminal that supports them.
func Render(w io.Writer, r *analysis.ExecutionReport, format string) error {
	switch strings.ToLower(format) {
	case "", FormatTable:
		return renderTable(w, Summarize(r))
	case FormatJSON:
		return encodeJSON(w, Summarize(r))
	case FormatYAML:
		return encodeYAML(w, Summarize(r))
	default:
		return unsupported(format)
	}
}

// RenderHistory writes one line per report, oldest first.
func RenderHistory(w io.Writer, reports []*analysis.ExecutionReport, format string) error {
	summaries := make([]Summary, len(reports))
	for i, r := range reports {
		summaries[i] = Summarize(r)
	}

	switch strings.ToLower(format) {
	case "", FormatTable:
		st := newStyles(w)
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(st.border).
			Headers("SEQ", "RUN", "STARTED", "DURATION", "OK", "FAILED", "SKIPPED").
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return st.header
				}
				return st.cell
			})
		for _, s := range summaries {
			t.Row(
				fmt.Sprint(s.Sequence),
				shortID(s.RunID),
				s.StartedAt.Local().Format(time.DateTime),
				s.Duration,
				fmt.Sprint(s.Succeeded),
				fmt.Sprint(s.Failed),
				fmt.Sprint(s.Skipped),
			)
		}
		_, err := fmt.Fprintln(w, t.Render())
		return err
	case FormatJSON:
		return encodeJSON(w, summaries)
	case FormatYAML:
		return encodeYAML(w, summaries)
	default:
		return unsupported(format)
	}
}

func renderTable(w io.Writer, s Summary) error {
	st := newStyles(w)

	header := fmt.Sprintf("Run %s · %s · sequence %d", shortID(s.RunID), s.SnapshotID, s.Sequence)
	if _, err := fmt.Fprintln(w, st.title.Render(header)); err != nil {
		return err
	}

	statuses := make([]analysis.Status, len(s.Tasks))
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(st.border).
		Headers("ANALYZER", "STATUS", "ATTEMPTS", "DURATION", "DETAIL").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return st.header
			case col == 1 && row >= 0 && row < len(statuses):
				return st.status(statuses[row])
			default:
				return st.cell
			}
		})
	for i, task := range s.Tasks {
		statuses[i] = task.Status
		attempts := ""
		if task.Attempts > 0 {
			attempts = fmt.Sprint(task.Attempts)
		}
		detail := task.Detail
		if task.Retriable {
			detail += " (retriable)"
		}
		t.Row(string(task.Analyzer), string(task.Status), attempts, task.Duration, truncate(detail, maxDetailWidth))
	}
	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}

	footer := fmt.Sprintf("%d succeeded, %d failed, %d skipped in %s", s.Succeeded, s.Failed, s.Skipped, s.Duration)
	_, err := fmt.Fprintln(w, st.muted.Render(footer))
	return err
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func unsupported(format string) error {
	return fmt.Errorf("unsupported format %q (supported: %s)", format, strings.Join(ValidFormats(), ", "))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate shortens s to width terminal columns.
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "...")
}
