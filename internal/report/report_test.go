package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
)

func sampleReport(seq uint64) *analysis.ExecutionReport {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ok := analysis.Succeeded(analysis.Artifact{AnalyzerID: analysis.Structure, Content: analysis.Content{Format: analysis.FormatMarkdown, Body: "# big body"}})
	ok.Duration = 1500 * time.Millisecond
	failed := analysis.Failed(analysis.Failure{
		AnalyzerID: analysis.DataFlow,
		Kind:       errors.KindTimeout,
		Message:    "deadline exceeded",
		Retriable:  true,
	})
	failed.Attempts = 2

	return &analysis.ExecutionReport{
		RunID:          "0f8e2c1a-77aa-4bbb-9ccc-123456789abc",
		SnapshotID:     "shop-api@abc123",
		Sequence:       seq,
		RequestedTasks: []analysis.AnalyzerID{analysis.DataFlow, analysis.Dependency, analysis.Structure},
		ActiveTasks:    []analysis.AnalyzerID{analysis.DataFlow, analysis.Structure},
		MaxWorkers:     2,
		Outcomes: map[analysis.AnalyzerID]analysis.Outcome{
			analysis.Structure:  ok,
			analysis.DataFlow:   failed,
			analysis.Dependency: analysis.Skipped(analysis.ReasonExcluded),
		},
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleReport(3))

	if s.Succeeded != 1 || s.Failed != 1 || s.Skipped != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", s.Succeeded, s.Failed, s.Skipped)
	}
	if s.Duration != "2s" || s.Sequence != 3 || s.MaxWorkers != 2 {
		t.Errorf("summary = %+v", s)
	}
	if len(s.Tasks) != 3 {
		t.Fatalf("Tasks = %+v", s.Tasks)
	}

	df := s.Tasks[0]
	if df.Analyzer != analysis.DataFlow || df.Status != analysis.StatusFailed || df.Attempts != 2 ||
		df.Detail != "Timeout: deadline exceeded" || !df.Retriable {
		t.Errorf("data-flow task = %+v", df)
	}
	if dep := s.Tasks[1]; dep.Detail != analysis.ReasonExcluded || dep.Attempts != 0 {
		t.Errorf("dependency task = %+v", dep)
	}
	if st := s.Tasks[2]; st.Detail != "" || st.Duration != "1.5s" {
		t.Errorf("structure task = %+v", st)
	}
}

func TestRender_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleReport(3), FormatTable); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Run 0f8e2c1a · shop-api@abc123 · sequence 3",
		"ANALYZER", "STATUS", "DETAIL",
		"data-flow", "Timeout: deadline exceeded (retriable)",
		"excluded by configuration",
		"1.5s",
		"1 succeeded, 1 failed, 1 skipped in 2s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("table written to a buffer contains ANSI escapes")
	}
	if strings.Contains(out, "big body") {
		t.Error("table contains artifact content")
	}
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleReport(3), FormatJSON); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(buf.String(), "big body") {
		t.Error("JSON contains artifact content")
	}

	var s Summary
	if err := json.Unmarshal(buf.Bytes(), &s); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if s.RunID != "0f8e2c1a-77aa-4bbb-9ccc-123456789abc" || len(s.Tasks) != 3 || !s.Tasks[0].Retriable {
		t.Errorf("decoded = %+v", s)
	}
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleReport(3), FormatYAML); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"run_id: 0f8e2c1a-77aa-4bbb-9ccc-123456789abc",
		"snapshot_id: shop-api@abc123",
		"- analyzer: data-flow\n    status: failed\n    attempts: 2",
		"retriable: true",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("YAML missing %q\n%s", want, out)
		}
	}
}

func TestRender_UnsupportedFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, sampleReport(1), "xml")
	if err == nil || !strings.Contains(err.Error(), `unsupported format "xml"`) {
		t.Errorf("Render(xml) error = %v", err)
	}
}

func TestRenderHistory(t *testing.T) {
	reports := []*analysis.ExecutionReport{sampleReport(1), sampleReport(2)}

	var buf bytes.Buffer
	if err := RenderHistory(&buf, reports, FormatTable); err != nil {
		t.Fatalf("RenderHistory() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "SEQ") || strings.Count(out, "0f8e2c1a") != 2 {
		t.Errorf("history table =\n%s", out)
	}

	buf.Reset()
	if err := RenderHistory(&buf, reports, FormatJSON); err != nil {
		t.Fatalf("RenderHistory(json) error = %v", err)
	}
	var got []Summary
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(got) != 2 || got[1].Sequence != 2 {
		t.Errorf("history = %+v", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	got := truncate(strings.Repeat("x", 80), 20)
	if len(got) != 20 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncate(long) = %q (%d)", got, len(got))
	}
}
