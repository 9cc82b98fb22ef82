package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNewLogger(t *testing.T) {
	t.Run("creates log file in directory", func(t *testing.T) {
		dir := t.TempDir()

		logger, err := NewLogger(dir, LevelDebug)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer logger.Close()

		if logger.Path() != filepath.Join(dir, LogFileName) {
			t.Errorf("Path() = %q", logger.Path())
		}
		if _, err := os.Stat(logger.Path()); err != nil {
			t.Errorf("log file was not created: %v", err)
		}
	})

	t.Run("writes to stderr when dir is empty", func(t *testing.T) {
		logger, err := NewLogger("", LevelInfo)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		if logger.Path() != "" {
			t.Errorf("Path() = %q, want empty", logger.Path())
		}
		if err := logger.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
}

func TestLogger_LevelsAndAttrs(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatal(err)
	}

	runLog := logger.WithRun("run-1").WithAnalyzer("structure").WithPhase("execute")
	runLog.Debug("hidden")
	runLog.Info("task finished", "duration_ms", 12)
	logger.With("component", "store").Warn("slow write")
	_ = logger.Close()

	lines := readLines(t, filepath.Join(dir, LogFileName))
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (debug filtered)", len(lines))
	}

	first := lines[0]
	if first["run_id"] != "run-1" || first["analyzer"] != "structure" || first["phase"] != "execute" {
		t.Errorf("persistent attrs missing: %v", first)
	}
	if first["duration_ms"] != float64(12) {
		t.Errorf("call attrs missing: %v", first)
	}
	if lines[1]["component"] != "store" || lines[1]["run_id"] != nil {
		t.Errorf("child attrs leaked or missing: %v", lines[1])
	}
}

func TestLogger_ConsoleMirror(t *testing.T) {
	var console bytes.Buffer
	logger, err := New(Options{Dir: t.TempDir(), Level: LevelDebug, Console: &console})
	if err != nil {
		t.Fatal(err)
	}
	defer logger.Close()

	logger.Info("quiet")
	logger.Warn("loud", "analyzer", "dependency")

	out := console.String()
	if strings.Contains(out, "quiet") {
		t.Error("console received an INFO record")
	}
	if !strings.Contains(out, "loud") || !strings.Contains(out, "analyzer=dependency") {
		t.Errorf("console output = %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"Error":   LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDailyDir(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if got := DailyDir("/r/.ai/logs", ts); got != filepath.Join("/r/.ai/logs", "2024_05_01") {
		t.Errorf("DailyDir() = %q", got)
	}
}

func TestNopLogger(t *testing.T) {
	l := NopLogger()
	l.WithRun("x").Error("discarded")
	if err := l.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
