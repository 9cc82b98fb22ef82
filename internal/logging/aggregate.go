package logging

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Entry is one parsed record from a JSON log file.
type Entry struct {
	Time     time.Time      `json:"time"`
	Level    string         `json:"level"`
	Message  string         `json:"msg"`
	RunID    string         `json:"run_id,omitempty"`
	Analyzer string         `json:"analyzer,omitempty"`
	Phase    string         `json:"phase,omitempty"`
	Attrs    map[string]any `json:"attrs,omitempty"`
}

// Filter selects entries. Zero-valued fields match everything.
type Filter struct {
	// Level keeps entries at or above this level.
	Level    string
	RunID    string
	Analyzer string
	Phase    string
	Since    time.Time
	Contains string
}

var levelRank = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ReadDir reads every log file under base (including dated subdirectories)
// and returns the entries in timestamp order. Lines that are not JSON are skipped.
func ReadDir(base string) ([]Entry, error) {
	var paths []string
	err := filepath.WalkDir(base, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == LogFileName {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan log directory: %w", err)
	}

	var entries []Entry
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		got, err := Read(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		entries = append(entries, got...)
	}

	slices.SortStableFunc(entries, func(a, b Entry) int { return a.Time.Compare(b.Time) })
	return entries, nil
}

// Read parses JSON log lines from r.
func Read(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var entries []Entry
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		e, err := parseEntry(line)
		if err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}

func parseEntry(line string) (Entry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, err
	}

	take := func(key string) string {
		v, _ := raw[key].(string)
		delete(raw, key)
		return v
	}

	e := Entry{
		Level:    take("level"),
		Message:  take("msg"),
		RunID:    take("run_id"),
		Analyzer: take("analyzer"),
		Phase:    take("phase"),
	}
	if ts := take("time"); ts != "" {
		e.Time, _ = time.Parse(time.RFC3339Nano, ts)
	}
	if len(raw) > 0 {
		e.Attrs = raw
	}
	return e, nil
}

// Apply returns the entries matching f.
func (f Filter) Apply(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if f.match(e) {
			out = append(out, e)
		}
	}
	return out
}

func (f Filter) match(e Entry) bool {
	if f.Level != "" {
		want, ok1 := levelRank[ParseLevel(f.Level)]
		got, ok2 := levelRank[e.Level]
		if ok1 && ok2 && got < want {
			return false
		}
	}
	switch {
	case f.RunID != "" && e.RunID != f.RunID:
		return false
	case f.Analyzer != "" && e.Analyzer != f.Analyzer:
		return false
	case f.Phase != "" && e.Phase != f.Phase:
		return false
	case !f.Since.IsZero() && e.Time.Before(f.Since):
		return false
	case f.Contains != "" && !strings.Contains(e.Message, f.Contains):
		return false
	}
	return true
}

// WriteText renders entries one per line: time level message (context) {attrs}.
func WriteText(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		var ctx []string
		if e.RunID != "" {
			ctx = append(ctx, "run="+e.RunID)
		}
		if e.Analyzer != "" {
			ctx = append(ctx, "analyzer="+e.Analyzer)
		}
		if e.Phase != "" {
			ctx = append(ctx, "phase="+e.Phase)
		}

		line := fmt.Sprintf("%s %-5s %s", e.Time.Format("2006-01-02 15:04:05.000"), e.Level, e.Message)
		if len(ctx) > 0 {
			line += " (" + strings.Join(ctx, ", ") + ")"
		}
		if len(e.Attrs) > 0 {
			b, _ := json.Marshal(e.Attrs)
			line += " " + string(b)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON renders entries as an indented JSON array.
func WriteJSON(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
