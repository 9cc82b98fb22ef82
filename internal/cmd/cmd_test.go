package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/config"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/report"
)

// executeCommand runs the root command with args and returns captured stdout
// and stderr. Flag values are reset first because the commands are package
// globals.
func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut syncBuffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

// syncBuffer is written by the logger and by event handlers concurrently.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// setupRepo creates a small Go service and isolates the test from the
// user's config and API keys.
func setupRepo(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	dir := filepath.Join(t.TempDir(), "shop-api")
	writeFile(t, dir, "go.mod", "module example.com/shop-api\n\ngo 1.22\n\nrequire github.com/google/uuid v1.6.0\n")
	writeFile(t, dir, "main.go", `package main

import "net/http"

func main() {
	http.HandleFunc("/orders", listOrders)
	_ = http.ListenAndServe(":8080", nil)
}
`)
	writeFile(t, dir, "orders.go", `package main

import (
	"encoding/json"
	"net/http"
)

type Order struct {
	ID    string
	Total int
}

func listOrders(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode([]Order{})
}
`)
	return dir
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func decodeSummary(t *testing.T, out string) report.Summary {
	t.Helper()
	var s report.Summary
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("failed to decode report: %v\n%s", err, out)
	}
	return s
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "aidocgen" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "aidocgen")
	}

	cmds := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		cmds[c.Name()] = true
	}
	for _, name := range []string{"analyze", "readme", "rules", "generate", "report", "serve", "watch", "logs", "config", "version"} {
		if !cmds[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestAnalysisFlags(t *testing.T) {
	for _, c := range []*cobra.Command{analyzeCmd, generateCmd, watchCmd} {
		for _, name := range []string{"max-workers", "task-timeout", "timeout", "retries", "export-docs",
			"exclude", "include", "exclude-structure", "exclude-dependencies", "exclude-data-flow",
			"exclude-request-flow", "exclude-api"} {
			if c.Flags().Lookup(name) == nil {
				t.Errorf("%s: missing flag --%s", c.Name(), name)
			}
		}
	}
}

func TestAnalyze(t *testing.T) {
	dir := setupRepo(t)

	out, stderr, err := executeCommand(t, "analyze", "--repo", dir, "--format", "json", "--exclude-data-flow", "--max-workers", "2")
	if err != nil {
		t.Fatalf("analyze failed: %v\n%s", err, stderr)
	}
	s := decodeSummary(t, out)
	if s.Succeeded != 4 || s.Failed != 0 || s.Skipped != 1 {
		t.Errorf("counts = %d/%d/%d, want 4/0/1", s.Succeeded, s.Failed, s.Skipped)
	}
	if s.Sequence != 1 || s.MaxWorkers != 2 {
		t.Errorf("sequence = %d, max workers = %d", s.Sequence, s.MaxWorkers)
	}
	if !strings.Contains(stderr, "succeeded structure") {
		t.Errorf("stderr missing task line:\n%s", stderr)
	}

	for _, name := range []string{"structure.md", "dependency.md", "request-flow.md", "api-surface.md"} {
		if _, err := os.Stat(filepath.Join(dir, ".ai", "docs", name)); err != nil {
			t.Errorf("exported doc %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, ".ai", "docs", "data-flow.md")); err == nil {
		t.Error("excluded analyzer was exported")
	}

	out, _, err = executeCommand(t, "report", "--repo", dir, "--format", "json")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if got := decodeSummary(t, out); got.RunID != s.RunID {
		t.Errorf("report run = %q, want %q", got.RunID, s.RunID)
	}

	// A second run is a new sequence; no export this time.
	out, _, err = executeCommand(t, "analyze", "--repo", dir, "--format", "json", "--export-docs=false")
	if err != nil {
		t.Fatalf("second analyze failed: %v", err)
	}
	if s2 := decodeSummary(t, out); s2.Sequence != 2 || s2.Succeeded != 5 {
		t.Errorf("second run = seq %d, %d succeeded", s2.Sequence, s2.Succeeded)
	}
	if _, err := os.Stat(filepath.Join(dir, ".ai", "docs", "data-flow.md")); err == nil {
		t.Error("--export-docs=false still exported")
	}

	out, _, err = executeCommand(t, "report", "--repo", dir, "--history")
	if err != nil {
		t.Fatalf("report --history failed: %v", err)
	}
	if !strings.Contains(out, "SEQ") {
		t.Errorf("history output:\n%s", out)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	dir := setupRepo(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown analyzer", []string{"--exclude", "nonsense"}, "nonsense"},
		{"everything excluded", []string{"--exclude", "structure,dependency,data-flow,request-flow,api-surface"}, "no analysis tasks selected"},
		{"include and exclude", []string{"--exclude", "api", "--include", "api-surface"}, "both included and excluded"},
		{"bad format", []string{"--format", "xml"}, "unsupported format"},
		{"bad override", []string{"--set", "analysis.max_workers=many"}, "analysis.max_workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"analyze", "--repo", dir}, tt.args...)
			_, _, err := executeCommand(t, args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(tt.want)) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}

	if _, _, err := executeCommand(t, "analyze", "--repo", filepath.Join(dir, "missing")); err == nil {
		t.Error("analyze of a missing directory should fail")
	}
}

func TestGenerate(t *testing.T) {
	dir := setupRepo(t)

	out, stderr, err := executeCommand(t, "generate", "--repo", dir, "--exclude", "request-flow")
	if err != nil {
		t.Fatalf("generate failed: %v\n%s", err, stderr)
	}
	for _, p := range []string{"README.md", "CLAUDE.md", "AGENTS.md"} {
		if !strings.Contains(out, p) {
			t.Errorf("output does not mention %s:\n%s", p, out)
		}
		if _, err := os.Stat(filepath.Join(dir, p)); err != nil {
			t.Errorf("%s not written: %v", p, err)
		}
	}

	// Rules already exist and are kept by default.
	out, _, err = executeCommand(t, "rules", "--repo", dir)
	if err != nil {
		t.Fatalf("rules failed: %v", err)
	}
	if !strings.Contains(out, "kept    CLAUDE.md") {
		t.Errorf("rules output:\n%s", out)
	}
}

func TestReadme_WithoutAnalysis(t *testing.T) {
	dir := setupRepo(t)

	_, stderr, err := executeCommand(t, "readme", "--repo", dir)
	if err != nil {
		t.Fatalf("readme failed: %v", err)
	}
	if !strings.Contains(stderr, "no analysis found") {
		t.Errorf("stderr = %q", stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "README.md")); err != nil {
		t.Errorf("README.md not written: %v", err)
	}
}

func TestReport_NotFound(t *testing.T) {
	dir := setupRepo(t)
	if _, _, err := executeCommand(t, "report", "--repo", dir); err == nil {
		t.Error("report without runs should fail")
	}
	if _, _, err := executeCommand(t, "report", "--repo", dir, "--history", "some-run"); err == nil {
		t.Error("--history with a run ID should fail")
	}
}

func TestConfigCommands(t *testing.T) {
	dir := setupRepo(t)

	out, _, err := executeCommand(t, "config", "init", "--project", "--repo", dir)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	path := filepath.Join(dir, config.ProjectFileName)
	if !strings.Contains(out, path) {
		t.Errorf("init output = %q", out)
	}
	if _, _, err := executeCommand(t, "config", "init", "--project", "--repo", dir); err == nil {
		t.Error("init over an existing file should fail without --force")
	}

	if _, _, err := executeCommand(t, "config", "set", "analysis.max_workers", "3", "--project", "--repo", dir); err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	if _, _, err := executeCommand(t, "config", "set", "analysis.max_workers", "three", "--project", "--repo", dir); err == nil {
		t.Error("config set with a bad value should fail")
	}
	if _, _, err := executeCommand(t, "config", "set", "no.such.key", "1", "--project", "--repo", dir); err == nil {
		t.Error("config set with an unknown key should fail")
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("reading written config: %v", err)
	}
	if got := v.GetInt("analysis.max_workers"); got != 3 {
		t.Errorf("analysis.max_workers in file = %d, want 3", got)
	}

	out, _, err = executeCommand(t, "config", "show", "--repo", dir, "--format", "json", "--set", "server.addr=:9999")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	var shown map[string]any
	if err := json.Unmarshal([]byte(out), &shown); err != nil {
		t.Fatalf("config show output is not JSON: %v\n%s", err, out)
	}
	analysisSection, _ := shown["analysis"].(map[string]any)
	if analysisSection["max_workers"] != float64(3) {
		t.Errorf("shown max_workers = %v", analysisSection["max_workers"])
	}
	serverSection, _ := shown["server"].(map[string]any)
	if serverSection["addr"] != ":9999" {
		t.Errorf("shown server.addr = %v", serverSection["addr"])
	}

	out, _, err = executeCommand(t, "config", "path", "--repo", dir)
	if err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	if !strings.Contains(out, path+" (exists)") {
		t.Errorf("config path output:\n%s", out)
	}
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	dir := setupRepo(t)
	t.Setenv("AIDOCGEN_ANALYSIS_MAX_WORKERS", "1")

	out, _, err := executeCommand(t, "analyze", "--repo", dir, "--format", "json")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if s := decodeSummary(t, out); s.MaxWorkers != 1 {
		t.Errorf("env max workers = %d, want 1", s.MaxWorkers)
	}

	out, _, err = executeCommand(t, "analyze", "--repo", dir, "--format", "json", "--max-workers", "3")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if s := decodeSummary(t, out); s.MaxWorkers != 3 {
		t.Errorf("flag max workers = %d, want 3", s.MaxWorkers)
	}
}

func TestLogs(t *testing.T) {
	dir := setupRepo(t)
	if _, _, err := executeCommand(t, "logs", "--repo", dir); err == nil {
		t.Error("logs before any run should fail")
	}

	if _, _, err := executeCommand(t, "analyze", "--repo", dir, "--format", "json"); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	out, _, err := executeCommand(t, "logs", "--repo", dir, "--phase", "aggregate", "-n", "0")
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if !strings.Contains(out, "phase=aggregate") {
		t.Errorf("logs output:\n%s", out)
	}

	if _, _, err := executeCommand(t, "logs", "--repo", dir, "--since", "soon"); err == nil {
		t.Error("logs with a bad --since should fail")
	}
}

func TestGeneratedPaths(t *testing.T) {
	cfg := config.Default()
	got := strings.Join(generatedPaths(cfg), " ")
	for _, want := range []string{"README.md", "CLAUDE.md", "AGENTS.md", ".cursor/rules", ".ai/docs", ".ai/store", ".ai/logs"} {
		if !strings.Contains(got, want) {
			t.Errorf("generatedPaths() = %q, missing %q", got, want)
		}
	}
}

func TestVersion(t *testing.T) {
	out, _, err := executeCommand(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "aidocgen ") {
		t.Errorf("version output = %q", out)
	}
}
