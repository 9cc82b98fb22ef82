package generator

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/artifact"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/artifact/blob"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/contextbuilder"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/event"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/llm"
)

// md lets fixtures use ' where Markdown needs a backtick.
func md(s string) string { return strings.ReplaceAll(s, "'", "`") }

var fixtures = map[analysis.AnalyzerID]string{
	analysis.Structure: md(`# Code Structure

**Files:** 12  **Directories:** 6

## Languages

| Language | Files | Share |
| --- | --- | --- |
| Go | 6 | 50.0% |
| JavaScript | 3 | 25.0% |

## Top-level Components

- 'internal/' (5 files)
- 'web/' (3 files)

## Entry Points

- 'cmd/shop/main.go'

## Layout

'''
cmd/
  shop/
internal/
'''
`),
	analysis.RequestFlow: md(`# Request Flow

Requests enter through a gin/echo server.

## Entry Points

- gin/echo server at 'cmd/shop/main.go:9'

## Middleware Chain

Listed in registration order within each file.

- 'gin.Logger()' at 'internal/api/router.go:10'

## Routing

- 'internal/api/router.go': 2 route(s), e.g. GET '/orders'
`),
	analysis.APISurface: md(`# API Surface

**HTTP routes:** 2  **RPC methods:** 0  **Spec documents:** 0

## HTTP Endpoints

| Method | Path | Defined at |
| --- | --- | --- |
| GET | '/orders' | 'internal/api/router.go:12' |
| POST | '/orders' | 'internal/api/router.go:13' |
`),
	analysis.DataFlow: md(`# Data Flow

One persisted model.

## Data Models

| Model | Kind | Persisted | Defined at |
| --- | --- | --- | --- |
| 'Order' | Go struct | yes | 'internal/store/store.go:5' |

## Stores and Sinks

- **SQL database**: 2 call sites in 1 file
  - 'internal/store/store.go'
`),
	analysis.Dependency: md(`# Dependencies

## Go: example.com/shop ('go.mod')

Toolchain: go1.22

| Package | Version | Scope |
| --- | --- | --- |
| 'github.com/gin-gonic/gin' | v1.9.1 | direct |
| 'golang.org/x/net' | v0.1.0 | indirect |

## npm: web ('web/package.json')

| Package | Version | Scope |
| --- | --- | --- |
| 'express' | ^4.18.0 | direct |
`),
}

var snap = analysis.Snapshot{Root: "/repo/shop-api", ID: "shop-api"}

func newStore(t *testing.T, ids ...analysis.AnalyzerID) *artifact.Store {
	t.Helper()
	s := artifact.New(blob.NewMemoryStore())
	for _, id := range ids {
		err := s.Put(context.Background(), analysis.Artifact{
			AnalyzerID: id,
			SnapshotID: snap.Identity(),
			Content:    analysis.Content{Format: analysis.FormatMarkdown, Body: fixtures[id]},
		})
		if err != nil {
			t.Fatalf("Put(%s) error = %v", id, err)
		}
	}
	return s
}

func buildContext(t *testing.T, s *artifact.Store, required []analysis.AnalyzerID) *contextbuilder.AnalysisContext {
	t.Helper()
	ac, err := contextbuilder.New(s).Build(context.Background(), required, snap.Identity())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return ac
}

func generateOne(t *testing.T, g Generator, ac *contextbuilder.AnalysisContext) analysis.Document {
	t.Helper()
	docs, err := g.Generate(context.Background(), ac, snap)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("Generate() returned %d documents, want 1", len(docs))
	}
	return docs[0]
}

func assertContains(t *testing.T, body string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q\n---\n%s", want, body)
		}
	}
}

func assertNotContains(t *testing.T, body string, unwanted ...string) {
	t.Helper()
	for _, u := range unwanted {
		if strings.Contains(body, u) {
			t.Errorf("body unexpectedly contains %q", u)
		}
	}
}

// -----------------------------------------------------------------------------
// Facts
// -----------------------------------------------------------------------------

func TestProjectName(t *testing.T) {
	tests := []struct {
		root string
		want string
	}{
		{"/repo/shop-api", "Shop Api"},
		{"/src/my_cool.service", "My Cool Service"},
		{"/work/aidocgen", "Aidocgen"},
	}
	for _, tt := range tests {
		t.Run(tt.root, func(t *testing.T) {
			if got := ProjectName(analysis.Snapshot{Root: tt.root}); got != tt.want {
				t.Errorf("ProjectName(%q) = %q, want %q", tt.root, got, tt.want)
			}
		})
	}
}

func TestCollect(t *testing.T) {
	ac := buildContext(t, newStore(t, analysis.Universe()...), analysis.Universe())
	f := collect(ac, snap)

	if f.Files != 12 || f.Dirs != 6 {
		t.Errorf("Files, Dirs = %d, %d; want 12, 6", f.Files, f.Dirs)
	}
	if len(f.Languages) != 2 || f.Languages[0].Name != "Go" || f.Languages[0].Share != "50.0%" {
		t.Errorf("Languages = %+v", f.Languages)
	}
	if len(f.Components) != 2 || f.Components[0] != (component{Name: "internal", Files: 5}) {
		t.Errorf("Components = %+v", f.Components)
	}
	if !slices.Equal(f.EntryPoints, []string{"cmd/shop/main.go"}) {
		t.Errorf("EntryPoints = %v", f.EntryPoints)
	}
	if !slices.Equal(f.Middleware, []string{"gin.Logger()"}) {
		t.Errorf("Middleware = %v", f.Middleware)
	}
	if len(f.Routes) != 2 || f.Routes[1] != (route{Method: "POST", Path: "/orders", File: "internal/api/router.go"}) {
		t.Errorf("Routes = %+v", f.Routes)
	}
	if len(f.Models) != 1 || !f.Models[0].Persisted || f.Models[0].File != "internal/store/store.go" {
		t.Errorf("Models = %+v", f.Models)
	}
	if !slices.Equal(f.Sinks, []string{"SQL database"}) {
		t.Errorf("Sinks = %v", f.Sinks)
	}
	if len(f.Manifests) != 2 {
		t.Fatalf("Manifests = %+v", f.Manifests)
	}
	if f.Manifests[0].Path != "go.mod" || !slices.Equal(f.Manifests[0].Direct, []string{"github.com/gin-gonic/gin"}) {
		t.Errorf("Manifests[0] = %+v", f.Manifests[0])
	}
	if f.Manifests[1].Ecosystem != "npm" || f.Manifests[1].Path != "web/package.json" {
		t.Errorf("Manifests[1] = %+v", f.Manifests[1])
	}

	want := "Shop Api contains 12 files in 6 directories, written mainly in Go (50.0%) and JavaScript (25.0%). " +
		"Requests enter through a gin/echo server."
	if got := f.summary(); got != want {
		t.Errorf("summary() = %q\nwant %q", got, want)
	}
}

func TestCollect_EmptyContext(t *testing.T) {
	ac := buildContext(t, newStore(t), analysis.Universe())
	f := collect(ac, snap)
	if got := f.summary(); got != "Shop Api is a source repository." {
		t.Errorf("summary() = %q", got)
	}
	if len(f.commands()) != 0 {
		t.Errorf("commands() = %v, want none", f.commands())
	}
}

func TestCommands(t *testing.T) {
	f := facts{Manifests: []manifest{
		{Ecosystem: "Go", Path: "go.mod"},
		{Ecosystem: "npm", Path: "web/package.json"},
		{Ecosystem: "Python", Path: "worker/requirements.txt"},
		{Ecosystem: "Python", Path: "worker/pyproject.toml"},
		{Ecosystem: "Rust", Path: "engine/Cargo.toml"},
	}}
	want := []command{
		{"Build", "go build ./..."},
		{"Test", "go test ./..."},
		{"Vet", "go vet ./..."},
		{"Install", "cd web && npm install"},
		{"Test", "cd web && npm test"},
		{"Install", "cd worker && pip install -r requirements.txt"},
		{"Test", "cd worker && pytest"},
		{"Install", "cd worker && pip install -e ."},
		{"Build", "cd engine && cargo build"},
		{"Test", "cd engine && cargo test"},
	}
	if got := f.commands(); !slices.Equal(got, want) {
		t.Errorf("commands() =\n%v\nwant\n%v", got, want)
	}
}

// -----------------------------------------------------------------------------
// Markdown helpers
// -----------------------------------------------------------------------------

func TestSection(t *testing.T) {
	body := fixtures[analysis.Structure]
	if got := section(body, "Entry Points"); got != "- `cmd/shop/main.go`" {
		t.Errorf("section(Entry Points) = %q", got)
	}
	if got := section(body, "Layout"); !strings.HasPrefix(got, "```") || !strings.HasSuffix(got, "```") {
		t.Errorf("section(Layout) = %q", got)
	}
	if got := section(body, "Nope"); got != "" {
		t.Errorf("section(Nope) = %q", got)
	}
}

func TestDemote_SkipsCodeFences(t *testing.T) {
	in := "## A\n\n```\n# not a heading\n```\n\n### B"
	want := "### A\n\n```\n# not a heading\n```\n\n#### B"
	if got := demote(in, 1); got != want {
		t.Errorf("demote() = %q, want %q", got, want)
	}
}

func TestTableRows_EscapedPipes(t *testing.T) {
	rows := tableRows("| A | B |\n| --- | --- |\n| x \\| y | z |\n\nafter")
	if len(rows) != 1 || rows[0][0] != "x | y" || rows[0][1] != "z" {
		t.Errorf("tableRows() = %q", rows)
	}
}

func TestAnchor(t *testing.T) {
	tests := map[string]string{
		"Project Overview":             "project-overview",
		"C4 Model":                     "c4-model",
		"Known Issues and Limitations": "known-issues-and-limitations",
		"API (v2) & more":              "api-v2--more",
	}
	for in, want := range tests {
		if got := anchor(in); got != want {
			t.Errorf("anchor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncateLines(t *testing.T) {
	in := "1\n2\n3\n4\n5\n"
	got, cut := truncateLines(in, 3)
	if !cut {
		t.Fatal("truncateLines() did not truncate")
	}
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 3 || lines[0] != "1" || lines[1] != "2" || !strings.Contains(lines[2], "3 lines omitted") {
		t.Errorf("truncateLines() = %q", got)
	}

	if got, cut := truncateLines(in, 5); cut || got != in {
		t.Errorf("truncateLines(at limit) = %q, %v", got, cut)
	}
}

func TestMerge(t *testing.T) {
	block := BeginMarker + "\n\nnew\n\n" + EndMarker + "\n"
	tests := []struct {
		name     string
		existing string
		want     string
	}{
		{
			name:     "no existing file",
			existing: "",
			want:     "# Shop Api\n\n" + block,
		},
		{
			name:     "replaces previous block",
			existing: "# Mine\n\nIntro\n\n" + BeginMarker + "\nold\n" + EndMarker + "\n\nFooter\n",
			want:     "# Mine\n\nIntro\n\n" + block + "\nFooter\n",
		},
		{
			name:     "appends when no markers",
			existing: "# Mine\n\nHand-written.\n\n",
			want:     "# Mine\n\nHand-written.\n\n" + block,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := merge(tt.existing, block, "Shop Api"); got != tt.want {
				t.Errorf("merge() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// README
// -----------------------------------------------------------------------------

func TestReadme_AllSections(t *testing.T) {
	g, err := NewReadme(ReadmeOptions{Fs: afero.NewMemMapFs(), DocsDir: ".ai/docs"})
	if err != nil {
		t.Fatalf("NewReadme() error = %v", err)
	}
	if got := g.Required(); !slices.Equal(got, analysis.Universe()) {
		t.Errorf("Required() = %v, want every analyzer", got)
	}

	d := generateOne(t, g, buildContext(t, newStore(t, analysis.Universe()...), g.Required()))
	if d.Path != "README.md" || d.Generator != KindReadme || len(d.Missing) != 0 {
		t.Errorf("document = %+v", d)
	}
	if !strings.HasPrefix(d.Body, "# Shop Api\n\n"+BeginMarker+"\n\n## Project Overview\n\nShop Api contains 12 files") {
		t.Errorf("unexpected start of README:\n%s", d.Body)
	}
	if !strings.HasSuffix(d.Body, EndMarker+"\n") {
		t.Error("README does not end with the end marker")
	}

	titles := []string{
		"## Project Overview", "## Table of Contents", "## Architecture", "## C4 Model",
		"## Repository Structure", "## Dependencies and Integration", "## API Documentation",
		"## Development Notes", "## Known Issues and Limitations", "## Additional Documentation",
	}
	last := -1
	for _, title := range titles {
		i := strings.Index(d.Body, title+"\n")
		if i < 0 {
			t.Errorf("missing %q", title)
			continue
		}
		if i < last {
			t.Errorf("%q is out of order", title)
		}
		last = i
	}

	assertContains(t, d.Body,
		"- [C4 Model](#c4-model)",
		"- [Dependencies and Integration](#dependencies-and-integration)",
		"### Components\n\n- `internal/` (5 files)",
		"#### Middleware Chain",
		"```mermaid\nC4Container",
		`Container(c_internal, "internal", "", "5 files")`,
		`SystemDb_Ext(ext_SQL_database, "SQL database")`,
		`Rel(client, system_Shop_Api, "Sends requests")`,
		"### Languages\n\n| Language | Files | Share |",
		"### Go: example.com/shop (`go.mod`)",
		"### External Integrations\n\n- **SQL database**",
		"### HTTP Endpoints",
		"### Middleware\n\n- `gin.Logger()`",
		"Install: `cd web && npm install`",
		"- Routes, models and integrations are detected by source patterns",
		"[structure analysis](.ai/docs/structure.md)",
	)
	assertNotContains(t, d.Body, Unavailable, "- [Table of Contents]")
}

func TestReadme_DegradedNote(t *testing.T) {
	g, err := NewReadme(ReadmeOptions{Fs: afero.NewMemMapFs()})
	if err != nil {
		t.Fatalf("NewReadme() error = %v", err)
	}
	d := generateOne(t, g, buildContext(t, newStore(t, analysis.Structure), g.Required()))

	wantMissing := []analysis.AnalyzerID{analysis.APISurface, analysis.DataFlow, analysis.Dependency, analysis.RequestFlow}
	if !slices.Equal(d.Missing, wantMissing) {
		t.Errorf("Missing = %v, want %v", d.Missing, wantMissing)
	}
	assertContains(t, d.Body,
		"## Architecture\n\n"+Unavailable+": `request-flow` (not analyzed).",
		"## API Documentation\n\n"+Unavailable+": `api-surface` (not analyzed).",
		"## Development Notes\n\n"+Unavailable+": `dependency` (not analyzed).",
		"## C4 Model\n\n```mermaid",
		"- The `data-flow` analysis is unavailable (not analyzed).",
	)
	assertNotContains(t, d.Body, "Person(client", "## Additional Documentation")
}

func TestReadme_DegradedOmit(t *testing.T) {
	g, err := NewReadme(ReadmeOptions{Fs: afero.NewMemMapFs(), OmitDegraded: true})
	if err != nil {
		t.Fatalf("NewReadme() error = %v", err)
	}
	d := generateOne(t, g, buildContext(t, newStore(t, analysis.Structure), g.Required()))

	assertNotContains(t, d.Body, Unavailable, "## Architecture", "## API Documentation", "(#architecture)")
	assertContains(t, d.Body, "## Project Overview", "## Repository Structure", "- [C4 Model](#c4-model)")
}

func TestReadme_ExcludeSections(t *testing.T) {
	g, err := NewReadme(ReadmeOptions{
		Fs:              afero.NewMemMapFs(),
		ExcludeSections: []string{SectionTOC, SectionC4, SectionAPI, SectionArchitecture},
	})
	if err != nil {
		t.Fatalf("NewReadme() error = %v", err)
	}
	if slices.Contains(g.Required(), analysis.APISurface) {
		t.Errorf("Required() = %v, api-surface is only read by excluded sections", g.Required())
	}
	d := generateOne(t, g, buildContext(t, newStore(t, analysis.Universe()...), g.Required()))
	assertNotContains(t, d.Body, "## Table of Contents", "## C4 Model", "## API Documentation", "## Architecture")
	assertContains(t, d.Body, "## Repository Structure")

	_, err = NewReadme(ReadmeOptions{ExcludeSections: []string{"changelog"}})
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("NewReadme(unknown section) error = %v, want invalid input", err)
	}
}

func TestReadme_UseExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	existing := "# Shop\n\nHand-written intro.\n\n" + BeginMarker + "\nstale\n" + EndMarker + "\n\n## License\n\nMIT\n"
	if err := afero.WriteFile(fs, "/repo/shop-api/README.md", []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	g, err := NewReadme(ReadmeOptions{Fs: fs, UseExisting: true})
	if err != nil {
		t.Fatalf("NewReadme() error = %v", err)
	}
	d := generateOne(t, g, buildContext(t, newStore(t, analysis.Universe()...), g.Required()))

	if !strings.HasPrefix(d.Body, "# Shop\n\nHand-written intro.\n\n"+BeginMarker) {
		t.Errorf("hand-written header not preserved:\n%s", d.Body)
	}
	if !strings.HasSuffix(d.Body, EndMarker+"\n\n## License\n\nMIT\n") {
		t.Errorf("hand-written footer not preserved:\n%s", d.Body)
	}
	assertNotContains(t, d.Body, "stale", "# Shop Api")

	// Without use_existing the file is replaced.
	g, _ = NewReadme(ReadmeOptions{Fs: fs})
	d = generateOne(t, g, buildContext(t, newStore(t, analysis.Universe()...), g.Required()))
	assertNotContains(t, d.Body, "Hand-written intro.")
}

func TestReadme_Writer(t *testing.T) {
	client := llm.NewFakeClient(func(llm.Request) (string, error) { return "  Drafted overview.\n", nil })
	g, err := NewReadme(ReadmeOptions{
		Fs:           afero.NewMemMapFs(),
		Writer:       client,
		WriterConfig: analysis.TaskConfig{Model: "m", MaxTokens: 512, Temperature: 0.2},
	})
	if err != nil {
		t.Fatalf("NewReadme() error = %v", err)
	}
	d := generateOne(t, g, buildContext(t, newStore(t, analysis.Universe()...), g.Required()))
	assertContains(t, d.Body, "## Project Overview\n\nDrafted overview.\n\n## Table of Contents")

	calls := client.Calls()
	if len(calls) != 1 {
		t.Fatalf("writer called %d times, want 1", len(calls))
	}
	req := calls[0]
	if req.System != overviewSystem || req.Model != "m" || req.MaxTokens != 512 || req.Temperature != 0.2 {
		t.Errorf("request = %+v", req)
	}
	if !strings.Contains(req.Prompt, "--- structure analysis ---") || !strings.Contains(req.Prompt, "Project: Shop Api") {
		t.Errorf("prompt = %q", req.Prompt)
	}
}

func TestReadme_WriterFailureFallsBack(t *testing.T) {
	client := llm.NewFakeClient(func(llm.Request) (string, error) { return "", errors.New("quota exceeded") })
	g, err := NewReadme(ReadmeOptions{Fs: afero.NewMemMapFs(), Writer: client})
	if err != nil {
		t.Fatalf("NewReadme() error = %v", err)
	}
	d := generateOne(t, g, buildContext(t, newStore(t, analysis.Universe()...), g.Required()))
	assertContains(t, d.Body, "## Project Overview\n\nShop Api contains 12 files")
}

// -----------------------------------------------------------------------------
// Rules
// -----------------------------------------------------------------------------

func newRules(t *testing.T, opts RulesOptions) *RulesGenerator {
	t.Helper()
	if opts.Fs == nil {
		opts.Fs = afero.NewMemMapFs()
	}
	g, err := NewRules(opts)
	if err != nil {
		t.Fatalf("NewRules() error = %v", err)
	}
	return g
}

func generateRules(t *testing.T, g *RulesGenerator, ids ...analysis.AnalyzerID) map[string]analysis.Document {
	t.Helper()
	docs, err := g.Generate(context.Background(), buildContext(t, newStore(t, ids...), g.Required()), snap)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	out := make(map[string]analysis.Document, len(docs))
	for _, d := range docs {
		if d.Generator != KindRules {
			t.Errorf("%s: Generator = %q", d.Path, d.Generator)
		}
		out[d.Path] = d
	}
	return out
}

func TestRules_Standard(t *testing.T) {
	g := newRules(t, RulesOptions{MaxClaudeLines: 500, MaxAgentsLines: 150})
	docs := generateRules(t, g, analysis.Universe()...)

	for _, p := range []string{"CLAUDE.md", "AGENTS.md", ".cursor/rules/project.mdc", ".cursor/rules/api.mdc", ".cursor/rules/data.mdc"} {
		if _, ok := docs[p]; !ok {
			t.Errorf("missing document %s", p)
		}
	}

	claude := docs["CLAUDE.md"].Body
	assertContains(t, claude,
		"# CLAUDE.md\n\n",
		"## Project Overview\n\nShop Api contains 12 files",
		"- Test: `go test ./...`",
		"### Entry Points\n\n- `cmd/shop/main.go`",
		"## API\n\n- `GET /orders` in `internal/api/router.go`",
		"- `Order` (Go struct) in `internal/store/store.go`, persisted",
		"Integrations: SQL database.",
		"- Go (`go.mod`): `github.com/gin-gonic/gin`",
		"- npm (`web/package.json`): `express`",
		"- Run `go test ./...` before committing.",
	)
	assertNotContains(t, claude, "## Reference", "## Missing Analyses", "golang.org/x/net")

	agents := docs["AGENTS.md"].Body
	assertContains(t, agents, "# AGENTS.md", "## Setup and Commands", "## Project Layout", "exposes 2 HTTP routes")

	project := docs[".cursor/rules/project.mdc"].Body
	if !strings.HasPrefix(project, "---\ndescription: Project overview and conventions for Shop Api\nglobs: \nalwaysApply: true\n---\n\n# Shop Api") {
		t.Errorf("project.mdc =\n%s", project)
	}
	api := docs[".cursor/rules/api.mdc"].Body
	if !strings.HasPrefix(api, "---\ndescription: HTTP routes and handlers of Shop Api\nglobs: internal/api/router.go\nalwaysApply: false\n---\n\n# HTTP API") {
		t.Errorf("api.mdc =\n%s", api)
	}
	assertContains(t, api, "Middleware: `gin.Logger()`.")
	assertContains(t, docs[".cursor/rules/data.mdc"].Body, "globs: internal/store/store.go\n")
}

func TestRules_DetailLevels(t *testing.T) {
	minimal := generateRules(t, newRules(t, RulesOptions{DetailLevel: analysis.DetailMinimal}), analysis.Universe()...)
	if len(minimal) != 3 {
		t.Errorf("minimal produced %d documents, want CLAUDE.md, AGENTS.md and project.mdc", len(minimal))
	}
	assertNotContains(t, minimal["CLAUDE.md"].Body, "## API", "## Key Dependencies", "### Entry Points")

	full := generateRules(t, newRules(t, RulesOptions{DetailLevel: analysis.DetailComprehensive}), analysis.Universe()...)
	assertContains(t, full["CLAUDE.md"].Body, "## Reference", "### structure\n\n**Files:** 12", "#### Languages")

	_, err := NewRules(RulesOptions{DetailLevel: "verbose"})
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("NewRules(verbose) error = %v, want invalid input", err)
	}
	_, err = NewRules(RulesOptions{Targets: []string{"copilot"}})
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("NewRules(copilot) error = %v, want invalid input", err)
	}
}

func TestRules_LineCaps(t *testing.T) {
	g := newRules(t, RulesOptions{DetailLevel: analysis.DetailComprehensive, MaxClaudeLines: 10, MaxAgentsLines: 12})
	docs := generateRules(t, g, analysis.Universe()...)

	for path, limit := range map[string]int{"CLAUDE.md": 10, "AGENTS.md": 12} {
		body := docs[path].Body
		if n := strings.Count(body, "\n"); n != limit {
			t.Errorf("%s has %d lines, want %d", path, n, limit)
		}
		lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
		if !strings.Contains(lines[len(lines)-1], "lines omitted") {
			t.Errorf("%s last line = %q", path, lines[len(lines)-1])
		}
	}
}

func TestRules_TargetsAndMissing(t *testing.T) {
	g := newRules(t, RulesOptions{Targets: []string{TargetAgents}})
	docs := generateRules(t, g, analysis.Structure)
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want AGENTS.md only", len(docs))
	}
	d := docs["AGENTS.md"]
	if len(d.Missing) != 4 {
		t.Errorf("Missing = %v", d.Missing)
	}
	assertContains(t, d.Body, "## Missing Analyses", "- `dependency`: not analyzed", "No build manifests were detected.")
}

func TestRules_SkipExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/repo/shop-api/CLAUDE.md", []byte("mine\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/repo/shop-api/AGENTS.md", []byte("mine\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	g := newRules(t, RulesOptions{Fs: fs, SkipExisting: map[string]bool{TargetClaude: true}})
	docs, err := g.Generate(context.Background(), buildContext(t, newStore(t, analysis.Universe()...), g.Required()), snap)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	w := NewWriter(fs, nil, nil, nil)
	if err := w.Write(context.Background(), snap, docs); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	claude, _ := afero.ReadFile(fs, "/repo/shop-api/CLAUDE.md")
	if string(claude) != "mine\n" {
		t.Errorf("CLAUDE.md was overwritten: %q", claude)
	}
	agents, _ := afero.ReadFile(fs, "/repo/shop-api/AGENTS.md")
	if !strings.HasPrefix(string(agents), "# AGENTS.md") {
		t.Errorf("AGENTS.md = %q, want regenerated", agents)
	}
	for _, d := range docs {
		if d.Path == "CLAUDE.md" && (!d.Skipped || d.Body != "") {
			t.Errorf("CLAUDE.md document = %+v, want skipped", d)
		}
	}
}

// -----------------------------------------------------------------------------
// Writer and Run
// -----------------------------------------------------------------------------

type recorder struct {
	events []event.Event
}

func (r *recorder) Publish(e event.Event) { r.events = append(r.events, e) }

func TestWriter_Write(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := artifact.New(blob.NewMemoryStore())
	rec := &recorder{}
	w := NewWriter(fs, store, rec, nil)

	docs := []analysis.Document{
		{Generator: KindReadme, Path: "README.md", Body: "readme\n"},
		{Generator: KindRules, Path: ".cursor/rules/project.mdc", Body: "rule\n", Missing: []analysis.AnalyzerID{analysis.DataFlow}},
		{Generator: KindRules, Path: "CLAUDE.md", Skipped: true},
	}
	if err := w.Write(context.Background(), snap, docs); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := afero.ReadFile(fs, "/repo/shop-api/.cursor/rules/project.mdc")
	if err != nil || string(got) != "rule\n" {
		t.Errorf("project.mdc = %q, %v", got, err)
	}
	if ok, _ := afero.Exists(fs, "/repo/shop-api/CLAUDE.md"); ok {
		t.Error("skipped document was written")
	}

	stored, err := store.Documents(context.Background(), snap.Identity())
	if err != nil {
		t.Fatalf("Documents() error = %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("stored %d documents, want 3", len(stored))
	}
	for _, d := range stored {
		if d.SnapshotID != snap.Identity() || d.CreatedAt.IsZero() {
			t.Errorf("stored document = %+v", d)
		}
	}

	if len(rec.events) != 3 {
		t.Fatalf("published %d events, want 3", len(rec.events))
	}
	ev, ok := rec.events[1].(event.DocumentGeneratedEvent)
	if !ok || ev.Path != ".cursor/rules/project.mdc" || len(ev.Missing) != 1 {
		t.Errorf("event = %#v", rec.events[1])
	}
	if ev, _ := rec.events[2].(event.DocumentGeneratedEvent); !ev.Skipped {
		t.Error("skipped document event not marked skipped")
	}
}

func TestWriter_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewWriter(afero.NewMemMapFs(), nil, nil, nil).Write(ctx, snap, []analysis.Document{{Generator: KindReadme, Path: "README.md"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Write() error = %v, want context.Canceled", err)
	}
}

func TestRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := newStore(t, analysis.Universe()...)
	readme, err := NewReadme(ReadmeOptions{Fs: fs})
	if err != nil {
		t.Fatal(err)
	}
	rules := newRules(t, RulesOptions{Fs: fs, Targets: []string{TargetClaude}})

	docs, err := Run(context.Background(), contextbuilder.New(store), NewWriter(fs, store, nil, nil), snap, readme, rules)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(docs) != 2 || docs[0].Path != "README.md" || docs[1].Path != "CLAUDE.md" {
		t.Errorf("Run() documents = %v", docs)
	}
	for _, p := range []string{"/repo/shop-api/README.md", "/repo/shop-api/CLAUDE.md"} {
		if ok, _ := afero.Exists(fs, p); !ok {
			t.Errorf("%s not written", p)
		}
	}
	stored, _ := store.Documents(context.Background(), snap.Identity())
	if len(stored) != 2 {
		t.Errorf("stored %d documents, want 2", len(stored))
	}
}

func TestKindsAndSectionKeys(t *testing.T) {
	if !slices.Equal(Kinds(), []string{KindReadme, KindRules}) {
		t.Errorf("Kinds() = %v", Kinds())
	}
	keys := SectionKeys()
	if len(keys) != 10 || keys[0] != SectionOverview || keys[9] != SectionAdditional {
		t.Errorf("SectionKeys() = %v", keys)
	}
}
