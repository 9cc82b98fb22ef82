package generator

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/config"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/contextbuilder"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/llm"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/logging"
)

// README section keys, in document order.
const (
	SectionOverview     = "overview"
	SectionTOC          = "toc"
	SectionArchitecture = "architecture"
	SectionC4           = "c4"
	SectionStructure    = "structure"
	SectionDependencies = "dependencies"
	SectionAPI          = "api"
	SectionDevelopment  = "development"
	SectionKnownIssues  = "known-issues"
	SectionAdditional   = "additional"
)

// Markers delimit the generated block of a README.
const (
	BeginMarker = "<!-- aidocgen:begin -->"
	EndMarker   = "<!-- aidocgen:end -->"
)

// Unavailable is rendered in place of a section whose analyses are missing.
const Unavailable = "_Analysis unavailable_"

// SectionKeys returns every README section key in document order.
func SectionKeys() []string {
	keys := make([]string, len(readmeSections))
	for i, s := range readmeSections {
		keys[i] = s.key
	}
	return keys
}

// ReadmeOptions configures a ReadmeGenerator.
type ReadmeOptions struct {
	Fs afero.Fs
	// Output is the README path relative to the repository root.
	Output string
	// UseExisting keeps hand-written content outside the generated block.
	UseExisting     bool
	ExcludeSections []string
	// OmitDegraded drops sections whose analyses are missing instead of
	// rendering a placeholder.
	OmitDegraded bool
	// DocsDir, relative to the repository root, is linked from the
	// additional documentation section. Empty disables the links.
	DocsDir string
	// Writer drafts the overview when set.
	Writer       llm.Client
	WriterConfig analysis.TaskConfig
	Logger       *logging.Logger
}

// ReadmeOptionsFromConfig maps the readme and analysis config sections onto
// ReadmeOptions.
func ReadmeOptionsFromConfig(cfg *config.Config, fs afero.Fs, writer llm.Client) ReadmeOptions {
	opts := ReadmeOptions{
		Fs:              fs,
		Output:          cfg.Readme.Output,
		UseExisting:     cfg.Readme.UseExisting,
		ExcludeSections: cfg.Readme.ExcludeSections,
		OmitDegraded:    cfg.Readme.Degraded == "omit",
		Writer:          writer,
		WriterConfig:    cfg.Analysis.Defaults.Merge(cfg.Readme.Writer),
	}
	if cfg.Analysis.ExportDocs {
		opts.DocsDir = cfg.Analysis.DocsDir
	}
	return opts
}

// ReadmeGenerator renders README.md from the analysis reports.
type ReadmeGenerator struct {
	opts     ReadmeOptions
	sections []readmeSection
	logger   *logging.Logger
}

type readmeSection struct {
	key   string
	title string
	// requires must all be present or the section is degraded.
	requires []analysis.AnalyzerID
	// uses are read when present.
	uses   []analysis.AnalyzerID
	render func(ctx context.Context, r *readmeRender) (string, error)
}

type readmeRender struct {
	g    *ReadmeGenerator
	ac   *contextbuilder.AnalysisContext
	snap analysis.Snapshot
	f    facts
}

var readmeSections = []readmeSection{
	{key: SectionOverview, title: "Project Overview", requires: ids(analysis.Structure), uses: ids(analysis.RequestFlow, analysis.Dependency), render: renderOverview},
	{key: SectionTOC, title: "Table of Contents"},
	{key: SectionArchitecture, title: "Architecture", requires: ids(analysis.Structure, analysis.RequestFlow), render: renderArchitecture},
	{key: SectionC4, title: "C4 Model", requires: ids(analysis.Structure), uses: ids(analysis.RequestFlow, analysis.DataFlow), render: renderC4},
	{key: SectionStructure, title: "Repository Structure", requires: ids(analysis.Structure), render: renderStructure},
	{key: SectionDependencies, title: "Dependencies and Integration", requires: ids(analysis.Dependency), uses: ids(analysis.DataFlow), render: renderDependencies},
	{key: SectionAPI, title: "API Documentation", requires: ids(analysis.APISurface), uses: ids(analysis.RequestFlow), render: renderAPI},
	{key: SectionDevelopment, title: "Development Notes", requires: ids(analysis.Dependency), render: renderDevelopment},
	{key: SectionKnownIssues, title: "Known Issues and Limitations", uses: ids(analysis.Dependency), render: renderKnownIssues},
	{key: SectionAdditional, title: "Additional Documentation", render: renderAdditional},
}

func ids(v ...analysis.AnalyzerID) []analysis.AnalyzerID { return v }

// NewReadme creates a ReadmeGenerator. Unknown section keys in
// ExcludeSections are a validation error.
func NewReadme(opts ReadmeOptions) (*ReadmeGenerator, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Output == "" {
		opts.Output = "README.md"
	}
	g := &ReadmeGenerator{opts: opts, logger: opts.Logger}
	if g.logger == nil {
		g.logger = logging.NopLogger()
	}

	keys := SectionKeys()
	for _, k := range opts.ExcludeSections {
		if !slices.Contains(keys, k) {
			return nil, errors.NewValidationError("readme.exclude_sections", k,
				"must be one of: "+strings.Join(keys, ", "))
		}
	}
	for _, s := range readmeSections {
		if !slices.Contains(opts.ExcludeSections, s.key) {
			g.sections = append(g.sections, s)
		}
	}
	return g, nil
}

func (g *ReadmeGenerator) Name() string { return KindReadme }

// Required returns every analyzer an enabled section reads.
func (g *ReadmeGenerator) Required() []analysis.AnalyzerID {
	var out []analysis.AnalyzerID
	for _, s := range g.sections {
		out = append(out, s.requires...)
		out = append(out, s.uses...)
	}
	analysis.SortIDs(out)
	return slices.Compact(out)
}

func (g *ReadmeGenerator) Generate(ctx context.Context, ac *contextbuilder.AnalysisContext, snap analysis.Snapshot) ([]analysis.Document, error) {
	r := &readmeRender{g: g, ac: ac, snap: snap, f: collect(ac, snap)}

	type rendered struct {
		key, title, body string
	}
	var out []rendered
	for _, s := range g.sections {
		if s.render == nil {
			out = append(out, rendered{key: s.key, title: s.title})
			continue
		}
		if missing := absent(ac, s.requires); len(missing) > 0 {
			if g.opts.OmitDegraded {
				continue
			}
			out = append(out, rendered{key: s.key, title: s.title, body: unavailable(ac, missing)})
			continue
		}
		body, err := s.render(ctx, r)
		if err != nil {
			return nil, errors.Wrapf(err, "section %s", s.key)
		}
		if strings.TrimSpace(body) == "" {
			continue
		}
		out = append(out, rendered{key: s.key, title: s.title, body: body})
	}

	var toc []string
	for _, s := range out {
		if s.key != SectionTOC {
			toc = append(toc, fmt.Sprintf("[%s](#%s)", s.title, anchor(s.title)))
		}
	}

	var w writer
	for _, s := range out {
		if s.key == SectionTOC {
			if len(toc) == 0 {
				continue
			}
			w.heading(2, s.title)
			w.list(toc)
			continue
		}
		w.heading(2, s.title)
		w.block(s.body)
	}
	block := BeginMarker + "\n\n" + strings.TrimSpace(w.String()) + "\n\n" + EndMarker + "\n"

	existing, err := g.existing(snap)
	if err != nil {
		return nil, err
	}
	return []analysis.Document{{
		Generator: KindReadme,
		Path:      filepath.ToSlash(g.opts.Output),
		Body:      merge(existing, block, r.f.Name),
		Missing:   ac.Missing(),
	}}, nil
}

func (g *ReadmeGenerator) existing(snap analysis.Snapshot) (string, error) {
	if !g.opts.UseExisting {
		return "", nil
	}
	target := filepath.Join(snap.Root, filepath.FromSlash(g.opts.Output))
	if ok, _ := afero.Exists(g.opts.Fs, target); !ok {
		return "", nil
	}
	data, err := afero.ReadFile(g.opts.Fs, target)
	if err != nil {
		return "", errors.Wrap(err, "failed to read existing README")
	}
	return string(data), nil
}

// merge places the generated block into an existing README. A previous
// block is replaced in place; otherwise the block is appended.
func merge(existing, block, name string) string {
	if strings.TrimSpace(existing) == "" {
		return "# " + name + "\n\n" + block
	}
	begin := strings.Index(existing, BeginMarker)
	end := strings.Index(existing, EndMarker)
	if begin >= 0 && end > begin {
		rest := existing[end+len(EndMarker):]
		rest = strings.TrimPrefix(rest, "\n")
		return existing[:begin] + block + rest
	}
	return strings.TrimRight(existing, "\n") + "\n\n" + block
}

func absent(ac *contextbuilder.AnalysisContext, required []analysis.AnalyzerID) []analysis.AnalyzerID {
	var out []analysis.AnalyzerID
	for _, id := range required {
		if !ac.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

func unavailable(ac *contextbuilder.AnalysisContext, missing []analysis.AnalyzerID) string {
	parts := make([]string, len(missing))
	for i, id := range missing {
		reason := ac.Reason(id)
		if reason == "" {
			reason = contextbuilder.ReasonNotAnalyzed
		}
		parts[i] = fmt.Sprintf("`%s` (%s)", id, reason)
	}
	return Unavailable + ": " + strings.Join(parts, ", ") + "."
}

const overviewSystem = "You write the overview section of a README. Write two or three short paragraphs " +
	"of plain Markdown without headings. Describe what the project is and how it is built, using only the facts provided."

func renderOverview(ctx context.Context, r *readmeRender) (string, error) {
	summary := r.f.summary()
	client := r.g.opts.Writer
	if client == nil {
		return summary, nil
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Project: %s\n\nSummary: %s\n", r.f.Name, summary)
	for _, id := range r.ac.IDs() {
		fmt.Fprintf(&prompt, "\n--- %s analysis ---\n%s\n", id, r.ac.Body(id))
	}
	cfg := r.g.opts.WriterConfig
	out, err := client.Generate(ctx, llm.Request{
		System:      overviewSystem,
		Prompt:      prompt.String(),
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		r.g.logger.WithPhase("generate").Warn("overview writer failed, using derived summary",
			"client", llm.Describe(client), "error", err)
		return summary, nil
	}
	return strings.TrimSpace(out), nil
}

func renderArchitecture(_ context.Context, r *readmeRender) (string, error) {
	var w writer
	structure := r.ac.Body(analysis.Structure)

	w.heading(3, "Components")
	if len(r.f.Components) > 0 {
		items := make([]string, len(r.f.Components))
		for i, c := range r.f.Components {
			items[i] = fmt.Sprintf("`%s/` (%d files)", c.Name, c.Files)
		}
		w.list(items)
	} else {
		w.block(sectionOr(structure, "Top-level Components", 2))
	}

	if len(r.f.EntryPoints) > 0 {
		w.heading(3, "Entry Points")
		items := make([]string, len(r.f.EntryPoints))
		for i, e := range r.f.EntryPoints {
			items[i] = "`" + e + "`"
		}
		w.list(items)
	}

	w.heading(3, "Request Handling")
	w.block(embed(r.ac.Body(analysis.RequestFlow), 2))
	return w.String(), nil
}

var nonIdent = regexp.MustCompile(`[^A-Za-z0-9_]+`)

func c4ID(prefix, name string) string {
	return prefix + "_" + strings.Trim(nonIdent.ReplaceAllString(name, "_"), "_")
}

// storeKinds are the sinks drawn as databases.
var storeKinds = []string{"SQL database", "ORM", "Document store", "Cache", "Object storage"}

const maxC4Containers = 12

func renderC4(_ context.Context, r *readmeRender) (string, error) {
	f := r.f
	system := c4ID("system", f.Name)

	var sb strings.Builder
	sb.WriteString("```mermaid\nC4Container\n")
	fmt.Fprintf(&sb, "    title Container diagram for %s\n", f.Name)
	serves := len(f.Routes) > 0 || (f.FlowSummary != "" && !strings.Contains(f.FlowSummary, "does not appear"))
	if serves {
		sb.WriteString("    Person(client, \"Client\", \"Calls the service\")\n")
	}
	fmt.Fprintf(&sb, "    System_Boundary(%s, %q) {\n", system, f.Name)
	containers := f.Components[:min(len(f.Components), maxC4Containers)]
	if len(containers) == 0 {
		fmt.Fprintf(&sb, "        Container(%s, %q, \"\", \"Repository root\")\n", c4ID("c", "root"), f.Name)
	}
	for _, c := range containers {
		fmt.Fprintf(&sb, "        Container(%s, %q, \"\", \"%d files\")\n", c4ID("c", c.Name), c.Name, c.Files)
	}
	sb.WriteString("    }\n")

	for _, k := range f.Sinks {
		shape := "System_Ext"
		if slices.Contains(storeKinds, k) {
			shape = "SystemDb_Ext"
		}
		fmt.Fprintf(&sb, "    %s(%s, %q)\n", shape, c4ID("ext", k), k)
	}
	if serves {
		fmt.Fprintf(&sb, "    Rel(client, %s, \"Sends requests\")\n", system)
	}
	for _, k := range f.Sinks {
		fmt.Fprintf(&sb, "    Rel(%s, %s, \"Uses\")\n", system, c4ID("ext", k))
	}
	sb.WriteString("```")

	if len(f.Components) > maxC4Containers {
		fmt.Fprintf(&sb, "\n\n_%d smaller components not shown._", len(f.Components)-maxC4Containers)
	}
	return sb.String(), nil
}

func renderStructure(_ context.Context, r *readmeRender) (string, error) {
	body := r.ac.Body(analysis.Structure)
	langs, layout := section(body, "Languages"), section(body, "Layout")
	if langs == "" && layout == "" {
		return embed(body, 1), nil
	}
	var w writer
	if langs != "" {
		w.heading(3, "Languages")
		w.block(langs)
	}
	if layout != "" {
		w.heading(3, "Layout")
		w.block(layout)
	}
	return w.String(), nil
}

func renderDependencies(_ context.Context, r *readmeRender) (string, error) {
	var w writer
	w.block(embed(r.ac.Body(analysis.Dependency), 1))
	if r.ac.Has(analysis.DataFlow) {
		if sinks := section(r.ac.Body(analysis.DataFlow), "Stores and Sinks"); sinks != "" {
			w.heading(3, "External Integrations")
			w.block(sinks)
		}
	}
	return w.String(), nil
}

func renderAPI(_ context.Context, r *readmeRender) (string, error) {
	var w writer
	w.block(embed(r.ac.Body(analysis.APISurface), 1))
	if len(r.f.Middleware) > 0 {
		w.heading(3, "Middleware")
		items := make([]string, len(r.f.Middleware))
		for i, m := range r.f.Middleware {
			items[i] = "`" + m + "`"
		}
		w.list(items)
	}
	return w.String(), nil
}

func renderDevelopment(_ context.Context, r *readmeRender) (string, error) {
	var w writer
	w.heading(3, "Commands")
	cmds := r.f.commands()
	if len(cmds) == 0 {
		w.para("No build manifests were detected.")
	} else {
		items := make([]string, len(cmds))
		for i, c := range cmds {
			items[i] = fmt.Sprintf("%s: `%s`", c.Label, c.Cmd)
		}
		w.list(items)
	}
	w.heading(3, "Regenerating Documentation")
	w.para("Run `aidocgen generate` to refresh this README and the AI assistant rules. " +
		"Content outside the `aidocgen` markers is preserved when `readme.use_existing_readme` is enabled.")
	return w.String(), nil
}

func renderKnownIssues(_ context.Context, r *readmeRender) (string, error) {
	var items []string
	for _, id := range r.ac.Missing() {
		items = append(items, fmt.Sprintf("The `%s` analysis is unavailable (%s).", id, r.ac.Reason(id)))
	}
	for _, p := range r.f.Problems {
		items = append(items, "Unreadable manifest: "+p)
	}
	items = append(items, "Routes, models and integrations are detected by source patterns and may be incomplete.")

	var w writer
	w.list(items)
	return w.String(), nil
}

func renderAdditional(_ context.Context, r *readmeRender) (string, error) {
	var items []string
	if dir := r.g.opts.DocsDir; dir != "" {
		for _, id := range r.ac.IDs() {
			link := path.Join(filepath.ToSlash(dir), string(id)+".md")
			items = append(items, fmt.Sprintf("[%s analysis](%s)", id, link))
		}
	}
	for _, name := range []string{"CLAUDE.md", "AGENTS.md", "CONTRIBUTING.md"} {
		if ok, _ := afero.Exists(r.g.opts.Fs, filepath.Join(r.snap.Root, name)); ok {
			items = append(items, fmt.Sprintf("[%s](%s)", name, name))
		}
	}
	var w writer
	w.list(items)
	return w.String(), nil
}
