package generator

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"github.com/spf13/afero"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/config"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/contextbuilder"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
)

// Rule targets.
const (
	TargetClaude = "claude"
	TargetAgents = "agents"
	TargetCursor = "cursor"
)

// Rule file locations, relative to the repository root.
const (
	ClaudeFile     = "CLAUDE.md"
	AgentsFile     = "AGENTS.md"
	CursorRulesDir = ".cursor/rules"
)

// RulesOptions configures a RulesGenerator.
type RulesOptions struct {
	Fs          afero.Fs
	Targets     []string
	DetailLevel string
	// MaxClaudeLines and MaxAgentsLines truncate the two Markdown files.
	// 0 disables truncation.
	MaxClaudeLines int
	MaxAgentsLines int
	// SkipExisting leaves a target's existing files untouched, keyed by target.
	SkipExisting map[string]bool
}

// RulesOptionsFromConfig maps the ai_rules config section onto RulesOptions.
func RulesOptionsFromConfig(cfg *config.Config, fs afero.Fs) RulesOptions {
	skip := make(map[string]bool, len(config.ValidRuleTargets()))
	for _, t := range config.ValidRuleTargets() {
		skip[t] = cfg.AIRules.SkipExisting
	}
	return RulesOptions{
		Fs:             fs,
		Targets:        cfg.AIRules.Targets,
		DetailLevel:    cfg.AIRules.DetailLevel,
		MaxClaudeLines: cfg.AIRules.MaxClaudeLines,
		MaxAgentsLines: cfg.AIRules.MaxAgentsLines,
		SkipExisting:   skip,
	}
}

// RulesGenerator writes guidance files for AI coding assistants.
type RulesGenerator struct {
	opts RulesOptions
}

// NewRules creates a RulesGenerator. Targets default to all three and the
// detail level to standard.
func NewRules(opts RulesOptions) (*RulesGenerator, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if len(opts.Targets) == 0 {
		opts.Targets = config.ValidRuleTargets()
	}
	for _, t := range opts.Targets {
		if !slices.Contains(config.ValidRuleTargets(), t) {
			return nil, errors.NewValidationError("ai_rules.targets", t,
				"must be one of: "+strings.Join(config.ValidRuleTargets(), ", "))
		}
	}
	if opts.DetailLevel == "" {
		opts.DetailLevel = analysis.DetailStandard
	}
	if !slices.Contains(config.ValidDetailLevels(), opts.DetailLevel) {
		return nil, errors.NewValidationError("ai_rules.detail_level", opts.DetailLevel,
			"must be one of: "+strings.Join(config.ValidDetailLevels(), ", "))
	}
	return &RulesGenerator{opts: opts}, nil
}

func (g *RulesGenerator) Name() string { return KindRules }

// Required returns every analyzer; rule files use whatever is available.
func (g *RulesGenerator) Required() []analysis.AnalyzerID { return analysis.Universe() }

func (g *RulesGenerator) Generate(_ context.Context, ac *contextbuilder.AnalysisContext, snap analysis.Snapshot) ([]analysis.Document, error) {
	f := collect(ac, snap)
	missing := ac.Missing()

	var docs []analysis.Document
	for _, target := range config.ValidRuleTargets() {
		if !slices.Contains(g.opts.Targets, target) {
			continue
		}
		switch target {
		case TargetClaude:
			body, _ := truncateLines(g.claude(ac, f), g.opts.MaxClaudeLines)
			docs = append(docs, g.document(snap, target, ClaudeFile, body, missing))
		case TargetAgents:
			body, _ := truncateLines(g.agents(ac, f), g.opts.MaxAgentsLines)
			docs = append(docs, g.document(snap, target, AgentsFile, body, missing))
		case TargetCursor:
			rules, err := g.cursor(f)
			if err != nil {
				return nil, err
			}
			for _, r := range rules {
				docs = append(docs, g.document(snap, target, CursorRulesDir+"/"+r.name+".mdc", r.body, missing))
			}
		}
	}
	return docs, nil
}

func (g *RulesGenerator) document(snap analysis.Snapshot, target, rel, body string, missing []analysis.AnalyzerID) analysis.Document {
	d := analysis.Document{Generator: KindRules, Path: rel, Body: body, Missing: missing}
	if g.opts.SkipExisting[target] {
		if ok, _ := afero.Exists(g.opts.Fs, filepath.Join(snap.Root, filepath.FromSlash(rel))); ok {
			d.Body = ""
			d.Skipped = true
		}
	}
	return d
}

func (g *RulesGenerator) items() int {
	switch g.opts.DetailLevel {
	case analysis.DetailMinimal:
		return 10
	case analysis.DetailComprehensive:
		return 100
	default:
		return 25
	}
}

func (g *RulesGenerator) atLeast(level string) bool {
	order := config.ValidDetailLevels()
	return slices.Index(order, g.opts.DetailLevel) >= slices.Index(order, level)
}

func (g *RulesGenerator) claude(ac *contextbuilder.AnalysisContext, f facts) string {
	limit := g.items()
	var w writer
	w.heading(1, ClaudeFile)
	w.para("This file provides guidance to AI coding assistants working in this repository.")

	w.heading(2, "Project Overview")
	w.para("%s", f.summary())

	w.heading(2, "Commands")
	writeCommands(&w, f)

	w.heading(2, "Architecture")
	if len(f.Components) == 0 {
		w.para("No top-level components were identified.")
	} else {
		w.list(componentItems(f.Components, limit))
	}
	if g.atLeast(analysis.DetailStandard) {
		if len(f.EntryPoints) > 0 {
			w.heading(3, "Entry Points")
			w.list(codeItems(f.EntryPoints, limit))
		}
		if len(f.Middleware) > 0 {
			w.heading(3, "Middleware")
			w.list(codeItems(f.Middleware, limit))
		}

		if len(f.Routes) > 0 {
			w.heading(2, "API")
			w.list(routeItems(f.Routes, limit))
		}
		if len(f.Models) > 0 || len(f.Sinks) > 0 {
			w.heading(2, "Data")
			w.list(modelItems(f.Models, limit))
			if len(f.Sinks) > 0 {
				w.para("Integrations: %s.", joinAnd(f.Sinks))
			}
		}
		if deps := dependencyItems(f.Manifests, limit); len(deps) > 0 {
			w.heading(2, "Key Dependencies")
			w.list(deps)
		}
	}

	w.heading(2, "Conventions")
	w.list(conventions(f))

	if g.atLeast(analysis.DetailComprehensive) {
		w.heading(2, "Reference")
		for _, id := range ac.IDs() {
			w.heading(3, string(id))
			w.block(embed(ac.Body(id), 2))
		}
	}
	writeMissing(&w, ac)
	return w.String()
}

func (g *RulesGenerator) agents(ac *contextbuilder.AnalysisContext, f facts) string {
	var w writer
	w.heading(1, AgentsFile)

	w.heading(2, "Overview")
	w.para("%s", f.summary())

	w.heading(2, "Setup and Commands")
	writeCommands(&w, f)

	if len(f.Components) > 0 {
		w.heading(2, "Project Layout")
		w.list(componentItems(f.Components, min(g.items(), 15)))
	}
	if g.atLeast(analysis.DetailStandard) && len(f.Routes) > 0 {
		w.para("The project exposes %d HTTP routes; %s lists them.", len(f.Routes), ClaudeFile)
	}

	w.heading(2, "Guidelines")
	w.list(conventions(f))
	writeMissing(&w, ac)
	return w.String()
}

type cursorRule struct {
	name string
	body string
}

type mdcData struct {
	Description string
	Globs       string
	AlwaysApply bool
	Body        string
}

var mdcTemplate = template.Must(template.New("mdc").Parse(`---
description: {{.Description}}
globs: {{.Globs}}
alwaysApply: {{.AlwaysApply}}
---

{{.Body}}`))

func renderMDC(data mdcData) (string, error) {
	var buf bytes.Buffer
	if err := mdcTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (g *RulesGenerator) cursor(f facts) ([]cursorRule, error) {
	limit := g.items()
	var rules []cursorRule
	add := func(name string, data mdcData) error {
		body, err := renderMDC(data)
		if err != nil {
			return errors.Wrapf(err, "failed to render %s.mdc", name)
		}
		rules = append(rules, cursorRule{name: name, body: body})
		return nil
	}

	var project writer
	project.heading(1, f.Name)
	project.para("%s", f.summary())
	project.heading(2, "Commands")
	writeCommands(&project, f)
	if len(f.Components) > 0 {
		project.heading(2, "Layout")
		project.list(componentItems(f.Components, limit))
	}
	project.heading(2, "Conventions")
	project.list(conventions(f))
	if err := add("project", mdcData{
		Description: "Project overview and conventions for " + f.Name,
		AlwaysApply: true,
		Body:        project.String(),
	}); err != nil {
		return nil, err
	}

	if g.atLeast(analysis.DetailStandard) && len(f.Routes) > 0 {
		var api writer
		api.heading(1, "HTTP API")
		api.list(routeItems(f.Routes, limit))
		if len(f.Middleware) > 0 {
			api.para("Middleware: %s.", joinAnd(codeItems(f.Middleware, limit)))
		}
		files := make([]string, len(f.Routes))
		for i, r := range f.Routes {
			files[i] = r.File
		}
		if err := add("api", mdcData{
			Description: "HTTP routes and handlers of " + f.Name,
			Globs:       strings.Join(distinct(files), ","),
			Body:        api.String(),
		}); err != nil {
			return nil, err
		}
	}

	if g.atLeast(analysis.DetailStandard) && len(f.Models) > 0 {
		var data writer
		data.heading(1, "Data Models")
		data.list(modelItems(f.Models, limit))
		if len(f.Sinks) > 0 {
			data.para("Integrations: %s.", joinAnd(f.Sinks))
		}
		files := make([]string, len(f.Models))
		for i, m := range f.Models {
			files[i] = m.File
		}
		if err := add("data", mdcData{
			Description: "Data models and persistence of " + f.Name,
			Globs:       strings.Join(distinct(files), ","),
			Body:        data.String(),
		}); err != nil {
			return nil, err
		}
	}
	return rules, nil
}

func writeCommands(w *writer, f facts) {
	cmds := f.commands()
	if len(cmds) == 0 {
		w.para("No build manifests were detected.")
		return
	}
	items := make([]string, len(cmds))
	for i, c := range cmds {
		items[i] = fmt.Sprintf("%s: `%s`", c.Label, c.Cmd)
	}
	w.list(items)
}

func writeMissing(w *writer, ac *contextbuilder.AnalysisContext) {
	missing := ac.Missing()
	if len(missing) == 0 {
		return
	}
	w.heading(2, "Missing Analyses")
	items := make([]string, len(missing))
	for i, id := range missing {
		items[i] = fmt.Sprintf("`%s`: %s", id, ac.Reason(id))
	}
	w.list(items)
}

func conventions(f facts) []string {
	var out []string
	for _, c := range f.commands() {
		if c.Label == "Test" {
			out = append(out, fmt.Sprintf("Run `%s` before committing.", c.Cmd))
		}
	}
	if len(f.Components) > 0 {
		out = append(out, "Place new code inside the existing top-level components rather than the repository root.")
	}
	out = append(out,
		"Do not edit the block between the aidocgen markers in README.md by hand; run `aidocgen readme` instead.",
		"Treat `.ai/` as generated output.",
	)
	return out
}

func componentItems(cs []component, limit int) []string {
	cs = cs[:min(len(cs), limit)]
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = fmt.Sprintf("`%s/` (%d files)", c.Name, c.Files)
	}
	return out
}

func codeItems(values []string, limit int) []string {
	values = values[:min(len(values), limit)]
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = "`" + v + "`"
	}
	return out
}

func routeItems(rs []route, limit int) []string {
	shown := rs[:min(len(rs), limit)]
	out := make([]string, len(shown))
	for i, r := range shown {
		out[i] = fmt.Sprintf("`%s %s` in `%s`", r.Method, r.Path, r.File)
	}
	if len(rs) > len(shown) {
		out = append(out, fmt.Sprintf("%d more routes", len(rs)-len(shown)))
	}
	return out
}

func modelItems(ms []model, limit int) []string {
	shown := ms[:min(len(ms), limit)]
	out := make([]string, len(shown))
	for i, m := range shown {
		s := fmt.Sprintf("`%s` (%s) in `%s`", m.Name, m.Kind, m.File)
		if m.Persisted {
			s += ", persisted"
		}
		out[i] = s
	}
	return out
}

func dependencyItems(ms []manifest, limit int) []string {
	var out []string
	for _, m := range ms {
		if len(m.Direct) == 0 {
			continue
		}
		deps := m.Direct[:min(len(m.Direct), limit)]
		out = append(out, fmt.Sprintf("%s (`%s`): %s", m.Ecosystem, m.Path, strings.Join(codeItems(deps, limit), ", ")))
	}
	return out
}
