package generator

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/contextbuilder"
)

// facts is what the generators know about a repository, read back from the
// analyzer reports in an AnalysisContext. Fields stay empty when the report
// is missing or does not use the expected layout.
type facts struct {
	Name        string
	Files       int
	Dirs        int
	Languages   []langShare
	Components  []component
	EntryPoints []string
	FlowSummary string
	Middleware  []string
	Routes      []route
	Models      []model
	Sinks       []string
	Manifests   []manifest
	Problems    []string
}

type langShare struct {
	Name  string
	Share string
}

type component struct {
	Name  string
	Files int
}

type route struct {
	Method string
	Path   string
	File   string
}

type model struct {
	Name      string
	Kind      string
	Persisted bool
	File      string
}

type manifest struct {
	Ecosystem string
	Path      string
	Direct    []string
}

type command struct {
	Label string
	Cmd   string
}

var (
	countsRe    = regexp.MustCompile(`\*\*Files:\*\* (\d+)\s+\*\*Directories:\*\* (\d+)`)
	componentRe = regexp.MustCompile("^`([^`]+?)/?` \\((\\d+) files?\\)")
	sinkRe      = regexp.MustCompile(`^\*\*([^*]+)\*\*`)
	manifestRe  = regexp.MustCompile("^## (Go|npm|Python|Rust)\\b.*\\(`([^`]+)`\\)$")
)

// ProjectName derives a display name from the repository directory,
// e.g. "shop-api" becomes "Shop Api".
func ProjectName(snap analysis.Snapshot) string {
	base := filepath.Base(filepath.Clean(snap.Root))
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = snap.ID
	}
	words := strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(base)
	return cases.Title(language.English).String(strings.Join(strings.Fields(words), " "))
}

func collect(ac *contextbuilder.AnalysisContext, snap analysis.Snapshot) facts {
	f := facts{Name: ProjectName(snap)}

	if body := ac.Body(analysis.Structure); body != "" {
		if m := countsRe.FindStringSubmatch(body); m != nil {
			f.Files, _ = strconv.Atoi(m[1])
			f.Dirs, _ = strconv.Atoi(m[2])
		}
		for _, row := range tableRows(section(body, "Languages")) {
			if len(row) >= 3 {
				f.Languages = append(f.Languages, langShare{Name: row[0], Share: row[2]})
			}
		}
		for _, b := range bullets(section(body, "Top-level Components")) {
			if m := componentRe.FindStringSubmatch(b); m != nil {
				n, _ := strconv.Atoi(m[2])
				f.Components = append(f.Components, component{Name: m[1], Files: n})
			}
		}
		for _, b := range bullets(section(body, "Entry Points")) {
			f.EntryPoints = append(f.EntryPoints, codeSpan(b))
		}
	}

	if body := ac.Body(analysis.RequestFlow); body != "" {
		f.FlowSummary = firstParagraph(body)
		for _, b := range bullets(section(body, "Middleware Chain")) {
			f.Middleware = append(f.Middleware, codeSpan(b))
		}
	}

	if body := ac.Body(analysis.APISurface); body != "" {
		for _, row := range tableRows(section(body, "HTTP Endpoints")) {
			if len(row) >= 3 {
				f.Routes = append(f.Routes, route{Method: row[0], Path: codeSpan(row[1]), File: fileOf(row[2])})
			}
		}
	}

	if body := ac.Body(analysis.DataFlow); body != "" {
		for _, row := range tableRows(section(body, "Data Models")) {
			if len(row) >= 4 {
				f.Models = append(f.Models, model{Name: codeSpan(row[0]), Kind: row[1], Persisted: row[2] == "yes", File: fileOf(row[3])})
			}
		}
		for _, b := range bullets(section(body, "Stores and Sinks")) {
			if m := sinkRe.FindStringSubmatch(b); m != nil {
				f.Sinks = append(f.Sinks, m[1])
			}
		}
	}

	if body := ac.Body(analysis.Dependency); body != "" {
		for _, l := range strings.Split(body, "\n") {
			m := manifestRe.FindStringSubmatch(strings.TrimSpace(l))
			if m == nil {
				continue
			}
			mf := manifest{Ecosystem: m[1], Path: m[2]}
			for _, row := range tableRows(section(body, strings.TrimPrefix(strings.TrimSpace(l), "## "))) {
				if len(row) >= 3 && row[2] == "direct" {
					mf.Direct = append(mf.Direct, codeSpan(row[0]))
				}
			}
			f.Manifests = append(f.Manifests, mf)
		}
		f.Problems = bullets(section(body, "Unreadable Manifests"))
	}
	return f
}

// fileOf turns "`path/file.go:12`" into "path/file.go".
func fileOf(cell string) string {
	s := codeSpan(cell)
	if i := strings.LastIndexByte(s, ':'); i > 0 {
		if _, err := strconv.Atoi(s[i+1:]); err == nil {
			return s[:i]
		}
	}
	return s
}

// summary is a one-paragraph description built from the facts.
func (f facts) summary() string {
	var sb strings.Builder
	if f.Files > 0 {
		fmt.Fprintf(&sb, "%s contains %d files in %d directories", f.Name, f.Files, f.Dirs)
	} else {
		sb.WriteString(f.Name + " is a source repository")
	}
	if len(f.Languages) > 0 {
		top := f.Languages[:min(len(f.Languages), 3)]
		parts := make([]string, len(top))
		for i, l := range top {
			parts[i] = fmt.Sprintf("%s (%s)", l.Name, l.Share)
		}
		sb.WriteString(", written mainly in " + joinAnd(parts))
	}
	sb.WriteString(".")
	if f.FlowSummary != "" {
		sb.WriteString(" " + f.FlowSummary)
	}
	return sb.String()
}

// commands suggests build and test commands for each manifest.
func (f facts) commands() []command {
	var cmds []command
	add := func(dir, label, cmd string) {
		if dir != "." && dir != "" {
			cmd = "cd " + dir + " && " + cmd
		}
		c := command{Label: label, Cmd: cmd}
		if !slices.Contains(cmds, c) {
			cmds = append(cmds, c)
		}
	}
	for _, m := range f.Manifests {
		dir := path.Dir(m.Path)
		switch m.Ecosystem {
		case "Go":
			add(dir, "Build", "go build ./...")
			add(dir, "Test", "go test ./...")
			add(dir, "Vet", "go vet ./...")
		case "npm":
			add(dir, "Install", "npm install")
			add(dir, "Test", "npm test")
		case "Python":
			if strings.HasSuffix(m.Path, ".txt") {
				add(dir, "Install", "pip install -r "+path.Base(m.Path))
			} else {
				add(dir, "Install", "pip install -e .")
			}
			add(dir, "Test", "pytest")
		case "Rust":
			add(dir, "Build", "cargo build")
			add(dir, "Test", "cargo test")
		}
	}
	return cmds
}

func joinAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

func distinct(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}
