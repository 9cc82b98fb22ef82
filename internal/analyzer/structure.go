package analyzer

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
)

// entryPoints are file names that usually start a program.
var entryPoints = map[string]bool{
	"main.go":     true,
	"main.py":     true,
	"__main__.py": true,
	"app.py":      true,
	"manage.py":   true,
	"wsgi.py":     true,
	"index.js":    true,
	"index.ts":    true,
	"server.js":   true,
	"server.ts":   true,
	"main.rs":     true,
	"Main.java":   true,
	"Program.cs":  true,
}

// Structure maps the repository layout: directory tree, language mix,
// top-level components and entry points.
type Structure struct {
	walker *Walker
}

// NewStructure creates the structure analyzer.
func NewStructure(w *Walker) *Structure { return &Structure{walker: w} }

func (s *Structure) ID() analysis.AnalyzerID { return analysis.Structure }

func (s *Structure) Run(ctx context.Context, snap analysis.Snapshot, cfg analysis.TaskConfig) (analysis.Content, error) {
	lim := limitsFor(cfg.DetailLevel)

	var (
		files, dirs int
		tree        []File
		entries     []string
	)
	langs := map[string]int{}
	components := map[string]int{}
	err := s.walker.Walk(ctx, snap.Root, func(f File) error {
		if f.Depth() <= lim.depth {
			tree = append(tree, f)
		}
		if f.Dir {
			dirs++
			return nil
		}
		files++
		if l := Language(f); l != "" {
			langs[l]++
		}
		if top, _, ok := strings.Cut(f.Rel, "/"); ok {
			components[top]++
		}
		if entryPoints[f.Base()] {
			entries = append(entries, f.Rel)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return analysis.Content{}, ctx.Err()
		}
		return analysis.Content{}, errors.NewAnalyzerError(string(s.ID()), "failed to walk repository", err)
	}

	var d doc
	d.title("Code Structure")
	d.para("**Files:** %d  **Directories:** %d", files, dirs)

	d.section("Languages")
	if len(langs) == 0 {
		d.para("No recognized source files.")
	} else {
		d.table([]string{"Language", "Files", "Share"}, languageRows(langs, files))
	}

	d.section("Top-level Components")
	if len(components) == 0 {
		d.para("All files live at the repository root.")
	} else {
		names := sortedByCount(components)
		shown := names[:min(len(names), lim.items)]
		for _, name := range shown {
			d.bullet("`%s/` (%d files)", name, components[name])
		}
		d.end()
		d.truncated(len(shown), len(names))
	}

	d.section("Entry Points")
	if len(entries) == 0 {
		d.para("No conventional entry points found.")
	} else {
		shown := entries[:min(len(entries), lim.items)]
		for _, e := range shown {
			d.bullet("`%s`", e)
		}
		d.end()
		d.truncated(len(shown), len(entries))
	}

	d.section("Layout")
	shown := tree[:min(len(tree), lim.items)]
	d.code("", renderTree(shown))
	d.truncated(len(shown), len(tree))

	return d.content(), nil
}

func languageRows(langs map[string]int, total int) [][]string {
	names := sortedByCount(langs)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		share := float64(langs[name]) / float64(max(total, 1)) * 100
		rows = append(rows, []string{name, fmt.Sprint(langs[name]), fmt.Sprintf("%.1f%%", share)})
	}
	return rows
}

// sortedByCount orders keys by descending count, then name.
func sortedByCount(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(m[b], m[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return keys
}

// renderTree indents each entry by its depth. Walk order is lexical, so
// children follow their parent.
func renderTree(files []File) string {
	var sb strings.Builder
	sb.WriteString(".\n")
	for _, f := range files {
		sb.WriteString(strings.Repeat("  ", f.Depth()))
		sb.WriteString(f.Base())
		if f.Dir {
			sb.WriteString("/")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
