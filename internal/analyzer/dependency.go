package analyzer

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"go/parser"
	"go/token"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
)

// Package is one declared dependency.
type Package struct {
	Name     string
	Version  string
	Dev      bool
	Indirect bool
}

// Manifest is a parsed dependency file.
type Manifest struct {
	// Path is relative to the snapshot root.
	Path      string
	Ecosystem string
	// Name is the module or package the manifest declares, if any.
	Name      string
	Toolchain string
	Packages  []Package
	Replaces  int
}

// Direct returns the packages that are neither dev nor indirect.
func (m Manifest) Direct() []Package {
	var out []Package
	for _, p := range m.Packages {
		if !p.Dev && !p.Indirect {
			out = append(out, p)
		}
	}
	return out
}

// manifestParsers maps manifest file names to their parser.
var manifestParsers = map[string]func(rel string, data []byte) (Manifest, error){
	"go.mod":         parseGoMod,
	"package.json":   parsePackageJSON,
	"pyproject.toml": parsePyProject,
	"Cargo.toml":     parseCargo,
}

func manifestParser(base string) (func(string, []byte) (Manifest, error), bool) {
	if p, ok := manifestParsers[base]; ok {
		return p, true
	}
	if strings.HasPrefix(base, "requirements") && strings.HasSuffix(base, ".txt") {
		return parseRequirements, true
	}
	return nil, false
}

// Dependency reads package manifests and maps internal Go package imports.
type Dependency struct {
	walker *Walker
}

// NewDependency creates the dependency analyzer.
func NewDependency(w *Walker) *Dependency { return &Dependency{walker: w} }

func (a *Dependency) ID() analysis.AnalyzerID { return analysis.Dependency }

func (a *Dependency) Run(ctx context.Context, snap analysis.Snapshot, cfg analysis.TaskConfig) (analysis.Content, error) {
	lim := limitsFor(cfg.DetailLevel)

	var (
		manifests []Manifest
		problems  []string
		goFiles   []string
	)
	err := a.walker.Walk(ctx, snap.Root, func(f File) error {
		if f.Dir {
			return nil
		}
		if f.Ext() == ".go" && !strings.HasSuffix(f.Rel, "_test.go") {
			goFiles = append(goFiles, f.Rel)
		}
		parse, ok := manifestParser(f.Base())
		if !ok {
			return nil
		}
		data, err := a.walker.ReadFile(snap.Root, f.Rel)
		if err != nil {
			problems = append(problems, fmt.Sprintf("`%s`: %v", f.Rel, err))
			return nil
		}
		m, err := parse(f.Rel, data)
		if err != nil {
			problems = append(problems, fmt.Sprintf("`%s`: %v", f.Rel, err))
			return nil
		}
		manifests = append(manifests, m)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return analysis.Content{}, ctx.Err()
		}
		return analysis.Content{}, errors.NewAnalyzerError(string(a.ID()), "failed to walk repository", err)
	}

	var d doc
	d.title("Dependencies")
	if len(manifests) == 0 {
		d.para("No dependency manifests found.")
	}

	for _, m := range manifests {
		heading := fmt.Sprintf("%s (`%s`)", m.Ecosystem, m.Path)
		if m.Name != "" {
			heading = fmt.Sprintf("%s: %s (`%s`)", m.Ecosystem, m.Name, m.Path)
		}
		d.section(heading)
		if m.Toolchain != "" {
			d.para("Toolchain: %s", m.Toolchain)
		}

		pkgs := slices.Clone(m.Packages)
		if cfg.DetailLevel == analysis.DetailMinimal {
			pkgs = m.Direct()
		}
		slices.SortStableFunc(pkgs, func(x, y Package) int {
			return cmp.Or(cmp.Compare(rank(x), rank(y)), cmp.Compare(x.Name, y.Name))
		})

		if len(pkgs) == 0 {
			d.para("No dependencies declared.")
			continue
		}
		shown := pkgs[:min(len(pkgs), lim.items)]
		rows := make([][]string, 0, len(shown))
		for _, p := range shown {
			rows = append(rows, []string{"`" + p.Name + "`", cmp.Or(p.Version, "*"), scope(p)})
		}
		d.table([]string{"Package", "Version", "Scope"}, rows)
		d.truncated(len(shown), len(pkgs))
		if m.Replaces > 0 {
			d.para("%d replace directive(s) override upstream modules.", m.Replaces)
		}
	}

	if graph := a.internalGraph(snap.Root, manifests, goFiles); len(graph) > 0 {
		d.section("Internal Package Graph")
		pkgs := make([]string, 0, len(graph))
		for p := range graph {
			pkgs = append(pkgs, p)
		}
		slices.Sort(pkgs)
		shown := pkgs[:min(len(pkgs), lim.items)]
		for _, p := range shown {
			d.bullet("`%s` → %s", p, joinCode(graph[p]))
		}
		d.end()
		d.truncated(len(shown), len(pkgs))
	}

	if len(problems) > 0 {
		d.section("Unreadable Manifests")
		for _, p := range problems {
			d.bullet("%s", p)
		}
		d.end()
	}
	return d.content(), nil
}

// internalGraph maps each Go package directory to the packages of the same
// module it imports.
func (a *Dependency) internalGraph(root string, manifests []Manifest, goFiles []string) map[string][]string {
	type module struct{ dir, path string }
	var mods []module
	for _, m := range manifests {
		if m.Ecosystem == "Go" && m.Name != "" {
			mods = append(mods, module{dir: path.Dir(m.Path), path: m.Name})
		}
	}
	if len(mods) == 0 {
		return nil
	}

	edges := map[string]map[string]bool{}
	fset := token.NewFileSet()
	for _, rel := range goFiles {
		data, err := a.walker.ReadFile(root, rel)
		if err != nil {
			continue
		}
		f, err := parser.ParseFile(fset, rel, data, parser.ImportsOnly)
		if err != nil {
			continue
		}
		from := path.Dir(rel)
		for _, imp := range f.Imports {
			p, err := strconv.Unquote(imp.Path.Value)
			if err != nil {
				continue
			}
			for _, m := range mods {
				sub, ok := strings.CutPrefix(p, m.path+"/")
				if !ok {
					continue
				}
				to := path.Join(m.dir, sub)
				if to == from {
					continue
				}
				if edges[from] == nil {
					edges[from] = map[string]bool{}
				}
				edges[from][to] = true
			}
		}
	}

	out := make(map[string][]string, len(edges))
	for from, tos := range edges {
		list := make([]string, 0, len(tos))
		for to := range tos {
			list = append(list, to)
		}
		slices.Sort(list)
		out[from] = list
	}
	return out
}

func rank(p Package) int {
	switch {
	case p.Dev:
		return 2
	case p.Indirect:
		return 1
	}
	return 0
}

func scope(p Package) string {
	switch {
	case p.Dev:
		return "dev"
	case p.Indirect:
		return "indirect"
	}
	return "direct"
}

func joinCode(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "`" + s + "`"
	}
	return strings.Join(quoted, ", ")
}

func parseGoMod(rel string, data []byte) (Manifest, error) {
	f, err := modfile.Parse(rel, data, nil)
	if err != nil {
		return Manifest{}, err
	}
	m := Manifest{Path: rel, Ecosystem: "Go", Replaces: len(f.Replace)}
	if f.Module != nil {
		m.Name = f.Module.Mod.Path
	}
	if f.Go != nil {
		m.Toolchain = "go " + f.Go.Version
	}
	for _, r := range f.Require {
		m.Packages = append(m.Packages, Package{Name: r.Mod.Path, Version: r.Mod.Version, Indirect: r.Indirect})
	}
	return m, nil
}

func parsePackageJSON(rel string, data []byte) (Manifest, error) {
	var pj struct {
		Name            string            `json:"name"`
		Engines         map[string]string `json:"engines"`
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &pj); err != nil {
		return Manifest{}, err
	}
	m := Manifest{Path: rel, Ecosystem: "npm", Name: pj.Name}
	if node := pj.Engines["node"]; node != "" {
		m.Toolchain = "node " + node
	}
	for name, v := range pj.Dependencies {
		m.Packages = append(m.Packages, Package{Name: name, Version: v})
	}
	for name, v := range pj.DevDependencies {
		m.Packages = append(m.Packages, Package{Name: name, Version: v, Dev: true})
	}
	return m, nil
}

// requirementSpec splits "name[extra]>=1.0; marker" into name and version.
func requirementSpec(line string) (name, version string) {
	line, _, _ = strings.Cut(line, ";")
	line = strings.TrimSpace(line)
	i := strings.IndexAny(line, "=<>!~[ ")
	if i < 0 {
		return line, ""
	}
	name = line[:i]
	rest := line[i:]
	if j := strings.Index(rest, "]"); strings.HasPrefix(rest, "[") && j >= 0 {
		rest = rest[j+1:]
	}
	return name, strings.TrimSpace(rest)
}

func parseRequirements(rel string, data []byte) (Manifest, error) {
	m := Manifest{Path: rel, Ecosystem: "Python"}
	dev := strings.Contains(path.Base(rel), "dev") || strings.Contains(path.Base(rel), "test")
	for line := range strings.SplitSeq(string(data), "\n") {
		line, _, _ = strings.Cut(line, "#")
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}
		name, version := requirementSpec(line)
		m.Packages = append(m.Packages, Package{Name: name, Version: version, Dev: dev})
	}
	return m, nil
}

func parsePyProject(rel string, data []byte) (Manifest, error) {
	var pp struct {
		Project struct {
			Name                 string              `toml:"name"`
			RequiresPython       string              `toml:"requires-python"`
			Dependencies         []string            `toml:"dependencies"`
			OptionalDependencies map[string][]string `toml:"optional-dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Name            string         `toml:"name"`
				Dependencies    map[string]any `toml:"dependencies"`
				DevDependencies map[string]any `toml:"dev-dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &pp); err != nil {
		return Manifest{}, err
	}

	m := Manifest{Path: rel, Ecosystem: "Python", Name: cmp.Or(pp.Project.Name, pp.Tool.Poetry.Name)}
	if pp.Project.RequiresPython != "" {
		m.Toolchain = "python " + pp.Project.RequiresPython
	}
	for _, spec := range pp.Project.Dependencies {
		name, version := requirementSpec(spec)
		m.Packages = append(m.Packages, Package{Name: name, Version: version})
	}
	for _, group := range pp.Project.OptionalDependencies {
		for _, spec := range group {
			name, version := requirementSpec(spec)
			m.Packages = append(m.Packages, Package{Name: name, Version: version, Dev: true})
		}
	}
	for name, v := range pp.Tool.Poetry.Dependencies {
		if name == "python" {
			m.Toolchain = "python " + tableVersion(v)
			continue
		}
		m.Packages = append(m.Packages, Package{Name: name, Version: tableVersion(v)})
	}
	for name, v := range pp.Tool.Poetry.DevDependencies {
		m.Packages = append(m.Packages, Package{Name: name, Version: tableVersion(v), Dev: true})
	}
	return m, nil
}

func parseCargo(rel string, data []byte) (Manifest, error) {
	var c struct {
		Package struct {
			Name        string `toml:"name"`
			RustVersion string `toml:"rust-version"`
		} `toml:"package"`
		Dependencies    map[string]any `toml:"dependencies"`
		DevDependencies map[string]any `toml:"dev-dependencies"`
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return Manifest{}, err
	}
	m := Manifest{Path: rel, Ecosystem: "Rust", Name: c.Package.Name}
	if c.Package.RustVersion != "" {
		m.Toolchain = "rust " + c.Package.RustVersion
	}
	for name, v := range c.Dependencies {
		m.Packages = append(m.Packages, Package{Name: name, Version: tableVersion(v)})
	}
	for name, v := range c.DevDependencies {
		m.Packages = append(m.Packages, Package{Name: name, Version: tableVersion(v), Dev: true})
	}
	return m, nil
}

// tableVersion reads a TOML dependency that is either "1.0" or { version = "1.0", ... }.
func tableVersion(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if s, ok := t["version"].(string); ok {
			return s
		}
		if _, ok := t["path"]; ok {
			return "path"
		}
		if _, ok := t["git"]; ok {
			return "git"
		}
	}
	return ""
}
