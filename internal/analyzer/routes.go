package analyzer

import (
	"cmp"
	"context"
	"path"
	"regexp"
	"slices"
	"strings"
)

// Route is an HTTP route registration found in source.
type Route struct {
	Method string
	Path   string
	File   string
	Line   int
}

type routePattern struct {
	exts []string
	re   *regexp.Regexp
	// extract returns method and path from the submatches.
	extract func(m []string) (method, path string)
}

func methodPath(m []string) (string, string) { return strings.ToUpper(m[1]), m[2] }

var routePatterns = []routePattern{
	// gin, echo, fiber and chi style: r.GET("/x", h), r.Get("/x", h)
	{
		exts:    []string{".go"},
		re:      regexp.MustCompile(`\.(GET|POST|PUT|PATCH|DELETE|HEAD|OPTIONS|Get|Post|Put|Patch|Delete|Head|Options)\(\s*"(/[^"]*)"`),
		extract: methodPath,
	},
	// net/http: mux.HandleFunc("GET /x", h) or http.Handle("/x", h)
	{
		exts: []string{".go"},
		re:   regexp.MustCompile(`\.(?:HandleFunc|Handle)\(\s*"(?:([A-Z]+) )?(/[^"]*)"`),
		extract: func(m []string) (string, string) {
			return cmp.Or(m[1], "ANY"), m[2]
		},
	},
	// FastAPI and similar decorators: @app.get("/x")
	{
		exts:    []string{".py"},
		re:      regexp.MustCompile(`@\w+\.(get|post|put|patch|delete)\(\s*["'](/[^"']*)["']`),
		extract: methodPath,
	},
	// Flask: @app.route("/x", methods=["GET", "POST"])
	{
		exts: []string{".py"},
		re:   regexp.MustCompile(`@\w+\.route\(\s*["'](/[^"']*)["'](?:.*methods\s*=\s*[\[(]([^\])]*)[\])])?`),
		extract: func(m []string) (string, string) {
			methods := strings.NewReplacer(`"`, "", `'`, "", " ", "").Replace(m[2])
			if methods == "" {
				methods = "GET"
			}
			return strings.ToUpper(strings.ReplaceAll(methods, ",", "|")), m[1]
		},
	},
	// Express and Koa routers: app.get('/x', h)
	{
		exts:    []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx"},
		re:      regexp.MustCompile("\\b(?:app|router|server|api)\\.(get|post|put|patch|delete|all)\\(\\s*[\"'`](/[^\"'`]*)[\"'`]"),
		extract: methodPath,
	},
	// Spring: @GetMapping("/x")
	{
		exts: []string{".java", ".kt"},
		re:   regexp.MustCompile(`@(Get|Post|Put|Patch|Delete|Request)Mapping\(\s*(?:value\s*=\s*|path\s*=\s*)?"(/[^"]*)"`),
		extract: func(m []string) (string, string) {
			if m[1] == "Request" {
				return "ANY", m[2]
			}
			return strings.ToUpper(m[1]), m[2]
		},
	},
}

// FindRoutes scans non-test sources for route registrations, sorted by
// path, method and location.
func FindRoutes(ctx context.Context, w *Walker, root string) ([]Route, error) {
	var routes []Route
	accept := func(f File) bool { return isSource(f) && !isTestFile(f.Rel) }
	err := w.ScanLines(ctx, root, accept, func(f File, n int, line string) {
		ext := f.Ext()
		for _, p := range routePatterns {
			if !slices.Contains(p.exts, ext) {
				continue
			}
			for _, m := range p.re.FindAllStringSubmatch(line, -1) {
				method, path := p.extract(m)
				routes = append(routes, Route{Method: method, Path: path, File: f.Rel, Line: n})
			}
		}
	})
	slices.SortFunc(routes, func(a, b Route) int {
		return cmp.Or(
			cmp.Compare(a.Path, b.Path),
			cmp.Compare(a.Method, b.Method),
			cmp.Compare(a.File, b.File),
			cmp.Compare(a.Line, b.Line),
		)
	})
	return routes, err
}

// isTestFile reports whether rel looks like test code or test data.
func isTestFile(rel string) bool {
	base := path.Base(rel)
	switch {
	case strings.HasSuffix(base, "_test.go"),
		strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py"),
		strings.Contains(base, ".test."), strings.Contains(base, ".spec."):
		return true
	}
	return strings.Contains("/"+rel, "/testdata/") || strings.Contains("/"+rel, "/tests/")
}
