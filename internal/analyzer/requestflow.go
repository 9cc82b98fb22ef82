package analyzer

import (
	"context"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
)

type signal struct {
	kind string
	re   *regexp.Regexp
}

// serverSignals mark where a process starts accepting requests.
var serverSignals = []signal{
	{kind: "net/http server", re: regexp.MustCompile(`\b(?:http\.ListenAndServe(?:TLS)?|\.ListenAndServe(?:TLS)?)\(`)},
	{kind: "net/http server", re: regexp.MustCompile(`&http\.Server\{`)},
	{kind: "gRPC server", re: regexp.MustCompile(`grpc\.NewServer\(`)},
	{kind: "gin/echo server", re: regexp.MustCompile(`\b(?:r|e|router|engine|app)\.(?:Run|Start)\(\s*"?:`)},
	{kind: "Node server", re: regexp.MustCompile(`\b(?:app|server)\.listen\(`)},
	{kind: "ASGI server", re: regexp.MustCompile(`uvicorn\.run\(`)},
	{kind: "Flask server", re: regexp.MustCompile(`\bapp\.run\(`)},
	{kind: "Lambda handler", re: regexp.MustCompile(`lambda\.Start\(`)},
}

// middlewareSignals mark request interceptors.
var middlewareSignals = []signal{
	{kind: "Use", re: regexp.MustCompile(`\.Use\(\s*(.+)\)`)},
	{kind: "use", re: regexp.MustCompile(`\b(?:app|router)\.use\(\s*(.+)\)`)},
	{kind: "add_middleware", re: regexp.MustCompile(`add_middleware\(\s*([\w.]+)`)},
	{kind: "before_request", re: regexp.MustCompile(`@\w+\.(before_request|after_request)`)},
	{kind: "interceptor", re: regexp.MustCompile(`grpc\.(?:Unary|Stream)Interceptor\(\s*(.+)\)`)},
}

type hit struct {
	kind   string
	detail string
	file   string
	line   int
}

// RequestFlow traces how a request travels through the code: where servers
// start, which middleware wraps handlers, and where routes are registered.
type RequestFlow struct {
	walker *Walker
}

// NewRequestFlow creates the request flow analyzer.
func NewRequestFlow(w *Walker) *RequestFlow { return &RequestFlow{walker: w} }

func (a *RequestFlow) ID() analysis.AnalyzerID { return analysis.RequestFlow }

func (a *RequestFlow) Run(ctx context.Context, snap analysis.Snapshot, cfg analysis.TaskConfig) (analysis.Content, error) {
	lim := limitsFor(cfg.DetailLevel)

	var servers, middleware []hit
	err := a.walker.ScanLines(ctx, snap.Root, isSource, func(f File, n int, line string) {
		if isTestFile(f.Rel) {
			return
		}
		for _, s := range serverSignals {
			if s.re.MatchString(line) {
				servers = append(servers, hit{kind: s.kind, file: f.Rel, line: n})
				break
			}
		}
		for _, s := range middlewareSignals {
			if m := s.re.FindStringSubmatch(line); m != nil {
				detail := s.kind
				if len(m) > 1 && strings.TrimSpace(m[1]) != "" {
					detail = strings.TrimSpace(m[1])
				}
				middleware = append(middleware, hit{kind: s.kind, detail: detail, file: f.Rel, line: n})
				break
			}
		}
	})
	if err != nil {
		return a.fail(ctx, err)
	}
	routes, err := FindRoutes(ctx, a.walker, snap.Root)
	if err != nil {
		return a.fail(ctx, err)
	}

	byFile := map[string][]Route{}
	for _, r := range routes {
		byFile[r.File] = append(byFile[r.File], r)
	}
	routeFiles := make([]string, 0, len(byFile))
	for f := range byFile {
		routeFiles = append(routeFiles, f)
	}
	slices.Sort(routeFiles)

	var d doc
	d.title("Request Flow")
	d.para("%s", summarizeFlow(servers, middleware, routes, routeFiles))

	d.section("Entry Points")
	if len(servers) == 0 {
		d.para("No server start-up calls found.")
	} else {
		for _, s := range servers[:min(len(servers), lim.items)] {
			d.bullet("%s at %s", s.kind, loc(s.file, s.line))
		}
		d.end()
		d.truncated(min(len(servers), lim.items), len(servers))
	}

	d.section("Middleware Chain")
	if len(middleware) == 0 {
		d.para("No middleware registrations found.")
	} else {
		d.para("Listed in registration order within each file.")
		shown := middleware[:min(len(middleware), lim.items)]
		for _, m := range shown {
			d.bullet("`%s` at %s", m.detail, loc(m.file, m.line))
		}
		d.end()
		d.truncated(len(shown), len(middleware))
	}

	d.section("Routing")
	if len(routeFiles) == 0 {
		d.para("No route registrations found.")
	} else {
		shown := routeFiles[:min(len(routeFiles), lim.items)]
		for _, f := range shown {
			rs := byFile[f]
			d.bullet("`%s`: %d route(s), e.g. %s `%s`", f, len(rs), rs[0].Method, rs[0].Path)
		}
		d.end()
		d.truncated(len(shown), len(routeFiles))
	}
	return d.content(), nil
}

func summarizeFlow(servers, middleware []hit, routes []Route, routeFiles []string) string {
	if len(servers) == 0 && len(routes) == 0 {
		return "The repository does not appear to serve network requests."
	}
	var sb strings.Builder
	sb.WriteString("Requests enter through ")
	if len(servers) == 0 {
		sb.WriteString("a server started outside this repository")
	} else {
		kinds := make([]string, 0, len(servers))
		for _, s := range servers {
			if !slices.Contains(kinds, s.kind) {
				kinds = append(kinds, s.kind)
			}
		}
		sb.WriteString(strings.Join(kinds, " and "))
	}
	if len(middleware) > 0 {
		sb.WriteString(", pass through ")
		sb.WriteString(plural(len(middleware), "middleware registration"))
	}
	sb.WriteString(" and reach ")
	sb.WriteString(plural(len(routes), "route"))
	sb.WriteString(" defined in ")
	sb.WriteString(plural(len(routeFiles), "file"))
	sb.WriteString(".")
	return sb.String()
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

func (a *RequestFlow) fail(ctx context.Context, err error) (analysis.Content, error) {
	if ctx.Err() != nil {
		return analysis.Content{}, ctx.Err()
	}
	return analysis.Content{}, errors.NewAnalyzerError(string(a.ID()), "failed to scan sources", err)
}
