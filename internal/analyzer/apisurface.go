package analyzer

import (
	"context"
	"regexp"
	"strings"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
)

var (
	protoService = regexp.MustCompile(`^\s*service\s+(\w+)\s*\{`)
	protoRPC     = regexp.MustCompile(`^\s*rpc\s+(\w+)\s*\(\s*(stream\s+)?([\w.]+)\s*\)\s*returns\s*\(\s*(stream\s+)?([\w.]+)\s*\)`)
	graphqlType  = regexp.MustCompile(`^\s*(?:extend\s+)?type\s+(Query|Mutation|Subscription)\b`)
)

// specFile reports whether f is an API description document.
func specFile(f File) bool {
	base := strings.ToLower(f.Base())
	for _, prefix := range []string{"openapi", "swagger", "asyncapi"} {
		if strings.HasPrefix(base, prefix) {
			switch f.Ext() {
			case ".yaml", ".yml", ".json":
				return true
			}
		}
	}
	return false
}

// APISurface catalogs the interfaces a repository exposes: HTTP routes,
// gRPC services, GraphQL roots and API description documents.
type APISurface struct {
	walker *Walker
}

// NewAPISurface creates the API surface analyzer.
func NewAPISurface(w *Walker) *APISurface { return &APISurface{walker: w} }

func (a *APISurface) ID() analysis.AnalyzerID { return analysis.APISurface }

func (a *APISurface) Run(ctx context.Context, snap analysis.Snapshot, cfg analysis.TaskConfig) (analysis.Content, error) {
	lim := limitsFor(cfg.DetailLevel)

	routes, err := FindRoutes(ctx, a.walker, snap.Root)
	if err != nil {
		return a.fail(ctx, err)
	}

	type rpc struct {
		service, name, in, out string
		file                   string
		line                   int
	}
	var (
		rpcs    []rpc
		graphql []string
		specs   []string
		service string
	)
	accept := func(f File) bool {
		if specFile(f) {
			specs = append(specs, f.Rel)
			return false
		}
		switch f.Ext() {
		case ".proto", ".graphql", ".gql":
			return true
		}
		return false
	}
	err = a.walker.ScanLines(ctx, snap.Root, accept, func(f File, n int, line string) {
		if n == 1 {
			service = ""
		}
		if m := protoService.FindStringSubmatch(line); m != nil {
			service = m[1]
			return
		}
		if m := protoRPC.FindStringSubmatch(line); m != nil {
			in, out := m[3], m[5]
			if m[2] != "" {
				in = "stream " + in
			}
			if m[4] != "" {
				out = "stream " + out
			}
			rpcs = append(rpcs, rpc{service: service, name: m[1], in: in, out: out, file: f.Rel, line: n})
			return
		}
		if m := graphqlType.FindStringSubmatch(line); m != nil {
			graphql = append(graphql, m[1]+" in "+loc(f.Rel, n))
		}
	})
	if err != nil {
		return a.fail(ctx, err)
	}

	var d doc
	d.title("API Surface")
	d.para("**HTTP routes:** %d  **RPC methods:** %d  **Spec documents:** %d", len(routes), len(rpcs), len(specs))

	d.section("HTTP Endpoints")
	if len(routes) == 0 {
		d.para("No HTTP route registrations found.")
	} else {
		shown := routes[:min(len(routes), lim.items)]
		rows := make([][]string, 0, len(shown))
		for _, r := range shown {
			rows = append(rows, []string{r.Method, "`" + r.Path + "`", loc(r.File, r.Line)})
		}
		d.table([]string{"Method", "Path", "Defined at"}, rows)
		d.truncated(len(shown), len(routes))
	}

	if len(rpcs) > 0 {
		d.section("RPC Services")
		shown := rpcs[:min(len(rpcs), lim.items)]
		rows := make([][]string, 0, len(shown))
		for _, r := range shown {
			rows = append(rows, []string{r.service, r.name, "`" + r.in + "`", "`" + r.out + "`", loc(r.file, r.line)})
		}
		d.table([]string{"Service", "Method", "Request", "Response", "Defined at"}, rows)
		d.truncated(len(shown), len(rpcs))
	}

	if len(graphql) > 0 {
		d.section("GraphQL Roots")
		for _, g := range graphql {
			d.bullet("%s", g)
		}
		d.end()
	}

	if len(specs) > 0 {
		d.section("API Descriptions")
		for _, s := range specs {
			d.bullet("`%s`", s)
		}
		d.end()
	}
	return d.content(), nil
}

func (a *APISurface) fail(ctx context.Context, err error) (analysis.Content, error) {
	if ctx.Err() != nil {
		return analysis.Content{}, ctx.Err()
	}
	return analysis.Content{}, errors.NewAnalyzerError(string(a.ID()), "failed to scan sources", err)
}
