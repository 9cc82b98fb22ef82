package analyzer

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
)

var (
	goStruct      = regexp.MustCompile(`^type\s+(\w+)\s+struct\s*\{`)
	goStorageTag  = regexp.MustCompile("`[^`]*\\b(db|gorm|bson|dynamodbav|sql):\"")
	pyModel       = regexp.MustCompile(`^class\s+(\w+)\(\s*([\w.]*(?:Model|Base|Schema|Document|SQLModel)\w*)`)
	tsEntity      = regexp.MustCompile(`^\s*@Entity\(`)
	tsClass       = regexp.MustCompile(`^\s*export\s+(?:default\s+)?class\s+(\w+)`)
	tsInterface   = regexp.MustCompile(`^\s*export\s+(?:interface|type)\s+(\w+)`)
	modelDirNames = []string{"model", "models", "entity", "entities", "domain", "schema", "schemas"}
)

// sinkSignals classify the places where data leaves or enters a process.
var sinkSignals = []signal{
	{kind: "SQL database", re: regexp.MustCompile(`\bsql\.Open\(|\.(?:Query|QueryRow|Exec)(?:Context)?\(|\b(?:SELECT\s+.+\s+FROM|INSERT\s+INTO|UPDATE\s+\w+\s+SET|DELETE\s+FROM)\b`)},
	{kind: "ORM", re: regexp.MustCompile(`\bgorm\.Open\(|\bent\.Open\(|\bsession\.(?:add|commit|query)\(|\.objects\.(?:filter|get|create|all)\(|\bprisma\.\w+\.|\bmongoose\.model\(|getRepository\(`)},
	{kind: "Document store", re: regexp.MustCompile(`\bmongo\.Connect\(|\bMongoClient\(|\.(?:InsertOne|FindOne|UpdateOne)\(|\bdynamodb\.`)},
	{kind: "Cache", re: regexp.MustCompile(`\bredis\.(?:NewClient|Redis|createClient)\b|\bmemcache\.`)},
	{kind: "Message queue", re: regexp.MustCompile(`\b(?:kafka|sarama|nats|amqp|pika|sqs|pubsub)\.\w+\(|\.Publish\(`)},
	{kind: "Object storage", re: regexp.MustCompile(`\bminio\.New\(|\bs3\.(?:New|NewFromConfig)\(|\bboto3\.client\(\s*["']s3["']|\.PutObject\(`)},
	{kind: "Outbound HTTP", re: regexp.MustCompile(`\bhttp\.(?:Get|Post|NewRequest(?:WithContext)?)\(|\brequests\.(?:get|post|put|delete)\(|\bfetch\(|\baxios\.`)},
	{kind: "Filesystem", re: regexp.MustCompile(`\bos\.(?:WriteFile|Create|OpenFile)\(|\bioutil\.WriteFile\(|\bfs\.(?:writeFile|createWriteStream)\(|\bopen\([^)]*["'][wa]b?["']`)},
}

// Model is a data type that describes stored or exchanged records.
type Model struct {
	Name string
	Kind string
	File string
	Line int
	// Persisted is set when the definition carries storage annotations.
	Persisted bool
}

// DataFlow finds data models and the stores, queues and services data
// moves through.
type DataFlow struct {
	walker *Walker
}

// NewDataFlow creates the data flow analyzer.
func NewDataFlow(w *Walker) *DataFlow { return &DataFlow{walker: w} }

func (a *DataFlow) ID() analysis.AnalyzerID { return analysis.DataFlow }

func (a *DataFlow) Run(ctx context.Context, snap analysis.Snapshot, cfg analysis.TaskConfig) (analysis.Content, error) {
	lim := limitsFor(cfg.DetailLevel)

	var models []Model
	sinks := map[string][]hit{}
	current, entity := -1, false
	err := a.walker.ScanLines(ctx, snap.Root, isSource, func(f File, n int, line string) {
		if n == 1 {
			current, entity = -1, false
		}
		if isTestFile(f.Rel) {
			return
		}

		switch f.Ext() {
		case ".go":
			if m := goStruct.FindStringSubmatch(line); m != nil {
				models = append(models, Model{Name: m[1], Kind: "Go struct", File: f.Rel, Line: n})
				current = len(models) - 1
			} else if current >= 0 && strings.HasPrefix(line, "}") {
				current = -1
			} else if current >= 0 && goStorageTag.MatchString(line) {
				models[current].Persisted = true
			}
		case ".py":
			if m := pyModel.FindStringSubmatch(line); m != nil {
				models = append(models, Model{Name: m[1], Kind: "Python " + m[2], File: f.Rel, Line: n, Persisted: !strings.Contains(m[2], "BaseModel")})
			}
		case ".ts", ".tsx", ".js":
			if tsEntity.MatchString(line) {
				entity = true
			} else if m := tsClass.FindStringSubmatch(line); m != nil && entity {
				models = append(models, Model{Name: m[1], Kind: "Entity class", File: f.Rel, Line: n, Persisted: true})
				entity = false
			} else if m := tsInterface.FindStringSubmatch(line); m != nil && inModelDir(f.Rel) {
				models = append(models, Model{Name: m[1], Kind: "TypeScript type", File: f.Rel, Line: n})
			}
		}

		for _, s := range sinkSignals {
			if s.re.MatchString(line) {
				sinks[s.kind] = append(sinks[s.kind], hit{kind: s.kind, file: f.Rel, line: n})
				break
			}
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			return analysis.Content{}, ctx.Err()
		}
		return analysis.Content{}, errors.NewAnalyzerError(string(a.ID()), "failed to scan sources", err)
	}

	// Go structs only count as models when they are stored or live in a model package.
	models = slices.DeleteFunc(models, func(m Model) bool {
		return m.Kind == "Go struct" && !m.Persisted && !inModelDir(m.File)
	})

	var d doc
	d.title("Data Flow")

	kinds := make([]string, 0, len(sinks))
	for k := range sinks {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	d.para("%s", summarizeData(models, kinds))

	d.section("Data Models")
	if len(models) == 0 {
		d.para("No data model definitions found.")
	} else {
		shown := models[:min(len(models), lim.items)]
		rows := make([][]string, 0, len(shown))
		for _, m := range shown {
			stored := "no"
			if m.Persisted {
				stored = "yes"
			}
			rows = append(rows, []string{"`" + m.Name + "`", m.Kind, stored, loc(m.File, m.Line)})
		}
		d.table([]string{"Model", "Kind", "Persisted", "Defined at"}, rows)
		d.truncated(len(shown), len(models))
	}

	d.section("Stores and Sinks")
	if len(kinds) == 0 {
		d.para("No database, queue, storage or outbound network calls found.")
	}
	perKind := max(lim.items/max(len(kinds), 1), 3)
	for _, k := range kinds {
		hits := sinks[k]
		files := distinctFiles(hits)
		d.bullet("**%s**: %s in %s", k, plural(len(hits), "call site"), plural(len(files), "file"))
		for _, f := range files[:min(len(files), perKind)] {
			d.sb.WriteString("  - `" + f + "`\n")
		}
	}
	if len(kinds) > 0 {
		d.end()
	}
	return d.content(), nil
}

func inModelDir(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if slices.Contains(modelDirNames, strings.ToLower(part)) {
			return true
		}
	}
	return false
}

func distinctFiles(hits []hit) []string {
	var out []string
	for _, h := range hits {
		if !slices.Contains(out, h.file) {
			out = append(out, h.file)
		}
	}
	slices.Sort(out)
	return out
}

func summarizeData(models []Model, kinds []string) string {
	if len(models) == 0 && len(kinds) == 0 {
		return "No persistent data handling was detected."
	}
	persisted := 0
	for _, m := range models {
		if m.Persisted {
			persisted++
		}
	}
	s := "Found " + plural(len(models), "data model")
	if persisted > 0 {
		s += " (" + plural(persisted, "persisted type") + ")"
	}
	if len(kinds) > 0 {
		s += "; data moves through " + strings.ToLower(strings.Join(kinds, ", "))
	}
	return s + "."
}
