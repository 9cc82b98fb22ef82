package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/config"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/event"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/registry"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the analyzers and store their results",
	Long: `Run every analyzer that is not excluded, in parallel, and store the
artifacts and the execution report for the repository's current snapshot.

Failed analyzers are reported but do not fail the command unless --strict
is set.

Examples:
  # Analyze the current directory with one worker per CPU
  aidocgen analyze

  # Skip data flow, bound each analyzer to two minutes
  aidocgen analyze --exclude-data-flow --task-timeout 2m

  # Re-enable an analyzer the config file excludes, print JSON
  aidocgen analyze --include api-surface --format json`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

var (
	analyzeFlags  analysisFlags
	analyzeFormat string
	analyzeTUI    bool
	analyzeStrict bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeFlags.register(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "o", report.FormatTable,
		"report format ("+strings.Join(report.ValidFormats(), "/")+")")
	analyzeCmd.Flags().BoolVar(&analyzeTUI, "tui", false, "show live progress when stdout is a terminal")
	analyzeCmd.Flags().BoolVar(&analyzeStrict, "strict", false, "exit with an error when any analyzer failed")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	if err := checkFormat(analyzeFormat); err != nil {
		return err
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	rep, err := a.analyze(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), &analyzeFlags, analyzeTUI)
	if err != nil {
		return err
	}
	if err := report.Render(cmd.OutOrStdout(), rep, analyzeFormat); err != nil {
		return err
	}
	return strictCheck(rep, analyzeStrict)
}

// analysisFlags are the flags of every command that runs the analyzers.
type analysisFlags struct {
	exclude []string
	include []string
	// shortcuts maps an --exclude-<name> flag onto its analyzer.
	shortcuts map[analysis.AnalyzerID]*bool
}

// excludeShortcuts names the per-analyzer exclusion flags.
var excludeShortcuts = []struct {
	flag string
	id   analysis.AnalyzerID
}{
	{"exclude-structure", analysis.Structure},
	{"exclude-dependencies", analysis.Dependency},
	{"exclude-data-flow", analysis.DataFlow},
	{"exclude-request-flow", analysis.RequestFlow},
	{"exclude-api", analysis.APISurface},
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.Int("max-workers", 0, "maximum analyzers running at once (0 = one per CPU)")
	fl.Duration("task-timeout", 0, "time limit per analyzer (default from config)")
	fl.Duration("timeout", 0, "time limit for the whole run; unfinished analyzers are skipped")
	fl.Int("retries", 0, "re-run retriable failures up to this many times")
	fl.Bool("export-docs", true, "write each artifact to the docs directory as Markdown")
	fl.StringSliceVar(&f.exclude, "exclude", nil, "analyzer to skip (repeatable)")
	fl.StringSliceVar(&f.include, "include", nil, "analyzer to run even if the config file excludes it (repeatable)")

	f.shortcuts = make(map[analysis.AnalyzerID]*bool, len(excludeShortcuts))
	for _, s := range excludeShortcuts {
		f.shortcuts[s.id] = fl.Bool(s.flag, false, "skip the "+string(s.id)+" analyzer")
	}

	flagKeys["max-workers"] = "analysis.max_workers"
	flagKeys["task-timeout"] = "analysis.task_timeout"
	flagKeys["timeout"] = "analysis.run_timeout"
	flagKeys["retries"] = "analysis.retries"
	flagKeys["export-docs"] = "analysis.export_docs"
}

// exclusions merges the config file's exclusions with the flags. Flags win.
func (f *analysisFlags) exclusions(cfg *config.Config) (registry.Exclusions, error) {
	exclude := slices.Clone(f.exclude)
	for _, s := range excludeShortcuts {
		if on := f.shortcuts[s.id]; on != nil && *on {
			exclude = append(exclude, string(s.id))
		}
	}
	return registry.MergeExclusions(cfg.Analysis.Exclude, exclude, f.include)
}

func checkFormat(format string) error {
	if slices.Contains(report.ValidFormats(), strings.ToLower(format)) {
		return nil
	}
	return fmt.Errorf("unsupported format %q (supported: %s)", format, strings.Join(report.ValidFormats(), ", "))
}

func strictCheck(rep *analysis.ExecutionReport, strict bool) error {
	if !strict {
		return nil
	}
	if failed := rep.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d analyzer(s) failed: %s", len(failed), strings.Join(analysis.IDStrings(failed), ", "))
	}
	return nil
}

// printTasks writes one line per finished analyzer to w until the returned
// function is called.
func printTasks(bus *event.Bus, w io.Writer) func() {
	var mu sync.Mutex
	id := bus.Subscribe(event.TypeTaskFinished, func(e event.Event) {
		f, ok := e.(event.TaskFinishedEvent)
		if !ok {
			return
		}
		line := fmt.Sprintf("%-9s %s", f.Status, f.AnalyzerID)
		if f.Duration > 0 {
			line += " (" + f.Duration.Round(time.Millisecond).String() + ")"
		}
		if f.Detail != "" && f.Status != analysis.StatusSucceeded {
			line += ": " + f.Detail
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, line)
	})
	return func() { bus.Unsubscribe(id) }
}

func printDocuments(w io.Writer, docs []analysis.Document) {
	for _, d := range docs {
		switch {
		case d.Skipped:
			fmt.Fprintf(w, "kept    %s (already exists)\n", d.Path)
		case len(d.Missing) > 0:
			fmt.Fprintf(w, "wrote   %s (without %s)\n", d.Path, strings.Join(analysis.IDStrings(d.Missing), ", "))
		default:
			fmt.Fprintf(w, "wrote   %s\n", d.Path)
		}
	}
}
