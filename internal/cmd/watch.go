package cmd

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/config"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/generator"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/report"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-analyze the repository whenever it changes",
	Long: `Watch the repository and run the analyzers after each burst of file
changes, and optionally on a fixed interval. Files the pipeline writes
itself (the docs directory, README and rule files) never trigger a run.

Examples:
  aidocgen watch
  aidocgen watch --generate --debounce 5s
  aidocgen watch --interval 30m`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var watchFlags analysisFlags

func init() {
	rootCmd.AddCommand(watchCmd)

	watchFlags.register(watchCmd)
	fl := watchCmd.Flags()
	fl.Duration("interval", 0, "also run on this interval (0 disables)")
	fl.Duration("debounce", 0, "quiet period after a change before running (default from watch.debounce)")
	fl.Bool("generate", false, "regenerate the README and rule files after each run")

	flagKeys["interval"] = "watch.interval"
	flagKeys["debounce"] = "watch.debounce"
	flagKeys["generate"] = "watch.generate"
}

func runWatch(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	run := func(ctx context.Context, reason string, changed []string) error {
		if len(changed) > 0 {
			cmd.Printf("%s: %s\n", reason, strings.Join(changed, ", "))
		}
		rep, err := a.analyze(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), &watchFlags, false)
		if err != nil {
			return err
		}
		if err := report.Render(cmd.OutOrStdout(), rep, report.FormatTable); err != nil {
			return err
		}
		if !a.cfg.Watch.Generate {
			return nil
		}
		snap, err := a.snapshot()
		if err != nil {
			return err
		}
		return a.generate(ctx, cmd.OutOrStdout(), snap, generator.Kinds()...)
	}

	w, err := watch.New(watch.Options{
		Root:        a.root,
		Interval:    a.cfg.Watch.Interval,
		Debounce:    a.cfg.Watch.Debounce,
		IgnorePaths: generatedPaths(a.cfg),
		RunOnStart:  true,
		Observer:    a.bus,
		Logger:      a.logger,
	}, run)
	if err != nil {
		return err
	}

	cmd.Printf("watching %s (ctrl+c to stop)\n", a.root)
	return w.Run(cmd.Context())
}

// generatedPaths lists the repository paths the pipeline writes, relative
// to the root.
func generatedPaths(cfg *config.Config) []string {
	paths := []string{cfg.Readme.Output, "CLAUDE.md", "AGENTS.md", ".cursor/rules"}
	for _, dir := range []string{cfg.Analysis.DocsDir, cfg.Store.Dir, cfg.Logging.Dir} {
		if dir != "" && !filepath.IsAbs(dir) {
			paths = append(paths, filepath.ToSlash(dir))
		}
	}
	return paths
}
