package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/generator"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/report"
)

var readmeCmd = &cobra.Command{
	Use:   "readme",
	Short: "Generate README.md from the stored analysis",
	Long: `Generate README.md from the artifacts of the latest analysis of the
current snapshot. Sections whose analyzers have no artifact are degraded
as configured by readme.degraded. Run 'aidocgen analyze' first, or use
'aidocgen generate' to do both.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runGenerators(cmd, generator.KindReadme)
	},
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Generate CLAUDE.md, AGENTS.md and Cursor rules from the stored analysis",
	Long: `Generate rule files for AI coding assistants from the artifacts of the
latest analysis of the current snapshot. Targets and detail level come from
the ai_rules config section.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runGenerators(cmd, generator.KindRules)
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Analyze the repository, then generate the README and rule files",
	Long: `Run the analyzers, then every generator, in one step. Generators use
whatever analysis succeeded; a failed analyzer degrades the documents that
need it instead of failing the command.

Examples:
  aidocgen generate
  aidocgen generate --exclude request-flow --max-workers 2`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var (
	generateFlags  analysisFlags
	generateStrict bool
)

func init() {
	rootCmd.AddCommand(readmeCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(generateCmd)

	generateFlags.register(generateCmd)
	generateCmd.Flags().BoolVar(&generateStrict, "strict", false, "exit with an error when any analyzer failed")
}

func runGenerators(cmd *cobra.Command, kinds ...string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	snap, err := a.snapshot()
	if err != nil {
		return err
	}
	if _, err := a.store.LatestReport(cmd.Context(), snap.Identity()); errors.Is(err, errors.ErrNotFound) {
		fmt.Fprintf(cmd.ErrOrStderr(), "no analysis found for %s; run 'aidocgen analyze' first for complete documents\n", snap.Identity())
	}
	return a.generate(cmd.Context(), cmd.OutOrStdout(), snap, kinds...)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	rep, err := a.analyze(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), &generateFlags, false)
	if err != nil {
		return err
	}
	if err := report.Render(cmd.ErrOrStderr(), rep, report.FormatTable); err != nil {
		return err
	}

	snap, err := a.snapshot()
	if err != nil {
		return err
	}
	if err := a.generate(cmd.Context(), cmd.OutOrStdout(), snap, generator.Kinds()...); err != nil {
		return err
	}
	return strictCheck(rep, generateStrict)
}
