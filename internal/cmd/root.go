package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aidocgen",
	Short: "Analyze a repository and generate its documentation",
	Long: `aidocgen runs a set of independent analyzers over a repository in
parallel, stores their results, and feeds them into generators that write
the README and rule files for AI coding assistants.

A failed or excluded analyzer never fails the run: documents are generated
from whatever analysis succeeded.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Global flags
var (
	cfgFile  string
	repoDir  string
	setPairs []string
	logLevel string
)

// Execute runs the root command. Canceling ctx stops long-running commands.
func Execute(ctx context.Context, version string) error {
	rootCmd.Version = version
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.config/aidocgen/config.yaml merged with <repo>/.aidocgen.yaml)")
	pf.StringVarP(&repoDir, "repo", "r", ".", "repository to analyze")
	pf.StringArrayVar(&setPairs, "set", nil, "override a config value, e.g. --set analysis.max_workers=4 (repeatable)")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug/info/warn/error)")

	flagKeys["log-level"] = "logging.level"
}
