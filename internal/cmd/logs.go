package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/config"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View pipeline logs",
	Long: `View and filter the JSON logs written under logging.dir.

Examples:
  # Show the last 50 entries
  aidocgen logs

  # Everything one run logged, as JSON
  aidocgen logs --run 3f2c9a1e-5b7d-4c1e-9d7a-0b6a1c2d3e4f -n 0 --json

  # Warnings from the last hour
  aidocgen logs --level warn --since 1h

  # One analyzer's entries
  aidocgen logs --analyzer data-flow`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsTail     int
	logsLevel    string
	logsSince    string
	logsRun      string
	logsAnalyzer string
	logsPhase    string
	logsGrep     string
	logsJSON     bool
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show entries since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsRun, "run", "", "Filter by run ID")
	logsCmd.Flags().StringVar(&logsAnalyzer, "analyzer", "", "Filter by analyzer")
	logsCmd.Flags().StringVar(&logsPhase, "phase", "", "Filter by phase (execute, aggregate, context, generate, watch, server)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter entries whose message contains this text")
	logsCmd.Flags().BoolVar(&logsJSON, "json", false, "Print entries as JSON")
}

func runLogs(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	dir := config.ResolvePath(s.root, s.cfg.Logging.Dir)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("no logs found in %s", dir)
	}

	filter := logging.Filter{
		Level:    logsLevel,
		RunID:    logsRun,
		Phase:    logsPhase,
		Contains: logsGrep,
	}
	if logsAnalyzer != "" {
		filter.Analyzer = string(analysis.Normalize(logsAnalyzer))
	}
	if logsSince != "" {
		d, err := cast.ToDurationE(logsSince)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid --since %q: expected a duration such as 30m or 2h", logsSince)
		}
		filter.Since = time.Now().Add(-d)
	}

	entries, err := logging.ReadDir(dir)
	if err != nil {
		return err
	}
	entries = filter.Apply(entries)
	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}

	if logsJSON {
		return logging.WriteJSON(cmd.OutOrStdout(), entries)
	}
	return logging.WriteText(cmd.OutOrStdout(), entries)
}
