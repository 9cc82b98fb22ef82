package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Show a stored execution report",
	Long: `Show the latest execution report for the current snapshot, the report of
a specific run, or with --history one line per run.

Examples:
  aidocgen report
  aidocgen report 3f2c9a1e-5b7d-4c1e-9d7a-0b6a1c2d3e4f --format json
  aidocgen report --history`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

var (
	reportFormat   string
	reportHistory  bool
	reportSnapshot string
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportFormat, "format", "o", report.FormatTable,
		"output format ("+strings.Join(report.ValidFormats(), "/")+")")
	reportCmd.Flags().BoolVar(&reportHistory, "history", false, "list every run of the snapshot")
	reportCmd.Flags().StringVar(&reportSnapshot, "snapshot", "", "snapshot identity (default: current HEAD of --repo)")
}

func runReport(cmd *cobra.Command, args []string) error {
	if err := checkFormat(reportFormat); err != nil {
		return err
	}
	if reportHistory && len(args) > 0 {
		return fmt.Errorf("--history does not take a run ID")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	id := reportSnapshot
	if id == "" {
		snap, err := a.snapshot()
		if err != nil {
			return err
		}
		id = snap.Identity()
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if reportHistory {
		reports, err := a.store.Reports(ctx, id)
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			return fmt.Errorf("no runs recorded for %s: %w", id, errors.ErrNotFound)
		}
		return report.RenderHistory(out, reports, reportFormat)
	}

	var rep *analysis.ExecutionReport
	if len(args) == 1 {
		rep, err = a.store.Report(ctx, id, args[0])
	} else {
		rep, err = a.store.LatestReport(ctx, id)
	}
	if err != nil {
		return err
	}
	return report.Render(out, rep, reportFormat)
}
