package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/vertti/visualcheck/pkg/output"
	"github.com/vertti/visualcheck/pkg/report"
	"github.com/vertti/visualcheck/pkg/runner"
)

var (
	reportFailed bool
	reportQuery  string
)

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Summarize a previously written report",
	Long: "Report re-reads a JSON report and prints its summary. It exits 1 when the report " +
		"contains failures, like the run that produced it.",
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportFailed, "failed", false, "only list failing labels")
	reportCmd.Flags().StringVar(&reportQuery, "query", "", "print a gjson path over the raw report, e.g. '#(passed==false)#.label'")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	path := args[0]
	out := cmd.OutOrStdout()

	if reportQuery != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read report: %w", err)
		}
		if !gjson.ValidBytes(data) {
			return fmt.Errorf("parse report %s: invalid JSON", path)
		}
		res := gjson.GetBytes(data, reportQuery)
		if !res.Exists() {
			return fmt.Errorf("query %q matched nothing", reportQuery)
		}
		fmt.Fprintln(out, res.String())
		return nil
	}

	results, err := report.Read(path)
	if err != nil {
		return err
	}
	s := report.Summarize(results)

	if reportFailed {
		for _, f := range s.Failures {
			fmt.Fprintln(out, f.Label)
		}
	} else {
		for _, r := range results {
			output.PrintRunResult(out, r)
		}
		output.PrintSummary(out, s)
	}

	if !s.OK() {
		return runner.ErrChecksFailed
	}
	return nil
}
