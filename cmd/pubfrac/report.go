package main

import (
	"github.com/spf13/cobra"
)

var reportFlagsAll reportFlags

func init() {
	reportFlagsAll.register(reportCmd, false, true)
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Compute Portal and Scopus aggregates side by side",
	Long: `Compute aggregates under both the Portal and Scopus taxonomies.

Both taxonomies share one eligibility pass and year window and are computed
concurrently. Filters apply to both.

Usage:
  pubfrac report registry.csv
  pubfrac report registry.csv --year 2022,2023 --human
  pubfrac report registry.csv --mode portal-score`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	params, err := reportFlagsAll.params()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	p := openPipeline(reportFlagsAll.noCache)
	defer p.Close()

	reg, err := p.load(cmd.Context(), args[0])
	if err != nil {
		fail(err)
	}
	pair, err := p.builder.BuildAll(cmd.Context(), reg, params)
	if err != nil {
		fail(err)
	}

	if humanOutput {
		printReportHuman(pair.Portal)
		outputHuman("\n")
		printReportHuman(pair.Scopus)
		return nil
	}
	outputJSON(pair)
	return nil
}
