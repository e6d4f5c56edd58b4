package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/pubfrac/internal/attribution"
	"github.com/matsen/pubfrac/internal/report"
)

var (
	aggregateFlags reportFlags
	aggregateCSV   bool
)

func init() {
	aggregateFlags.register(aggregateCmd, true, true)
	aggregateCmd.Flags().BoolVar(&aggregateCSV, "csv", false, "Write year,division,publication_count,fractional_score_sum as CSV")
	rootCmd.AddCommand(aggregateCmd)
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <file>",
	Short: "Compute division-year aggregates for one taxonomy",
	Long: `Compute division-year aggregates for one taxonomy.

Usage:
  pubfrac aggregate registry.csv
  pubfrac aggregate registry.csv --taxonomy scopus --human
  pubfrac aggregate registry.csv --year 2023 --division "Faculty of Law"
  pubfrac aggregate registry.csv --top 10 --csv > top10.csv
  pubfrac aggregate registry.csv --review strict,non-strict

The registry is a ';'-separated export with a header row. Its encoding is
detected from the configured candidates (default utf-8, windows-1251, koi8-r).

Exit codes:
  3  required columns are missing
  4  no record passed eligibility or the year window`,
	Args: cobra.ExactArgs(1),
	RunE: runAggregate,
}

func runAggregate(cmd *cobra.Command, args []string) error {
	params, err := aggregateFlags.params()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	p := openPipeline(aggregateFlags.noCache)
	defer p.Close()

	reg, err := p.load(cmd.Context(), args[0])
	if err != nil {
		fail(err)
	}
	rep, err := p.builder.Build(reg, params)
	if err != nil {
		fail(err)
	}

	switch {
	case aggregateCSV:
		if err := writeCSV(os.Stdout, rep.Aggregates); err != nil {
			exitWithError(ExitError, "writing CSV: %v", err)
		}
	case humanOutput:
		printReportHuman(rep)
	default:
		outputJSON(rep)
	}
	return nil
}

// printReportHuman prints one taxonomy's report header and table.
func printReportHuman(rep *report.Report) {
	outputHuman("%s (%s), window %d-%d, %d eligible, %d type-matched, %d without division\n",
		rep.Taxonomy.Label(), rep.Mode, rep.Window.From, rep.Window.To,
		rep.Eligible, rep.Stats.TypeMatched, rep.Stats.DroppedNoDivision)
	for _, w := range rep.Warnings {
		outputHuman("warning: %s\n", w)
	}
	outputHuman("\n")
	writeTable(os.Stdout, attribution.SortForDisplay(rep.Aggregates))
}
