package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/pubfrac/internal/attribution"
)

var facetsFlags reportFlags

func init() {
	facetsFlags.register(facetsCmd, false, false)
	rootCmd.AddCommand(facetsCmd)
}

var facetsCmd = &cobra.Command{
	Use:   "facets <file>",
	Short: "List the years and divisions available per taxonomy",
	Long: `List the years and divisions present in the eligible data of each
taxonomy. These are the values accepted by --year and --division.

Usage:
  pubfrac facets registry.csv
  pubfrac facets registry.csv --human`,
	Args: cobra.ExactArgs(1),
	RunE: runFacets,
}

// FacetsResult is the JSON output of facets.
type FacetsResult struct {
	Portal attribution.Facets `json:"portal"`
	Scopus attribution.Facets `json:"scopus"`
}

func runFacets(cmd *cobra.Command, args []string) error {
	params, err := facetsFlags.params()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	p := openPipeline(facetsFlags.noCache)
	defer p.Close()

	reg, err := p.load(cmd.Context(), args[0])
	if err != nil {
		fail(err)
	}
	pair, err := p.builder.BuildAll(cmd.Context(), reg, params)
	if err != nil {
		fail(err)
	}

	result := FacetsResult{Portal: pair.Portal.Facets, Scopus: pair.Scopus.Facets}
	if humanOutput {
		printFacetsHuman("Portal", result.Portal)
		printFacetsHuman("Scopus", result.Scopus)
		return nil
	}
	outputJSON(result)
	return nil
}

func printFacetsHuman(label string, f attribution.Facets) {
	years := make([]string, len(f.Years))
	for i, y := range f.Years {
		years[i] = strconv.Itoa(y)
	}
	outputHuman("%s\n", label)
	outputHuman("  years:     %s\n", strings.Join(years, ", "))
	outputHuman("  divisions: %d\n", len(f.Divisions))
	for _, d := range f.Divisions {
		outputHuman("    %s\n", d)
	}
}
