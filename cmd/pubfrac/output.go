package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/matsen/pubfrac/internal/attribution"
)

// DivisionMaxLen caps the division column in human tables.
const DivisionMaxLen = 48

// csvHeader is the fixed header of CSV aggregate output.
var csvHeader = []string{"year", "division", "publication_count", "fractional_score_sum"}

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg, Code: code})
	}
	os.Exit(code)
}

// fail reports err with the exit code matching its type.
func fail(err error) {
	exitWithError(exitCodeFor(err), "%v", err)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// writeCSV writes aggregates with the fixed four-column header.
func writeCSV(w io.Writer, aggs []attribution.Aggregate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, a := range aggs {
		row := []string{
			strconv.Itoa(a.Year),
			a.Division,
			strconv.Itoa(a.PublicationCount),
			strconv.FormatFloat(a.FractionalScoreSum, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeTable writes aggregates as an aligned text table.
func writeTable(w io.Writer, aggs []attribution.Aggregate) {
	if len(aggs) == 0 {
		fmt.Fprintln(w, "(0 rows)")
		return
	}

	cols := []string{"YEAR", "DIVISION", "PUBLICATIONS", "SCORE"}
	rows := make([][]string, len(aggs))
	for i, a := range aggs {
		rows[i] = []string{
			strconv.Itoa(a.Year),
			truncateString(a.Division, DivisionMaxLen),
			strconv.Itoa(a.PublicationCount),
			strconv.FormatFloat(a.FractionalScoreSum, 'f', 3, 64),
		}
	}

	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, row := range rows {
		for i, v := range row {
			if n := utf8.RuneCountInString(v); n > widths[i] {
				widths[i] = n
			}
		}
	}

	printRow := func(row []string) {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = padRight(v, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
	printRow(cols)
	for _, row := range rows {
		printRow(row)
	}
	fmt.Fprintf(w, "(%d rows)\n", len(aggs))
}

// padRight pads a string with spaces on the right, counting runes.
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	return string(r[:maxLen-3]) + "..."
}
