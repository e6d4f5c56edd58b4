// Package methodology applies the registry methodology's eligibility rules
// and the trailing year window.
package methodology

import (
	"fmt"

	"github.com/matsen/pubfrac/internal/registry"
)

// DefaultAllowedTags are the accepted HSE-list tags.
var DefaultAllowedTags = []string{"A", "B", "A_Book", "A_Conf"}

// DefaultWindowYears is the width of the trailing year window.
const DefaultWindowYears = 3

// Eligibility describes which records the methodology accepts.
type Eligibility struct {
	AllowedTags []string
	// ReviewFlags accepts a record if any listed flag is set on it.
	// Empty means strict review only.
	ReviewFlags []registry.ReviewFlag
	WindowYears int
}

// Window is the inclusive year range retained by the filter.
type Window struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Contains reports whether year falls inside the window.
func (w Window) Contains(year int) bool {
	return year >= w.From && year <= w.To
}

// Default returns the methodology's default eligibility.
func Default() Eligibility {
	return Eligibility{
		AllowedTags: append([]string(nil), DefaultAllowedTags...),
		ReviewFlags: []registry.ReviewFlag{registry.ReviewStrict},
		WindowYears: DefaultWindowYears,
	}
}

// ParseReviewFlag accepts "strict" or "non-strict".
func ParseReviewFlag(s string) (registry.ReviewFlag, error) {
	switch registry.ReviewFlag(s) {
	case registry.ReviewStrict, registry.ReviewNonStrict:
		return registry.ReviewFlag(s), nil
	case "nonstrict", "non_strict":
		return registry.ReviewNonStrict, nil
	}
	return "", fmt.Errorf("unknown review flag %q (valid: strict, non-strict)", s)
}

// CheckColumns returns a SchemaError if the eligibility rules need a column
// the registry did not provide.
func (e Eligibility) CheckColumns(cols registry.Columns, names registry.ColumnNames) error {
	for _, f := range e.flags() {
		if f == registry.ReviewNonStrict && !cols.NonStrict {
			return &registry.SchemaError{Missing: []string{names.WithDefaults().NonStrict}}
		}
	}
	return nil
}

// Apply keeps eligible records, then the trailing window ending at the
// latest year among them. It fails with *registry.EmptyInputError when
// nothing is eligible. The input slice is not modified.
func (e Eligibility) Apply(records []registry.Record) ([]registry.Record, Window, error) {
	eligible := e.filterEligible(records)
	if len(eligible) == 0 {
		return nil, Window{}, &registry.EmptyInputError{Stage: "eligibility"}
	}

	maxYear := 0
	for _, r := range eligible {
		if r.Year > maxYear {
			maxYear = r.Year
		}
	}
	if maxYear == 0 {
		return nil, Window{}, &registry.EmptyInputError{Stage: "window"}
	}

	width := e.WindowYears
	if width < 1 {
		width = DefaultWindowYears
	}
	w := Window{From: maxYear - (width - 1), To: maxYear}

	out := make([]registry.Record, 0, len(eligible))
	for _, r := range eligible {
		if w.Contains(r.Year) {
			out = append(out, r)
		}
	}
	return out, w, nil
}

func (e Eligibility) filterEligible(records []registry.Record) []registry.Record {
	tags := make(map[string]bool, len(e.AllowedTags))
	for _, t := range e.AllowedTags {
		tags[t] = true
	}
	flags := e.flags()

	out := make([]registry.Record, 0, len(records))
	for _, r := range records {
		if !tags[r.HSEListTag] {
			continue
		}
		for _, f := range flags {
			if r.Review.Has(f) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func (e Eligibility) flags() []registry.ReviewFlag {
	if len(e.ReviewFlags) == 0 {
		return []registry.ReviewFlag{registry.ReviewStrict}
	}
	return e.ReviewFlags
}
