package attribution

import (
	"sort"
)

// Selection is a user-facing restriction of an aggregate table. Empty Years
// or Divisions select everything; TopN <= 0 keeps every division.
type Selection struct {
	Years     []int    `json:"years,omitempty"`
	Divisions []string `json:"divisions,omitempty"`
	TopN      int      `json:"top_n,omitempty"`
}

// Apply restricts aggs to the selection without changing any aggregate's
// values. An empty result is a valid outcome. TopN is applied after the year
// and division filters, keeping the divisions with the largest summed
// publication count (ties broken by name).
func (s Selection) Apply(aggs []Aggregate) []Aggregate {
	years := make(map[int]bool, len(s.Years))
	for _, y := range s.Years {
		years[y] = true
	}
	divisions := make(map[string]bool, len(s.Divisions))
	for _, d := range s.Divisions {
		divisions[d] = true
	}

	out := make([]Aggregate, 0, len(aggs))
	for _, a := range aggs {
		if len(years) > 0 && !years[a.Year] {
			continue
		}
		if len(divisions) > 0 && !divisions[a.Division] {
			continue
		}
		out = append(out, a)
	}

	if s.TopN <= 0 {
		return out
	}

	keep := make(map[string]bool, s.TopN)
	for i, d := range DivisionRanking(out) {
		if i >= s.TopN {
			break
		}
		keep[d] = true
	}
	top := out[:0]
	for _, a := range out {
		if keep[a.Division] {
			top = append(top, a)
		}
	}
	return top
}

// DivisionRanking orders divisions by total publication count across aggs,
// largest first.
func DivisionRanking(aggs []Aggregate) []string {
	totals := make(map[string]int)
	for _, a := range aggs {
		totals[a.Division] += a.PublicationCount
	}
	names := make([]string, 0, len(totals))
	for d := range totals {
		names = append(names, d)
	}
	sort.Slice(names, func(i, j int) bool {
		if totals[names[i]] != totals[names[j]] {
			return totals[names[i]] > totals[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// Facets lists the distinct years and divisions of an aggregate table,
// both ascending.
type Facets struct {
	Years     []int    `json:"years"`
	Divisions []string `json:"divisions"`
}

// FacetsOf collects the facets of aggs.
func FacetsOf(aggs []Aggregate) Facets {
	years := make(map[int]bool)
	divisions := make(map[string]bool)
	for _, a := range aggs {
		years[a.Year] = true
		divisions[a.Division] = true
	}
	f := Facets{Years: make([]int, 0, len(years)), Divisions: make([]string, 0, len(divisions))}
	for y := range years {
		f.Years = append(f.Years, y)
	}
	for d := range divisions {
		f.Divisions = append(f.Divisions, d)
	}
	sort.Ints(f.Years)
	sort.Strings(f.Divisions)
	return f
}

// SortForDisplay returns a copy of aggs ordered by publication count,
// largest first. Ties fall back to score, then year and division.
func SortForDisplay(aggs []Aggregate) []Aggregate {
	out := make([]Aggregate, len(aggs))
	copy(out, aggs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PublicationCount != b.PublicationCount {
			return a.PublicationCount > b.PublicationCount
		}
		if a.FractionalScoreSum != b.FractionalScoreSum {
			return a.FractionalScoreSum > b.FractionalScoreSum
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Division < b.Division
	})
	return out
}
