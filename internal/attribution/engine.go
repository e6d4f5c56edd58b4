package attribution

import (
	"fmt"
	"sort"

	"github.com/matsen/pubfrac/internal/registry"
)

// Row is one (record, division) pair produced by exploding a record.
type Row struct {
	Title         string
	Year          int
	Division      string
	DivisionCount int // number of divisions on the source record
	Score         float64
	PortalScore   float64
}

// Aggregate is the per-(year, division) summary.
type Aggregate struct {
	Year               int     `json:"year"`
	Division           string  `json:"division"`
	PublicationCount   int     `json:"publication_count"`
	FractionalScoreSum float64 `json:"fractional_score_sum"`
	PublicationUnits   float64 `json:"publication_units"`
}

// Stats describes how many records survived each engine stage.
type Stats struct {
	Input             int `json:"input"`
	TypeMatched       int `json:"type_matched"`
	DroppedNoDivision int `json:"dropped_no_division"`
	Rows              int `json:"rows"`
}

// Result is the output of one engine run.
type Result struct {
	Taxonomy   Taxonomy    `json:"taxonomy"`
	Mode       Mode        `json:"mode"`
	Aggregates []Aggregate `json:"aggregates"`
	Stats      Stats       `json:"stats"`
}

// Engine computes division-year aggregates. It holds only configuration and
// is safe for concurrent use.
type Engine struct {
	types TypeSets
}

// NewEngine creates an engine for the given type sets.
func NewEngine(types TypeSets) *Engine {
	return &Engine{types: types}
}

// Compute runs type filter, division parse, explode, apportionment and
// aggregation. The input slice is not modified. Aggregates are ordered by
// year then division so identical input always yields identical output.
func (e *Engine) Compute(records []registry.Record, tax Taxonomy, mode Mode) (Result, error) {
	if tax != TaxonomyPortal && tax != TaxonomyScopus {
		return Result{}, fmt.Errorf("unknown taxonomy %q", tax)
	}
	if mode != ModeFractional && mode != ModePortalScore {
		return Result{}, fmt.Errorf("unknown mode %q", mode)
	}

	stats := Stats{Input: len(records)}
	matched := FilterByType(records, tax, e.types.labels(tax))
	stats.TypeMatched = len(matched)

	rows, dropped := Explode(matched)
	stats.DroppedNoDivision = dropped
	stats.Rows = len(rows)

	return Result{
		Taxonomy:   tax,
		Mode:       mode,
		Aggregates: AggregateRows(rows, mode),
		Stats:      stats,
	}, nil
}

// FilterByType keeps records whose type tag under tax is in accepted.
func FilterByType(records []registry.Record, tax Taxonomy, accepted map[string]bool) []registry.Record {
	out := make([]registry.Record, 0, len(records))
	for _, r := range records {
		if accepted[tax.typeOf(r)] {
			out = append(out, r)
		}
	}
	return out
}

// Explode turns each record into one row per division. Records with no valid
// division are dropped; the number dropped is returned.
func Explode(records []registry.Record) ([]Row, int) {
	var rows []Row
	dropped := 0
	for _, r := range records {
		divs := ParseDivisions(r.DivisionsRaw)
		if len(divs) == 0 {
			dropped++
			continue
		}
		for _, d := range divs {
			rows = append(rows, Row{
				Title:         r.Title,
				Year:          r.Year,
				Division:      d,
				DivisionCount: len(divs),
				Score:         r.FractionalScore,
				PortalScore:   r.PortalScore,
			})
		}
	}
	return rows, dropped
}

// Apportion returns the row's score share and publication unit under mode.
func Apportion(row Row, mode Mode) (share, unit float64) {
	if mode == ModePortalScore {
		return row.PortalScore, 1
	}
	k := float64(row.DivisionCount)
	return row.Score / k, 1 / k
}

type groupKey struct {
	year     int
	division string
}

type group struct {
	titles map[string]struct{}
	score  float64
	units  float64
}

// AggregateRows groups rows by (year, division). PublicationCount counts distinct
// titles; the score sum is not deduplicated by title, so duplicate source
// rows of one title each add their share.
func AggregateRows(rows []Row, mode Mode) []Aggregate {
	groups := make(map[groupKey]*group)
	for _, row := range rows {
		if mode == ModeFractional && row.DivisionCount <= 0 {
			continue
		}
		key := groupKey{row.Year, row.Division}
		g, ok := groups[key]
		if !ok {
			g = &group{titles: make(map[string]struct{})}
			groups[key] = g
		}
		share, unit := Apportion(row, mode)
		g.titles[row.Title] = struct{}{}
		g.score += share
		g.units += unit
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].division < keys[j].division
	})

	out := make([]Aggregate, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		out = append(out, Aggregate{
			Year:               k.year,
			Division:           k.division,
			PublicationCount:   len(g.titles),
			FractionalScoreSum: g.score,
			PublicationUnits:   g.units,
		})
	}
	return out
}
