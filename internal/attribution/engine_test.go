package attribution

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matsen/pubfrac/internal/registry"
)

func rec(title string, year int, divisions string, score float64) registry.Record {
	return registry.Record{
		Title:           title,
		Year:            year,
		DivisionsRaw:    divisions,
		HSEListTag:      "A",
		Review:          registry.ReviewClass{Strict: true},
		FractionalScore: score,
		PortalType:      "Статья",
		ScopusType:      "Article",
	}
}

func TestParseDivisions(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"A;B", []string{"A", "B"}},
		{" A ; B ;", []string{"A", "B"}},
		{"A;nan;None;", []string{"A"}},
		{"A;A", []string{"A", "A"}},
		{"", nil},
		{"nan", nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseDivisions(tt.raw)); diff != "" {
				t.Errorf("ParseDivisions(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestCompute_Scenario(t *testing.T) {
	records := []registry.Record{
		rec("P1", 2023, "A;B", 2.0),
		rec("P2", 2023, "A", 1.0),
		rec("P3", 2023, "", 5.0),
	}

	res, err := NewEngine(DefaultTypeSets()).Compute(records, TaxonomyPortal, ModeFractional)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	want := []Aggregate{
		{Year: 2023, Division: "A", PublicationCount: 2, FractionalScoreSum: 2.0, PublicationUnits: 1.5},
		{Year: 2023, Division: "B", PublicationCount: 1, FractionalScoreSum: 1.0, PublicationUnits: 0.5},
	}
	if diff := cmp.Diff(want, res.Aggregates, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Compute() aggregates mismatch (-want +got):\n%s", diff)
	}

	wantStats := Stats{Input: 3, TypeMatched: 3, DroppedNoDivision: 1, Rows: 3}
	if res.Stats != wantStats {
		t.Errorf("Compute() stats = %+v, want %+v", res.Stats, wantStats)
	}
}

func TestCompute_Conservation(t *testing.T) {
	records := []registry.Record{
		rec("P1", 2021, "A;B;C", 3.3),
		rec("P2", 2022, "A;B", 0.7),
		rec("P3", 2022, "C", 1.1),
		rec("P4", 2023, "B;C;D;E;F;G;H", 10),
		rec("P5", 2023, "nan", 4),
	}

	res, err := NewEngine(DefaultTypeSets()).Compute(records, TaxonomyPortal, ModeFractional)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	var got, units float64
	for _, a := range res.Aggregates {
		got += a.FractionalScoreSum
		units += a.PublicationUnits
	}
	want := 3.3 + 0.7 + 1.1 + 10
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("sum of fractional scores = %v, want %v", got, want)
	}
	if math.Abs(units-4) > 1e-9 {
		t.Errorf("sum of publication units = %v, want 4 (one per attributed record)", units)
	}
}

func TestCompute_DistinctTitles(t *testing.T) {
	// The same title on two source rows counts once, but both shares are summed.
	records := []registry.Record{
		rec("Same", 2023, "A", 1.0),
		rec("Same", 2023, "A", 1.0),
	}

	res, err := NewEngine(DefaultTypeSets()).Compute(records, TaxonomyPortal, ModeFractional)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if len(res.Aggregates) != 1 {
		t.Fatalf("Compute() returned %d aggregates, want 1", len(res.Aggregates))
	}
	a := res.Aggregates[0]
	if a.PublicationCount != 1 || a.FractionalScoreSum != 2.0 {
		t.Errorf("aggregate = %+v, want count 1 and score 2", a)
	}
}

func TestCompute_DuplicateDivisionTokens(t *testing.T) {
	res, err := NewEngine(DefaultTypeSets()).Compute(
		[]registry.Record{rec("P1", 2023, "A;A;B", 3.0)}, TaxonomyPortal, ModeFractional)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	want := []Aggregate{
		{Year: 2023, Division: "A", PublicationCount: 1, FractionalScoreSum: 2.0, PublicationUnits: 2.0 / 3},
		{Year: 2023, Division: "B", PublicationCount: 1, FractionalScoreSum: 1.0, PublicationUnits: 1.0 / 3},
	}
	if diff := cmp.Diff(want, res.Aggregates, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Compute() aggregates mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_TaxonomiesAreIndependent(t *testing.T) {
	portalOnly := rec("Portal only", 2023, "A", 1)
	portalOnly.ScopusType = "Review"
	scopusOnly := rec("Scopus only", 2023, "B", 1)
	scopusOnly.PortalType = "Препринт"
	records := []registry.Record{portalOnly, scopusOnly}

	e := NewEngine(DefaultTypeSets())
	portal, err := e.Compute(records, TaxonomyPortal, ModeFractional)
	if err != nil {
		t.Fatalf("Compute(portal) error = %v", err)
	}
	scopus, err := e.Compute(records, TaxonomyScopus, ModeFractional)
	if err != nil {
		t.Fatalf("Compute(scopus) error = %v", err)
	}

	if len(portal.Aggregates) != 1 || portal.Aggregates[0].Division != "A" {
		t.Errorf("portal aggregates = %+v, want only division A", portal.Aggregates)
	}
	if len(scopus.Aggregates) != 1 || scopus.Aggregates[0].Division != "B" {
		t.Errorf("scopus aggregates = %+v, want only division B", scopus.Aggregates)
	}
}

func TestCompute_PortalScoreMode(t *testing.T) {
	r := rec("P1", 2023, "A;B", 2.0)
	r.PortalScore = 0.8

	res, err := NewEngine(DefaultTypeSets()).Compute([]registry.Record{r}, TaxonomyPortal, ModePortalScore)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	want := []Aggregate{
		{Year: 2023, Division: "A", PublicationCount: 1, FractionalScoreSum: 0.8, PublicationUnits: 1},
		{Year: 2023, Division: "B", PublicationCount: 1, FractionalScoreSum: 0.8, PublicationUnits: 1},
	}
	if diff := cmp.Diff(want, res.Aggregates); diff != "" {
		t.Errorf("Compute() aggregates mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	records := []registry.Record{
		rec("P1", 2022, "Z;A;M", 1.2),
		rec("P2", 2023, "M", 0.4),
		rec("P3", 2021, "A;Z", 2.5),
	}
	snapshot := append([]registry.Record(nil), records...)

	e := NewEngine(DefaultTypeSets())
	first, err := e.Compute(records, TaxonomyPortal, ModeFractional)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	second, err := e.Compute(records, TaxonomyPortal, ModeFractional)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated Compute() differs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(snapshot, records); diff != "" {
		t.Errorf("Compute() modified its input (-before +after):\n%s", diff)
	}
	for i := 1; i < len(first.Aggregates); i++ {
		a, b := first.Aggregates[i-1], first.Aggregates[i]
		if a.Year > b.Year || (a.Year == b.Year && a.Division >= b.Division) {
			t.Errorf("aggregates not ordered by (year, division): %+v before %+v", a, b)
		}
	}
}

func TestCompute_InvalidArguments(t *testing.T) {
	e := NewEngine(DefaultTypeSets())
	if _, err := e.Compute(nil, Taxonomy("wos"), ModeFractional); err == nil {
		t.Error("Compute() should reject an unknown taxonomy")
	}
	if _, err := e.Compute(nil, TaxonomyPortal, Mode("equal")); err == nil {
		t.Error("Compute() should reject an unknown mode")
	}
}

func TestAggregateRows_SkipsZeroDivisionCount(t *testing.T) {
	rows := []Row{{Title: "P", Year: 2023, Division: "A", DivisionCount: 0, Score: 1}}
	if got := AggregateRows(rows, ModeFractional); len(got) != 0 {
		t.Errorf("AggregateRows() = %+v, want rows with no divisions skipped", got)
	}
}

func TestParseTaxonomyAndMode(t *testing.T) {
	if tax, err := ParseTaxonomy(" Scopus "); err != nil || tax != TaxonomyScopus {
		t.Errorf("ParseTaxonomy(Scopus) = %q, %v", tax, err)
	}
	if _, err := ParseTaxonomy("wos"); err == nil {
		t.Error("ParseTaxonomy(wos) should fail")
	}
	if mode, err := ParseMode(""); err != nil || mode != ModeFractional {
		t.Errorf("ParseMode(\"\") = %q, %v, want fractional", mode, err)
	}
	if mode, err := ParseMode("portal-score"); err != nil || mode != ModePortalScore {
		t.Errorf("ParseMode(portal-score) = %q, %v", mode, err)
	}
}
