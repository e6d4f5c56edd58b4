package registry

import (
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var fullHeader = []string{
	DefaultColumns.Title, DefaultColumns.Year, DefaultColumns.Divisions,
	DefaultColumns.HSEList, DefaultColumns.Strict, DefaultColumns.NonStrict,
	DefaultColumns.Score, DefaultColumns.PortalScore,
	DefaultColumns.PortalType, DefaultColumns.ScopusType,
}

// registryText renders rows as a ';'-separated registry export.
func registryText(t *testing.T, header []string, rows ...[]string) string {
	t.Helper()
	var b strings.Builder
	w := csv.NewWriter(&b)
	w.Comma = Separator
	if err := w.Write(header); err != nil {
		t.Fatalf("writing header: %v", err)
	}
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			t.Fatalf("writing row: %v", err)
		}
	}
	w.Flush()
	return b.String()
}

func TestParse(t *testing.T) {
	text := registryText(t, fullHeader,
		[]string{"P1", "2023", "Law; Economics", "A", "1", "0", "2,0", "1,0", "Статья", "Article"},
		[]string{"P2", "2022.0", "Law", "B", "0", "1", "1.5", "", "Монографии", "Book"},
	)

	reg, err := Parse(strings.NewReader(text), ColumnNames{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []Record{
		{
			Title:           "P1",
			Year:            2023,
			DivisionsRaw:    "Law; Economics",
			HSEListTag:      "A",
			Review:          ReviewClass{Strict: true},
			FractionalScore: 2,
			PortalScore:     1,
			PortalType:      "Статья",
			ScopusType:      "Article",
			Line:            2,
		},
		{
			Title:           "P2",
			Year:            2022,
			DivisionsRaw:    "Law",
			HSEListTag:      "B",
			Review:          ReviewClass{NonStrict: true},
			FractionalScore: 1.5,
			PortalType:      "Монографии",
			ScopusType:      "Book",
			Line:            3,
		},
	}
	if diff := cmp.Diff(want, reg.Records); diff != "" {
		t.Errorf("Parse() records mismatch (-want +got):\n%s", diff)
	}
	if !reg.Columns.NonStrict || !reg.Columns.PortalScore {
		t.Errorf("Parse() columns = %+v, want both optional columns present", reg.Columns)
	}
}

func TestParse_MissingColumns(t *testing.T) {
	header := []string{DefaultColumns.Title, DefaultColumns.Year, DefaultColumns.Divisions,
		DefaultColumns.HSEList, DefaultColumns.Strict, DefaultColumns.PortalType}
	text := registryText(t, header, []string{"P1", "2023", "Law", "A", "1", "Статья"})

	_, err := Parse(strings.NewReader(text), ColumnNames{})
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Parse() error = %v, want *SchemaError", err)
	}
	want := []string{DefaultColumns.Score, DefaultColumns.ScopusType}
	if diff := cmp.Diff(want, schemaErr.Missing); diff != "" {
		t.Errorf("SchemaError.Missing mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(strings.NewReader(""), ColumnNames{})
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Parse() error = %v, want *SchemaError", err)
	}
	if len(schemaErr.Missing) != 8 {
		t.Errorf("SchemaError.Missing = %v, want all 8 required columns", schemaErr.Missing)
	}
}

func TestParse_OptionalColumnsAbsent(t *testing.T) {
	header := []string{DefaultColumns.Title, DefaultColumns.Year, DefaultColumns.Divisions,
		DefaultColumns.HSEList, DefaultColumns.Strict, DefaultColumns.Score,
		DefaultColumns.PortalType, DefaultColumns.ScopusType}
	text := registryText(t, header, []string{"P1", "2023", "Law", "A", "1", "3", "Статья", "Article"})

	reg, err := Parse(strings.NewReader(text), ColumnNames{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if reg.Columns.NonStrict || reg.Columns.PortalScore {
		t.Errorf("Parse() columns = %+v, want optional columns absent", reg.Columns)
	}
	if reg.Records[0].Review.NonStrict || reg.Records[0].PortalScore != 0 {
		t.Errorf("absent columns should read as zero values, got %+v", reg.Records[0])
	}
}

func TestParse_ShortRowAndHeaderVariants(t *testing.T) {
	header := append([]string(nil), fullHeader...)
	header[0] = "\ufeff" + header[0]
	header[1] = "год"

	text := registryText(t, header, []string{"P1", "2023", "Law"})
	reg, err := Parse(strings.NewReader(text), ColumnNames{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	r := reg.Records[0]
	if r.Title != "P1" || r.Year != 2023 || r.HSEListTag != "" || r.ScopusType != "" {
		t.Errorf("Parse() record = %+v, want missing cells empty", r)
	}
}

func TestParse_CustomColumns(t *testing.T) {
	names := ColumnNames{Title: "Title", Year: "Year", Divisions: "Units"}
	header := append([]string(nil), fullHeader...)
	header[0], header[1], header[2] = "Title", "Year", "Units"

	text := registryText(t, header, []string{"P1", "2021", "X;Y", "A", "1", "0", "1", "", "Статья", "Article"})
	reg, err := Parse(strings.NewReader(text), names)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := reg.Records[0].DivisionsRaw; got != "X;Y" {
		t.Errorf("DivisionsRaw = %q, want %q", got, "X;Y")
	}
}

func TestLoad(t *testing.T) {
	text := registryText(t, fullHeader,
		[]string{"Статья о методах", "2023", "Law", "A", "1", "0", "1", "", "Статья", "Article"})
	data := []byte(text)

	reg, dec, err := Load(data, Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if dec.Fallback() || reg.Fallback {
		t.Error("Load() should decode clean UTF-8 without fallback")
	}
	if reg.Hash != HashBytes(data) {
		t.Errorf("Load() hash = %q, want content hash", reg.Hash)
	}
	if reg.Encoding != "utf-8" {
		t.Errorf("Load() encoding = %q, want utf-8", reg.Encoding)
	}
	if len(reg.Records) != 1 || reg.Records[0].Title != "Статья о методах" {
		t.Errorf("Load() records = %+v", reg.Records)
	}
}
