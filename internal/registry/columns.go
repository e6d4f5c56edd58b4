package registry

import (
	"strings"
)

// ColumnNames maps registry fields to header names in the source file.
type ColumnNames struct {
	Title       string `yaml:"title" json:"title"`
	Year        string `yaml:"year" json:"year"`
	Divisions   string `yaml:"divisions" json:"divisions"`
	HSEList     string `yaml:"hse_list" json:"hse_list"`
	Strict      string `yaml:"strict" json:"strict"`
	NonStrict   string `yaml:"non_strict" json:"non_strict"`
	Score       string `yaml:"score" json:"score"`
	PortalScore string `yaml:"portal_score" json:"portal_score"`
	PortalType  string `yaml:"portal_type" json:"portal_type"`
	ScopusType  string `yaml:"scopus_type" json:"scopus_type"`
}

// DefaultColumns are the headers of the quarterly registry export.
var DefaultColumns = ColumnNames{
	Title:       "НАЗВАНИЕ",
	Year:        "ГОД",
	Divisions:   "Подразделение (широко)",
	HSEList:     "Список НИУ ВШЭ",
	Strict:      "Рец тип строгий",
	NonStrict:   "Рец тип нестрогий",
	Score:       "Фракционный балл",
	PortalScore: "Балл по Portal",
	PortalType:  "Тип (по Portal)",
	ScopusType:  "Тип (по Scopus)",
}

// WithDefaults fills empty names from DefaultColumns.
func (c ColumnNames) WithDefaults() ColumnNames {
	pick := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}
	d := DefaultColumns
	return ColumnNames{
		Title:       pick(c.Title, d.Title),
		Year:        pick(c.Year, d.Year),
		Divisions:   pick(c.Divisions, d.Divisions),
		HSEList:     pick(c.HSEList, d.HSEList),
		Strict:      pick(c.Strict, d.Strict),
		NonStrict:   pick(c.NonStrict, d.NonStrict),
		Score:       pick(c.Score, d.Score),
		PortalScore: pick(c.PortalScore, d.PortalScore),
		PortalType:  pick(c.PortalType, d.PortalType),
		ScopusType:  pick(c.ScopusType, d.ScopusType),
	}
}

// columnIndex holds header positions; -1 means absent.
type columnIndex struct {
	title, year, divisions, hseList, strict, nonStrict int
	score, portalScore, portalType, scopusType         int
}

// resolveHeader locates every configured column in the header row.
// Exact matches win; a case-insensitive match is accepted otherwise.
func resolveHeader(header []string, names ColumnNames) (columnIndex, error) {
	exact := make(map[string]int, len(header))
	folded := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, ok := exact[h]; !ok {
			exact[h] = i
		}
		key := strings.ToLower(h)
		if _, ok := folded[key]; !ok {
			folded[key] = i
		}
	}

	find := func(name string) int {
		name = strings.TrimSpace(name)
		if i, ok := exact[name]; ok {
			return i
		}
		if i, ok := folded[strings.ToLower(name)]; ok {
			return i
		}
		return -1
	}

	idx := columnIndex{
		title:       find(names.Title),
		year:        find(names.Year),
		divisions:   find(names.Divisions),
		hseList:     find(names.HSEList),
		strict:      find(names.Strict),
		nonStrict:   find(names.NonStrict),
		score:       find(names.Score),
		portalScore: find(names.PortalScore),
		portalType:  find(names.PortalType),
		scopusType:  find(names.ScopusType),
	}

	required := []struct {
		pos  int
		name string
	}{
		{idx.title, names.Title},
		{idx.year, names.Year},
		{idx.divisions, names.Divisions},
		{idx.hseList, names.HSEList},
		{idx.strict, names.Strict},
		{idx.score, names.Score},
		{idx.portalType, names.PortalType},
		{idx.scopusType, names.ScopusType},
	}
	var missing []string
	for _, r := range required {
		if r.pos < 0 {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return idx, &SchemaError{Missing: missing}
	}
	return idx, nil
}
