// Package registry loads the publication registry: a semicolon-delimited
// table with one row per publication record.
package registry

// ReviewFlag names one of the review-class columns of the registry.
type ReviewFlag string

const (
	ReviewStrict    ReviewFlag = "strict"
	ReviewNonStrict ReviewFlag = "non-strict"
)

// ReviewClass holds the review-class flags of a record.
type ReviewClass struct {
	Strict    bool `json:"strict"`
	NonStrict bool `json:"non_strict"`
}

// Has reports whether the flag is set.
func (r ReviewClass) Has(flag ReviewFlag) bool {
	switch flag {
	case ReviewStrict:
		return r.Strict
	case ReviewNonStrict:
		return r.NonStrict
	}
	return false
}

// Record is one row of the registry. Records are never modified after parsing.
type Record struct {
	Title string `json:"title"`
	Year  int    `json:"year"` // 0 if the year cell could not be parsed

	// DivisionsRaw is the free-text division field, divisions joined by ";".
	DivisionsRaw string `json:"divisions_raw"`

	// Eligibility
	HSEListTag string      `json:"hse_list_tag"`
	Review     ReviewClass `json:"review"`

	// Scores (unparseable cells are 0)
	FractionalScore float64 `json:"fractional_score"`
	PortalScore     float64 `json:"portal_score"`

	// Taxonomy type tags
	PortalType string `json:"portal_type"`
	ScopusType string `json:"scopus_type"`

	Line int `json:"line"` // 1-based line in the source file
}

// Columns records which optional columns were present in the source header.
type Columns struct {
	NonStrict   bool `json:"non_strict"`
	PortalScore bool `json:"portal_score"`
}

// Registry is the parsed, cleaned content of one source file.
type Registry struct {
	Source   string   `json:"source"`
	Hash     string   `json:"hash"`
	Encoding string   `json:"encoding"`
	Fallback bool     `json:"fallback"`
	Columns  Columns  `json:"columns"`
	Records  []Record `json:"records"`
}
