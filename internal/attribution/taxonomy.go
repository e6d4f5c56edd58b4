// Package attribution splits publication credit across co-authoring
// divisions and aggregates it per year and division.
package attribution

import (
	"fmt"
	"strings"

	"github.com/matsen/pubfrac/internal/registry"
)

// Taxonomy selects which publication-type classification filters records.
type Taxonomy string

const (
	TaxonomyPortal Taxonomy = "portal"
	TaxonomyScopus Taxonomy = "scopus"
)

// Taxonomies lists the supported taxonomies in display order.
var Taxonomies = []Taxonomy{TaxonomyPortal, TaxonomyScopus}

// ParseTaxonomy accepts "portal" or "scopus" in any case.
func ParseTaxonomy(s string) (Taxonomy, error) {
	switch Taxonomy(strings.ToLower(strings.TrimSpace(s))) {
	case TaxonomyPortal:
		return TaxonomyPortal, nil
	case TaxonomyScopus:
		return TaxonomyScopus, nil
	}
	return "", fmt.Errorf("unknown taxonomy %q (valid: portal, scopus)", s)
}

// Label is the display name of the taxonomy.
func (t Taxonomy) Label() string {
	switch t {
	case TaxonomyPortal:
		return "Portal"
	case TaxonomyScopus:
		return "Scopus"
	}
	return string(t)
}

// typeOf returns the record's type tag under this taxonomy.
func (t Taxonomy) typeOf(r registry.Record) string {
	if t == TaxonomyScopus {
		return r.ScopusType
	}
	return r.PortalType
}

// Default accepted type labels of each taxonomy.
var (
	PortalTypes = []string{
		"Статья",
		"Труды конференций",
		"Монографии",
		"Учебные пособия",
		"Учебники",
		"Сборники статей",
	}
	ScopusTypes = []string{
		"Article",
		"Conference Paper",
		"Book",
	}
)

// TypeSets holds the closed set of accepted type labels per taxonomy.
type TypeSets struct {
	Portal []string `yaml:"portal" json:"portal"`
	Scopus []string `yaml:"scopus" json:"scopus"`
}

// DefaultTypeSets returns the methodology's type sets.
func DefaultTypeSets() TypeSets {
	return TypeSets{
		Portal: append([]string(nil), PortalTypes...),
		Scopus: append([]string(nil), ScopusTypes...),
	}
}

// labels returns the accepted labels for t as a lookup set.
func (s TypeSets) labels(t Taxonomy) map[string]bool {
	src := s.Portal
	if t == TaxonomyScopus {
		src = s.Scopus
	}
	set := make(map[string]bool, len(src))
	for _, l := range src {
		set[l] = true
	}
	return set
}

// Mode selects how a record's score is apportioned across its divisions.
type Mode string

const (
	// ModeFractional divides both the publication unit and the fractional
	// score evenly among the record's divisions.
	ModeFractional Mode = "fractional"
	// ModePortalScore takes the registry's pre-divided Portal score as each
	// row's share and does not split the publication unit.
	ModePortalScore Mode = "portal-score"
)

// ParseMode accepts "fractional" or "portal-score".
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeFractional:
		return ModeFractional, nil
	case ModePortalScore:
		return ModePortalScore, nil
	}
	return "", fmt.Errorf("unknown mode %q (valid: fractional, portal-score)", s)
}
