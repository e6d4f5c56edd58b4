package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/matsen/pubfrac/internal/attribution"
	"github.com/matsen/pubfrac/internal/methodology"
	"github.com/matsen/pubfrac/internal/registry"
	"github.com/matsen/pubfrac/internal/report"
)

// parseParams reads report parameters from the query string. Multi-valued
// parameters may be repeated; year and review may also be comma-separated.
// Division names can contain commas, so division is repeat-only.
func parseParams(c *gin.Context) (report.Params, error) {
	var p report.Params

	tax, err := attribution.ParseTaxonomy(c.DefaultQuery("taxonomy", string(attribution.TaxonomyPortal)))
	if err != nil {
		return p, badRequest{err}
	}
	p.Taxonomy = tax

	mode, err := attribution.ParseMode(c.Query("mode"))
	if err != nil {
		return p, badRequest{err}
	}
	p.Mode = mode

	for _, v := range queryList(c, "year") {
		y, err := strconv.Atoi(v)
		if err != nil {
			return p, badRequest{fmt.Errorf("invalid year %q", v)}
		}
		p.Years = append(p.Years, y)
	}

	for _, v := range c.QueryArray("division") {
		if v = strings.TrimSpace(v); v != "" {
			p.Divisions = append(p.Divisions, v)
		}
	}

	if v := strings.TrimSpace(c.Query("top")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, badRequest{fmt.Errorf("invalid top %q: want a non-negative integer", v)}
		}
		p.TopN = n
	}

	for _, v := range queryList(c, "review") {
		flag, err := methodology.ParseReviewFlag(v)
		if err != nil {
			return p, badRequest{err}
		}
		p.ReviewFlags = appendFlag(p.ReviewFlags, flag)
	}

	return p, nil
}

func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func appendFlag(flags []registry.ReviewFlag, f registry.ReviewFlag) []registry.ReviewFlag {
	for _, existing := range flags {
		if existing == f {
			return flags
		}
	}
	return append(flags, f)
}
