package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/pubfrac/internal/attribution"
	"github.com/matsen/pubfrac/internal/cache"
	"github.com/matsen/pubfrac/internal/methodology"
	"github.com/matsen/pubfrac/internal/registry"
	"github.com/matsen/pubfrac/internal/report"
)

// reportFlags holds the filter flags shared by aggregate, report, facets and serve.
type reportFlags struct {
	years     []int
	divisions []string
	taxonomy  string
	mode      string
	review    []string
	top       int
	noCache   bool
}

func (f *reportFlags) register(cmd *cobra.Command, withTaxonomy, withSelection bool) {
	flags := cmd.Flags()
	if withTaxonomy {
		flags.StringVarP(&f.taxonomy, "taxonomy", "t", string(attribution.TaxonomyPortal), "Publication-type taxonomy (portal, scopus)")
	}
	if withSelection {
		flags.IntSliceVar(&f.years, "year", nil, "Restrict to years (repeatable or comma-separated)")
		flags.StringArrayVar(&f.divisions, "division", nil, "Restrict to a division (repeatable)")
		flags.IntVar(&f.top, "top", 0, "Keep only the N divisions with the most publications")
	}
	flags.StringVar(&f.mode, "mode", string(attribution.ModeFractional), "Apportionment mode (fractional, portal-score)")
	flags.StringSliceVar(&f.review, "review", nil, "Accepted review flags (strict, non-strict); default from config")
	flags.BoolVar(&f.noCache, "no-cache", false, "Bypass the persistent registry cache")
}

// params validates the flags and converts them to report parameters.
func (f *reportFlags) params() (report.Params, error) {
	var p report.Params

	if f.taxonomy != "" {
		tax, err := attribution.ParseTaxonomy(f.taxonomy)
		if err != nil {
			return p, err
		}
		p.Taxonomy = tax
	}

	mode, err := attribution.ParseMode(f.mode)
	if err != nil {
		return p, err
	}
	p.Mode = mode

	for _, r := range f.review {
		flag, err := methodology.ParseReviewFlag(r)
		if err != nil {
			return p, err
		}
		p.ReviewFlags = append(p.ReviewFlags, flag)
	}

	if f.top < 0 {
		return p, fmt.Errorf("--top must not be negative, got %d", f.top)
	}
	p.Years = f.years
	p.Divisions = f.divisions
	p.TopN = f.top
	return p, nil
}

// pipeline bundles the loader and builder for one command invocation.
type pipeline struct {
	memo    *registry.Memo
	builder *report.Builder
	cache   *cache.Cache
}

// openPipeline wires the registry memo, the optional SQLite cache and the
// report builder from the loaded config. A cache that cannot be opened is
// logged and skipped.
func openPipeline(noCache bool) *pipeline {
	p := &pipeline{}

	var regCache registry.Cache
	if !noCache && !cfg.Cache.Disabled {
		c, err := cache.Open(cfg.CachePath())
		if err != nil {
			logger.Warn("registry cache unavailable", zap.String("path", cfg.CachePath()), zap.Error(err))
		} else {
			p.cache = c
			regCache = c
		}
	}

	p.memo = registry.NewMemo(cfg.LoaderOptions(), regCache, logger.Named("registry"))
	p.builder = report.NewBuilder(cfg.Eligibility(), cfg.Methodology.Types, cfg.Columns, logger)
	return p
}

// load returns the registry at path.
func (p *pipeline) load(ctx context.Context, path string) (*registry.Registry, error) {
	return p.memo.Load(ctx, path)
}

// Close releases the cache connection.
func (p *pipeline) Close() {
	if p.cache != nil {
		if err := p.cache.Close(); err != nil {
			logger.Warn("closing registry cache", zap.Error(err))
		}
	}
}
