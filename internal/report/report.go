// Package report runs the methodology and the attribution engine over a
// loaded registry for an explicit set of parameters.
package report

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matsen/pubfrac/internal/attribution"
	"github.com/matsen/pubfrac/internal/methodology"
	"github.com/matsen/pubfrac/internal/registry"
)

// Params is the full filter configuration of one report. ReviewFlags
// overrides the configured review flags when non-empty.
type Params struct {
	Years       []int
	Divisions   []string
	Taxonomy    attribution.Taxonomy
	ReviewFlags []registry.ReviewFlag
	Mode        attribution.Mode
	TopN        int
}

// Selection returns the downstream restriction described by p.
func (p Params) Selection() attribution.Selection {
	return attribution.Selection{Years: p.Years, Divisions: p.Divisions, TopN: p.TopN}
}

// Report is the result of one taxonomy's computation.
type Report struct {
	Source     string                  `json:"source"`
	Taxonomy   attribution.Taxonomy    `json:"taxonomy"`
	Mode       attribution.Mode        `json:"mode"`
	Window     methodology.Window      `json:"window"`
	Eligible   int                     `json:"eligible"`
	Stats      attribution.Stats       `json:"stats"`
	Facets     attribution.Facets      `json:"facets"`
	Selection  attribution.Selection   `json:"selection"`
	Aggregates []attribution.Aggregate `json:"aggregates"`
	Warnings   []string                `json:"warnings,omitempty"`
}

// Pair holds the Portal and Scopus reports computed from the same registry.
type Pair struct {
	Portal *Report `json:"portal"`
	Scopus *Report `json:"scopus"`
}

// Builder builds reports. It holds only configuration and is safe for
// concurrent use.
type Builder struct {
	eligibility methodology.Eligibility
	engine      *attribution.Engine
	columns     registry.ColumnNames
	logger      *zap.Logger
}

// NewBuilder creates a Builder. logger may be nil.
func NewBuilder(e methodology.Eligibility, types attribution.TypeSets, columns registry.ColumnNames, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		eligibility: e,
		engine:      attribution.NewEngine(types),
		columns:     columns.WithDefaults(),
		logger:      logger.Named("report"),
	}
}

// Build computes the report for p.Taxonomy. It returns *registry.SchemaError
// when p needs a column the registry lacks and *registry.EmptyInputError when
// the methodology leaves nothing to attribute. A selection matching nothing
// yields a report with no aggregates.
func (b *Builder) Build(reg *registry.Registry, p Params) (*Report, error) {
	if p.Mode == "" {
		p.Mode = attribution.ModeFractional
	}
	if p.Taxonomy == "" {
		p.Taxonomy = attribution.TaxonomyPortal
	}

	elig := b.eligibility
	if len(p.ReviewFlags) > 0 {
		elig.ReviewFlags = p.ReviewFlags
	}
	if err := elig.CheckColumns(reg.Columns, b.columns); err != nil {
		return nil, err
	}
	if p.Mode == attribution.ModePortalScore && !reg.Columns.PortalScore {
		return nil, &registry.SchemaError{Missing: []string{b.columns.PortalScore}}
	}

	records, window, err := elig.Apply(reg.Records)
	if err != nil {
		return nil, err
	}

	result, err := b.engine.Compute(records, p.Taxonomy, p.Mode)
	if err != nil {
		return nil, err
	}

	sel := p.Selection()
	rep := &Report{
		Source:     reg.Source,
		Taxonomy:   result.Taxonomy,
		Mode:       result.Mode,
		Window:     window,
		Eligible:   len(records),
		Stats:      result.Stats,
		Facets:     attribution.FacetsOf(result.Aggregates),
		Selection:  sel,
		Aggregates: sel.Apply(result.Aggregates),
	}
	if reg.Fallback {
		rep.Warnings = append(rep.Warnings,
			fmt.Sprintf("encoding could not be confirmed; %s was decoded as %s with replacement characters", reg.Source, reg.Encoding))
	}

	b.logger.Debug("report built",
		zap.String("taxonomy", string(rep.Taxonomy)),
		zap.String("mode", string(rep.Mode)),
		zap.Int("eligible", rep.Eligible),
		zap.Int("rows", rep.Stats.Rows),
		zap.Int("aggregates", len(rep.Aggregates)))
	return rep, nil
}

// BuildAll computes the Portal and Scopus reports concurrently. p.Taxonomy
// is ignored.
func (b *Builder) BuildAll(ctx context.Context, reg *registry.Registry, p Params) (*Pair, error) {
	var pair Pair
	g, ctx := errgroup.WithContext(ctx)
	for _, tax := range attribution.Taxonomies {
		tax := tax
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			q := p
			q.Taxonomy = tax
			rep, err := b.Build(reg, q)
			if err != nil {
				return fmt.Errorf("%s: %w", tax.Label(), err)
			}
			if tax == attribution.TaxonomyScopus {
				pair.Scopus = rep
			} else {
				pair.Portal = rep
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &pair, nil
}
