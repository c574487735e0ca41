// Package enrich fills the empty contact fields of one lead from an ordered
// list of sources. The first source whose candidate passes validation wins
// a field; values already on the lead are never overwritten.
package enrich

import (
	"context"
	"slices"

	"github.com/sells-group/lead-cli/internal/aiextract"
	"github.com/sells-group/lead-cli/internal/cost"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/resilience"
	"github.com/sells-group/lead-cli/internal/rules"
	"github.com/sells-group/lead-cli/internal/validate"
)

// DefaultMinBioLength is the biography length, in characters, above which
// AI extraction is attempted.
const DefaultMinBioLength = 30

// WebsiteFetcher fetches the page behind a lead's external URL.
type WebsiteFetcher interface {
	Fetch(ctx context.Context, url string) (*model.WebPage, error)
}

// Orchestrator enriches leads. It holds no per-lead state and is safe for
// concurrent use when its collaborators are.
type Orchestrator struct {
	rules     *rules.Rules
	validator *validate.Validator

	ai           aiextract.Extractor
	website      WebsiteFetcher
	breakers     *resilience.Breakers
	calc         *cost.Calculator
	minBioLength int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithAIExtractor enables the bio_ai source.
func WithAIExtractor(x aiextract.Extractor) Option {
	return func(o *Orchestrator) { o.ai = x }
}

// WithWebsiteFetcher enables the website_scrape source.
func WithWebsiteFetcher(f WebsiteFetcher) Option {
	return func(o *Orchestrator) { o.website = f }
}

// WithBreakers guards the AI and website collaborators with circuit
// breakers.
func WithBreakers(b *resilience.Breakers) Option {
	return func(o *Orchestrator) { o.breakers = b }
}

// WithCalculator prices website reader usage. AI extractors price their
// own calls.
func WithCalculator(c *cost.Calculator) Option {
	return func(o *Orchestrator) { o.calc = c }
}

// WithMinBioLength sets the AI extraction threshold. Non-positive values
// keep the default.
func WithMinBioLength(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.minBioLength = n
		}
	}
}

// New creates an Orchestrator. Without options only the local sources
// (structured fields, bio regex, handle, deep link, hashtags) run.
func New(r *rules.Rules, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		rules:        r,
		validator:    validate.New(r),
		minBioLength: DefaultMinBioLength,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Result is the outcome of enriching one lead.
type Result struct {
	Record *model.EnrichedRecord `json:"record"`
	// Filled lists the kinds filled during this enrichment.
	Filled []model.Kind `json:"filled"`
	// Sources lists the distinct sources that filled a field, highest
	// priority first.
	Sources []model.Source `json:"sources"`
	CostUSD float64        `json:"cost_usd"`
	AICalls int            `json:"ai_calls"`
}

// Changed reports whether the enrichment produced anything to write.
func (r *Result) Changed() bool {
	rec := r.Record
	return len(r.Filled) > 0 ||
		len(rec.AdditionalPhones) > 0 ||
		len(rec.AdditionalEmails) > 0 ||
		len(rec.ConsentTags) > 0
}

// Enrich runs every source chain for one lead. It never fails: collaborator
// errors are logged and count as misses.
func (o *Orchestrator) Enrich(ctx context.Context, lead model.Lead) *Result {
	s := o.newSession(lead)
	rec := model.NewEnrichedRecord(lead)

	for _, k := range []model.Kind{model.KindPhone, model.KindEmail} {
		o.fillContact(ctx, s, rec, k)
	}
	o.fillName(ctx, s, rec, 0)
	o.deriveAddress(ctx, s, rec)
	o.splitName(rec)
	o.fillLocation(s, rec)
	o.consent(s, rec)

	res := &Result{
		Record:  rec,
		Filled:  rec.Filled(),
		CostUSD: s.costUSD,
		AICalls: s.aiCalls,
	}
	for _, src := range rec.Sources {
		if !slices.Contains(res.Sources, src) {
			res.Sources = append(res.Sources, src)
		}
	}
	slices.SortFunc(res.Sources, func(a, b model.Source) int { return a.Rank() - b.Rank() })
	return res
}
