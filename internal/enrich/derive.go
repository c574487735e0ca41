package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/normalize"
)

// deriveAddress moves an address-shaped full name into the address fields,
// clears the name and resumes the name chain after the source that
// produced it.
func (o *Orchestrator) deriveAddress(ctx context.Context, s *session, rec *model.EnrichedRecord) {
	chain := o.nameChain()
	for range chain {
		src, filled := rec.Sources[model.KindFullName]
		if !filled {
			return
		}
		addr, ok := normalize.ParseAddress(rec.FullName)
		if !ok {
			return
		}

		zap.L().Debug("enrich: full name reclassified as address",
			zap.String("lead_id", s.lead.ID),
			zap.String("source", string(src)),
		)
		rec.Fill(model.KindAddress, addr.Line, src)
		rec.Fill(model.KindZipCode, addr.ZipCode, src)
		if !rec.Has(model.KindCity) && !rec.Has(model.KindState) {
			rec.Fill(model.KindCity, addr.City, src)
			rec.Fill(model.KindState, addr.State, src)
		}
		rec.Clear(model.KindFullName)

		next := len(chain)
		for i, step := range chain {
			if step.tag == src {
				next = i + 1
				break
			}
		}
		o.fillName(ctx, s, rec, next)
	}
}

// splitName fills first and last name from the full name.
func (o *Orchestrator) splitName(rec *model.EnrichedRecord) {
	if !rec.Has(model.KindFullName) {
		return
	}
	if rec.Has(model.KindFirstName) && rec.Has(model.KindLastName) {
		return
	}
	src, ok := rec.Sources[model.KindFullName]
	if !ok {
		src = model.SourceStructuredField
	}
	first, last := normalize.SplitFullName(rec.FullName)
	rec.Fill(model.KindFirstName, first, src)
	rec.Fill(model.KindLastName, last, src)
}

// fillLocation looks the lead's hashtags and the hashtags in its biography
// up in the gazetteer. A lead that already has a city or state is left
// alone so the pair stays consistent.
func (o *Orchestrator) fillLocation(s *session, rec *model.EnrichedRecord) {
	if rec.Has(model.KindCity) || rec.Has(model.KindState) {
		return
	}
	tags := append([]string(nil), s.lead.Hashtags...)
	tags = append(tags, normalize.Hashtags(s.lead.Biography)...)

	place, ok := normalize.CityStateFromTags(tags, o.rules)
	if !ok {
		return
	}
	rec.Fill(model.KindNeighborhood, place.Neighborhood, model.SourceHashtagLookup)
	rec.Fill(model.KindCity, place.City, model.SourceHashtagLookup)
	rec.Fill(model.KindState, place.State, model.SourceHashtagLookup)
}
