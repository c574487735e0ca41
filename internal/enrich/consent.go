package enrich

import (
	"strings"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/normalize"
)

// Tags added for contact details published in the biography itself.
const (
	TagPublicPhone = "public_phone"
	TagPublicEmail = "public_email"
)

// consent tags outreach signals found in the biography, the external URL
// and any website text already fetched for this lead. The score is the
// number of distinct tags.
func (o *Orchestrator) consent(s *session, rec *model.EnrichedRecord) {
	parts := []string{s.lead.Biography, s.lead.ExternalURL}
	if s.webPage != nil {
		parts = append(parts, s.webPage.Text)
	}
	text := strings.Join(parts, "\n")

	var tags []string
	add := func(tag string) {
		for _, t := range tags {
			if t == tag {
				return
			}
		}
		tags = append(tags, tag)
	}

	for _, rule := range o.rules.Consent {
		if rule.Match(text) {
			add(rule.Tag)
		}
	}
	if len(o.accepted(scanText(s.lead.Biography, model.KindPhone, model.SourceBioRegex))) > 0 {
		add(TagPublicPhone)
	}
	if len(o.accepted(scanText(s.lead.Biography, model.KindEmail, model.SourceBioRegex))) > 0 {
		add(TagPublicEmail)
	}
	if c, ok := normalize.PhoneFromMessagingLink(s.lead.ExternalURL); ok && o.validator.Accept(c) {
		add(TagPublicPhone)
	}

	rec.ConsentTags = tags
	rec.ConsentScore = len(tags)
}
