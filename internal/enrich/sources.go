package enrich

import (
	"context"
	"net/url"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/aiextract"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/normalize"
	"github.com/sells-group/lead-cli/internal/resilience"
)

// session carries one lead through the chains. Collaborator answers are
// memoised here so each is requested at most once per lead.
type session struct {
	lead model.Lead

	aiDone bool
	aiRes  *aiextract.Result

	webDone bool
	webPage *model.WebPage

	aiCalls int
	costUSD float64
}

func (o *Orchestrator) newSession(lead model.Lead) *session {
	return &session{lead: lead}
}

// source is one step of a chain: it proposes candidates for a kind.
type source struct {
	tag     model.Source
	propose func(ctx context.Context, s *session, k model.Kind) []model.Candidate
}

func (o *Orchestrator) contactChain() []source {
	return []source{
		{model.SourceStructuredField, o.structured},
		{model.SourceBioAI, o.aiContact},
		{model.SourceBioRegex, o.bioRegex},
		{model.SourceWebsiteScrape, o.websiteScan},
		{model.SourceMessagingDeepLink, o.deepLink},
	}
}

func (o *Orchestrator) nameChain() []source {
	return []source{
		{model.SourceBioAI, o.aiName},
		{model.SourceBioRegex, o.bioName},
		{model.SourceHandle, o.handleName},
	}
}

// fillContact walks the contact chain for phone or email. The first source
// with an accepted candidate fills the field; its other accepted values go
// to the additional set.
func (o *Orchestrator) fillContact(ctx context.Context, s *session, rec *model.EnrichedRecord, k model.Kind) {
	if rec.Has(k) {
		return
	}
	for _, src := range o.contactChain() {
		accepted := o.accepted(src.propose(ctx, s, k))
		if len(accepted) == 0 {
			continue
		}
		rec.Fill(k, accepted[0], src.tag)
		for _, extra := range accepted[1:] {
			if k == model.KindPhone {
				rec.AddPhone(extra)
			} else {
				rec.AddEmail(extra)
			}
		}
		return
	}
}

// fillName walks the name chain starting at index from.
func (o *Orchestrator) fillName(ctx context.Context, s *session, rec *model.EnrichedRecord, from int) {
	if rec.Has(model.KindFullName) {
		return
	}
	chain := o.nameChain()
	for _, src := range chain[min(from, len(chain)):] {
		accepted := o.accepted(src.propose(ctx, s, model.KindFullName))
		if len(accepted) > 0 {
			rec.Fill(model.KindFullName, accepted[0], src.tag)
			return
		}
	}
}

func (o *Orchestrator) accepted(cands []model.Candidate) []string {
	var out []string
	for _, c := range cands {
		if o.validator.Accept(c) {
			out = append(out, c.Value)
		}
	}
	return out
}

func single(k model.Kind, value string, src model.Source) []model.Candidate {
	if value == "" {
		return nil
	}
	return []model.Candidate{{Kind: k, Value: value, Source: src}}
}

func contactValue(k model.Kind, raw string) string {
	raw = strings.TrimSpace(raw)
	if k == model.KindPhone {
		return normalize.Digits(raw)
	}
	return strings.ToLower(raw)
}

func (o *Orchestrator) structured(_ context.Context, s *session, k model.Kind) []model.Candidate {
	raw := s.lead.BusinessEmail
	if k == model.KindPhone {
		raw = s.lead.BusinessPhone
	}
	return single(k, contactValue(k, raw), model.SourceStructuredField)
}

func (o *Orchestrator) aiContact(ctx context.Context, s *session, k model.Kind) []model.Candidate {
	res := o.aiResult(ctx, s)
	if res == nil {
		return nil
	}
	raw := res.Email
	if k == model.KindPhone {
		raw = res.Phone
	}
	return single(k, contactValue(k, raw), model.SourceBioAI)
}

func (o *Orchestrator) aiName(ctx context.Context, s *session, _ model.Kind) []model.Candidate {
	res := o.aiResult(ctx, s)
	if res == nil {
		return nil
	}
	return single(model.KindFullName, strings.TrimSpace(res.FullName), model.SourceBioAI)
}

func (o *Orchestrator) bioRegex(_ context.Context, s *session, k model.Kind) []model.Candidate {
	return scanText(s.lead.Biography, k, model.SourceBioRegex)
}

func (o *Orchestrator) bioName(_ context.Context, s *session, _ model.Kind) []model.Candidate {
	c, ok := normalize.NameFromBio(s.lead.Biography, o.rules)
	if !ok {
		return nil
	}
	return []model.Candidate{c}
}

func (o *Orchestrator) handleName(_ context.Context, s *session, _ model.Kind) []model.Candidate {
	if strings.TrimSpace(s.lead.Username) == "" {
		return nil
	}
	return []model.Candidate{normalize.NameFromHandle(s.lead.Username, o.rules)}
}

func (o *Orchestrator) websiteScan(ctx context.Context, s *session, k model.Kind) []model.Candidate {
	page := o.websitePage(ctx, s)
	if page == nil {
		return nil
	}
	return scanText(page.Content(), k, model.SourceWebsiteScrape)
}

func (o *Orchestrator) deepLink(_ context.Context, s *session, k model.Kind) []model.Candidate {
	if k != model.KindPhone {
		return nil
	}
	c, ok := normalize.PhoneFromMessagingLink(s.lead.ExternalURL)
	if !ok {
		return nil
	}
	return []model.Candidate{c}
}

func scanText(text string, k model.Kind, src model.Source) []model.Candidate {
	var out []model.Candidate
	switch k {
	case model.KindPhone:
		for c := range normalize.Phones(text, src) {
			out = append(out, c)
		}
	case model.KindEmail:
		for c := range normalize.Emails(text, src) {
			out = append(out, c)
		}
	}
	return out
}

// aiResult calls the AI extractor once per lead. Short biographies, a
// missing extractor, an open breaker and call errors all yield nil.
func (o *Orchestrator) aiResult(ctx context.Context, s *session) *aiextract.Result {
	if s.aiDone {
		return s.aiRes
	}
	s.aiDone = true

	bio := strings.TrimSpace(s.lead.Biography)
	if o.ai == nil || utf8.RuneCountInString(bio) <= o.minBioLength {
		return nil
	}

	call := func(ctx context.Context) (*aiextract.Result, error) {
		return o.ai.Extract(ctx, bio)
	}
	var (
		res *aiextract.Result
		err error
	)
	if o.breakers != nil {
		res, err = resilience.Call(ctx, o.breakers.Get(resilience.AI), call)
	} else {
		res, err = call(ctx)
	}

	if res != nil {
		s.aiCalls++
		s.costUSD += res.CostUSD
	}
	if err != nil {
		zap.L().Warn("enrich: ai extraction failed",
			zap.String("lead_id", s.lead.ID),
			zap.String("extractor", o.ai.Name()),
			zap.Error(err),
		)
		return nil
	}
	s.aiRes = res
	return res
}

// websitePage fetches the lead's external URL once per lead. Denylisted
// platform hosts are never fetched.
func (o *Orchestrator) websitePage(ctx context.Context, s *session) *model.WebPage {
	if s.webDone {
		return s.webPage
	}
	s.webDone = true

	target, ok := o.websiteURL(s.lead.ExternalURL)
	if !ok || o.website == nil {
		return nil
	}

	fetch := func(ctx context.Context) (*model.WebPage, error) {
		return o.website.Fetch(ctx, target)
	}
	var (
		page *model.WebPage
		err  error
	)
	if o.breakers != nil {
		page, err = resilience.Call(ctx, o.breakers.Get(resilience.Website), fetch)
	} else {
		page, err = fetch(ctx)
	}
	if err != nil {
		zap.L().Warn("enrich: website fetch failed",
			zap.String("lead_id", s.lead.ID),
			zap.String("url", target),
			zap.Error(err),
		)
		return nil
	}

	if o.calc != nil && page.Tokens > 0 {
		s.costUSD += o.calc.Jina(page.Tokens)
	}
	s.webPage = page
	return page
}

// websiteURL normalises an external URL and reports whether it may be
// fetched.
func (o *Orchestrator) websiteURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if o.rules.DeniedHost(u.Hostname()) {
		return "", false
	}
	return u.String(), true
}
