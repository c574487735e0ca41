package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-cli/internal/aiextract"
	"github.com/sells-group/lead-cli/internal/cost"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/resilience"
	"github.com/sells-group/lead-cli/internal/rules"
)

type fakeAI struct {
	res   *aiextract.Result
	err   error
	calls int
}

func (f *fakeAI) Name() string { return "fake" }

func (f *fakeAI) Extract(_ context.Context, _ string) (*aiextract.Result, error) {
	f.calls++
	return f.res, f.err
}

type fakeFetcher struct {
	page  *model.WebPage
	err   error
	calls int
	urls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*model.WebPage, error) {
	f.calls++
	f.urls = append(f.urls, url)
	return f.page, f.err
}

const longBio = "Nutricionista funcional e esportiva, atendimento online e presencial"

func TestEnrich_BioWithTitleEmailPhone(t *testing.T) {
	t.Parallel()

	o := New(rules.Default())
	res := o.Enrich(context.Background(), model.Lead{
		ID:        "1",
		Username:  "dramariasilva",
		Biography: "Dra. Maria Silva\n📧 contato@gmail.com | 📱11 99999-9999",
	})

	rec := res.Record
	assert.Equal(t, "Maria Silva", rec.FullName)
	assert.Equal(t, "contato@gmail.com", rec.Email)
	assert.Equal(t, "11999999999", rec.Phone)
	assert.Equal(t, "Maria", rec.FirstName)
	assert.Equal(t, "Silva", rec.LastName)
	assert.Equal(t, []model.Source{model.SourceBioRegex}, res.Sources)
	assert.Equal(t, []model.Kind{
		model.KindPhone, model.KindEmail, model.KindFullName, model.KindFirstName, model.KindLastName,
	}, res.Filled)
	assert.Contains(t, rec.ConsentTags, TagPublicPhone)
	assert.Contains(t, rec.ConsentTags, TagPublicEmail)
	assert.Zero(t, res.AICalls)
	assert.True(t, res.Changed())
}

func TestEnrich_RegexBeatsWebsite(t *testing.T) {
	t.Parallel()

	web := &fakeFetcher{page: &model.WebPage{Text: "Agende: (21) 98888-7777"}}
	o := New(rules.Default(), WithWebsiteFetcher(web))

	res := o.Enrich(context.Background(), model.Lead{
		ID:          "2",
		Biography:   "Clínica Bem Estar 📞 11 99999-9999",
		ExternalURL: "clinicabemestar.com.br",
	})

	assert.Equal(t, "11999999999", res.Record.Phone)
	assert.Empty(t, res.Record.AdditionalPhones)
	assert.Contains(t, res.Sources, model.SourceBioRegex)
	assert.NotContains(t, res.Sources, model.SourceWebsiteScrape)
	// Fetched once for the email chain only.
	assert.Equal(t, 1, web.calls)
	assert.Equal(t, []string{"https://clinicabemestar.com.br"}, web.urls)
}

func TestEnrich_WebsiteFetchedOncePerLead(t *testing.T) {
	t.Parallel()

	web := &fakeFetcher{page: &model.WebPage{
		Text:   "Fale com a gente: contato@clinica.com.br ou (21) 98888-7777 / (21) 3333-4444",
		Tokens: 1_000_000,
	}}
	o := New(rules.Default(), WithWebsiteFetcher(web), WithCalculator(cost.NewCalculator(cost.DefaultRates())))

	res := o.Enrich(context.Background(), model.Lead{ID: "3", ExternalURL: "https://clinica.com.br"})

	assert.Equal(t, 1, web.calls)
	assert.Equal(t, "21988887777", res.Record.Phone)
	assert.Equal(t, []string{"2133334444"}, res.Record.AdditionalPhones)
	assert.Equal(t, "contato@clinica.com.br", res.Record.Email)
	assert.Equal(t, []model.Source{model.SourceWebsiteScrape}, res.Sources)
	assert.InDelta(t, 0.02, res.CostUSD, 1e-9)
}

func TestEnrich_PreExistingNeverOverwritten(t *testing.T) {
	t.Parallel()

	ai := &fakeAI{res: &aiextract.Result{Email: "ai@clinica.com.br", FullName: "Ana Lima"}}
	o := New(rules.Default(), WithAIExtractor(ai))

	res := o.Enrich(context.Background(), model.Lead{
		ID:            "4",
		Email:         "a@b.com",
		BusinessEmail: "biz@clinica.com.br",
		Biography:     longBio + " bio@clinica.com.br",
	})

	assert.Equal(t, "a@b.com", res.Record.Email)
	assert.NotContains(t, res.Filled, model.KindEmail)
	assert.Empty(t, res.Record.AdditionalEmails)
	assert.Equal(t, "Ana Lima", res.Record.FullName)
	assert.Equal(t, 1, ai.calls)
}

func TestEnrich_StructuredFieldsFirst(t *testing.T) {
	t.Parallel()

	ai := &fakeAI{res: &aiextract.Result{Phone: "21988887777"}}
	o := New(rules.Default(), WithAIExtractor(ai))

	res := o.Enrich(context.Background(), model.Lead{
		ID:            "5",
		BusinessPhone: "+55 (11) 97777-6666",
		Biography:     longBio,
	})

	assert.Equal(t, "5511977776666", res.Record.Phone)
	assert.Equal(t, model.SourceStructuredField, res.Record.Sources[model.KindPhone])
}

func TestEnrich_AIWinsOverRegex(t *testing.T) {
	t.Parallel()

	ai := &fakeAI{res: &aiextract.Result{
		FullName: "Juliana Correa",
		Phone:    "(21) 98888-7777",
		Email:    "JU@Clinica.com.br",
		CostUSD:  0.001,
	}}
	o := New(rules.Default(), WithAIExtractor(ai))

	res := o.Enrich(context.Background(), model.Lead{
		ID:        "6",
		Biography: longBio + " 📱 11 99999-9999 outro@gmail.com",
	})

	rec := res.Record
	assert.Equal(t, "21988887777", rec.Phone)
	assert.Equal(t, "ju@clinica.com.br", rec.Email)
	assert.Equal(t, "Juliana Correa", rec.FullName)
	assert.Empty(t, rec.AdditionalPhones)
	assert.Equal(t, []model.Source{model.SourceBioAI}, res.Sources)
	assert.Equal(t, 1, ai.calls)
	assert.Equal(t, 1, res.AICalls)
	assert.InDelta(t, 0.001, res.CostUSD, 1e-12)
}

func TestEnrich_AIAnswerStillValidated(t *testing.T) {
	t.Parallel()

	ai := &fakeAI{res: &aiextract.Result{Phone: "6446901002", Email: "icon@2x.png"}}
	o := New(rules.Default(), WithAIExtractor(ai))

	res := o.Enrich(context.Background(), model.Lead{
		ID:        "7",
		Biography: longBio + " WhatsApp 11 99999-9999",
	})

	assert.Equal(t, "11999999999", res.Record.Phone)
	assert.Equal(t, model.SourceBioRegex, res.Record.Sources[model.KindPhone])
	assert.Empty(t, res.Record.Email)
}

func TestEnrich_ShortBioSkipsAI(t *testing.T) {
	t.Parallel()

	ai := &fakeAI{res: &aiextract.Result{FullName: "Ana Lima"}}
	o := New(rules.Default(), WithAIExtractor(ai), WithMinBioLength(200))

	res := o.Enrich(context.Background(), model.Lead{ID: "8", Username: "ana.lima", Biography: longBio})
	assert.Zero(t, ai.calls)
	assert.Equal(t, "Ana Lima", res.Record.FullName)
	assert.Equal(t, model.SourceHandle, res.Record.Sources[model.KindFullName])
}

func TestEnrich_CollaboratorFailuresAreMisses(t *testing.T) {
	t.Parallel()

	ai := &fakeAI{err: errors.New("ai down")}
	web := &fakeFetcher{err: errors.New("timeout")}
	breakers := resilience.NewBreakers(resilience.Config{FailureThreshold: 1, Cooldown: time.Hour})
	o := New(rules.Default(), WithAIExtractor(ai), WithWebsiteFetcher(web), WithBreakers(breakers))

	lead := model.Lead{
		ID:          "9",
		Username:    "nutricionistajulianacorrea",
		Biography:   longBio,
		ExternalURL: "https://juliana.com.br",
	}
	res := o.Enrich(context.Background(), lead)
	assert.Equal(t, "Juliana Correa", res.Record.FullName)
	assert.Equal(t, model.SourceHandle, res.Record.Sources[model.KindFullName])
	assert.Empty(t, res.Record.Phone)
	assert.Zero(t, res.AICalls)
	assert.Equal(t, 1, ai.calls)
	assert.Equal(t, 1, web.calls)

	// Both breakers are open now: the next lead does not reach either collaborator.
	res = o.Enrich(context.Background(), lead)
	assert.Equal(t, "Juliana Correa", res.Record.FullName)
	assert.Equal(t, 1, ai.calls)
	assert.Equal(t, 1, web.calls)
}

func TestEnrich_DenylistedWebsiteNotFetched(t *testing.T) {
	t.Parallel()

	web := &fakeFetcher{page: &model.WebPage{Text: "contato@clinica.com.br"}}
	o := New(rules.Default(), WithWebsiteFetcher(web))

	for _, u := range []string{"https://www.instagram.com/ana", "linktr.ee/ana", "https://m.facebook.com/ana"} {
		o.Enrich(context.Background(), model.Lead{ID: "10", ExternalURL: u})
	}
	assert.Zero(t, web.calls)
}

func TestEnrich_MessagingDeepLink(t *testing.T) {
	t.Parallel()

	web := &fakeFetcher{}
	o := New(rules.Default(), WithWebsiteFetcher(web))

	res := o.Enrich(context.Background(), model.Lead{
		ID:          "11",
		ExternalURL: "https://wa.me/5511988887777?text=oi",
	})
	assert.Equal(t, "5511988887777", res.Record.Phone)
	assert.Equal(t, model.SourceMessagingDeepLink, res.Record.Sources[model.KindPhone])
	assert.Zero(t, web.calls)
	assert.Contains(t, res.Record.ConsentTags, "messaging_link")
}

func TestEnrich_AddressShapedNameReclassified(t *testing.T) {
	t.Parallel()

	ai := &fakeAI{res: &aiextract.Result{FullName: "Rua Augusta, 100 - São Paulo/SP"}}
	o := New(rules.Default(), WithAIExtractor(ai))

	res := o.Enrich(context.Background(), model.Lead{
		ID:        "12",
		Biography: "Ana Lima\n" + longBio,
		Hashtags:  []string{"curitiba"},
	})

	rec := res.Record
	assert.Equal(t, "Rua Augusta, 100 - São Paulo/SP", rec.Address)
	assert.Equal(t, "São Paulo", rec.City)
	assert.Equal(t, "SP", rec.State)
	assert.Equal(t, model.SourceBioAI, rec.Sources[model.KindAddress])
	assert.Equal(t, "Ana Lima", rec.FullName)
	assert.Equal(t, model.SourceBioRegex, rec.Sources[model.KindFullName])
	assert.Equal(t, "Ana", rec.FirstName)
	assert.Equal(t, "Lima", rec.LastName)
}

func TestEnrich_ReclassificationFallsThroughToHandle(t *testing.T) {
	t.Parallel()

	o := New(rules.Default())
	res := o.Enrich(context.Background(), model.Lead{
		ID:        "13",
		Username:  "studio_bela",
		Biography: "Avenida Brasil\nagende seu horário",
	})

	assert.Equal(t, "Avenida Brasil", res.Record.Address)
	assert.Equal(t, "Studio Bela", res.Record.FullName)
	assert.Equal(t, model.SourceHandle, res.Record.Sources[model.KindFullName])
}

func TestEnrich_PreExistingNameSplitOnly(t *testing.T) {
	t.Parallel()

	o := New(rules.Default())
	res := o.Enrich(context.Background(), model.Lead{ID: "14", FullName: "Pedro Alves", Username: "pedro"})

	assert.Equal(t, "Pedro Alves", res.Record.FullName)
	assert.NotContains(t, res.Filled, model.KindFullName)
	assert.Equal(t, "Pedro", res.Record.FirstName)
	assert.Equal(t, "Alves", res.Record.LastName)
	assert.Equal(t, model.SourceStructuredField, res.Record.Sources[model.KindFirstName])
}

func TestEnrich_Location(t *testing.T) {
	t.Parallel()

	o := New(rules.Default())

	res := o.Enrich(context.Background(), model.Lead{
		ID:        "15",
		Biography: "Nutri em #BarraDaTijuca 🌴",
		Hashtags:  []string{"saopaulo"},
	})
	rec := res.Record
	assert.Equal(t, "Barra da Tijuca", rec.Neighborhood)
	assert.Equal(t, "Rio de Janeiro", rec.City)
	assert.Equal(t, "RJ", rec.State)
	assert.Equal(t, model.SourceHashtagLookup, rec.Sources[model.KindCity])

	res = o.Enrich(context.Background(), model.Lead{ID: "16", City: "Curitiba", Hashtags: []string{"savassi"}})
	assert.Equal(t, "Curitiba", res.Record.City)
	assert.Empty(t, res.Record.State)
	assert.Empty(t, res.Record.Neighborhood)
}

func TestEnrich_Consent(t *testing.T) {
	t.Parallel()

	o := New(rules.Default())
	res := o.Enrich(context.Background(), model.Lead{
		ID:        "17",
		Biography: "Parcerias e orçamentos pelo direct. Agende sua consulta: calendly.com/ana",
	})
	require.NotNil(t, res.Record)
	assert.Equal(t, []string{"partnership", "quote_request", "consultation", "scheduling_link"}, res.Record.ConsentTags)
	assert.Equal(t, 4, res.Record.ConsentScore)

	res = o.Enrich(context.Background(), model.Lead{ID: "18", Biography: "só fotos"})
	assert.Empty(t, res.Record.ConsentTags)
	assert.Zero(t, res.Record.ConsentScore)
	assert.False(t, res.Changed())
}

func TestEnrich_Deterministic(t *testing.T) {
	t.Parallel()

	o := New(rules.Default())
	lead := model.Lead{
		ID:        "19",
		Username:  "dra.ana",
		Biography: "Dra. Ana Souza | 📱 (31) 98888-7777 | 📞 (31) 3333-4444 | ana@clinica.com.br",
	}
	first := o.Enrich(context.Background(), lead)
	second := o.Enrich(context.Background(), lead)
	assert.Equal(t, first.Record, second.Record)
	assert.Equal(t, "31988887777", first.Record.Phone)
	assert.Equal(t, []string{"3133334444"}, first.Record.AdditionalPhones)
}
