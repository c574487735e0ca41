package main

import (
	"context"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/aiextract"
	"github.com/sells-group/lead-cli/internal/config"
	"github.com/sells-group/lead-cli/internal/cost"
	"github.com/sells-group/lead-cli/internal/enrich"
	"github.com/sells-group/lead-cli/internal/resilience"
	"github.com/sells-group/lead-cli/internal/rules"
	"github.com/sells-group/lead-cli/internal/scrape"
	"github.com/sells-group/lead-cli/internal/store"
	anthropicpkg "github.com/sells-group/lead-cli/pkg/anthropic"
	"github.com/sells-group/lead-cli/pkg/firecrawl"
	"github.com/sells-group/lead-cli/pkg/jina"
)

// Breaker keys for the hosted fallbacks inside the website chain.
const (
	jinaBreaker      = "jina"
	firecrawlBreaker = "firecrawl"
)

// enrichEnv holds the store, the orchestrator and everything they own,
// as needed by the run and batch commands.
type enrichEnv struct {
	Store        store.Store
	Orchestrator *enrich.Orchestrator
	Breakers     *resilience.Breakers

	closers []io.Closer
}

// Close releases resources held by the environment.
func (e *enrichEnv) Close() {
	for _, c := range e.closers {
		if err := c.Close(); err != nil {
			zap.L().Warn("close resource", zap.Error(err))
		}
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnrich validates config for mode, opens the store and builds the
// orchestrator. Callers should defer env.Close().
func initEnrich(ctx context.Context, mode string) (*enrichEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	r, err := rules.Load(cfg.Enrich.RulesPath)
	if err != nil {
		return nil, err
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	env := &enrichEnv{Store: st, Breakers: resilience.NewBreakers(
		resilience.FromConfig(cfg.Circuit.FailureThreshold, cfg.Circuit.CooldownSecs),
	)}
	calc := cost.NewCalculator(cfg.Pricing)

	opts := []enrich.Option{
		enrich.WithBreakers(env.Breakers),
		enrich.WithCalculator(calc),
		enrich.WithMinBioLength(cfg.AI.MinBioLength),
	}

	extractor, err := newExtractor(ctx, cfg, calc)
	if err != nil {
		env.Close()
		return nil, err
	}
	if extractor != nil {
		opts = append(opts, enrich.WithAIExtractor(extractor))
		zap.L().Info("ai extraction enabled", zap.String("provider", extractor.Name()))
	} else {
		zap.L().Info("ai extraction disabled")
	}

	chain, closer := newScrapeChain(cfg, env.Breakers)
	if closer != nil {
		env.closers = append(env.closers, closer)
	}
	opts = append(opts, enrich.WithWebsiteFetcher(chain))

	env.Orchestrator = enrich.New(r, opts...)
	return env, nil
}

// newExtractor builds the configured AI back end. It returns nil when AI
// extraction is disabled.
func newExtractor(ctx context.Context, c *config.Config, calc *cost.Calculator) (aiextract.Extractor, error) {
	switch c.AI.Provider {
	case "", "none":
		return nil, nil
	case "anthropic":
		if c.Anthropic.Key == "" {
			return nil, eris.New("anthropic key is required (LEADS_ANTHROPIC_KEY)")
		}
		return aiextract.NewAnthropic(anthropicpkg.NewClient(c.Anthropic.Key), c.Anthropic.Model, calc), nil
	case "gemini":
		g, err := aiextract.NewGemini(ctx, c.Gemini.Key, c.Gemini.Model, calc)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, eris.Errorf("unsupported ai provider: %s", c.AI.Provider)
	}
}

// newScrapeChain builds local HTTP, then Jina Reader, then Firecrawl when
// a key is set, then the optional headless browser. The returned closer is non-nil when a browser may
// have been started.
func newScrapeChain(c *config.Config, breakers *resilience.Breakers) (*scrape.Chain, io.Closer) {
	timeout := time.Duration(c.Scrape.TimeoutSecs) * time.Second

	jinaClient := jina.NewClient(c.Jina.Key, jina.WithBaseURL(c.Jina.BaseURL), jina.WithTimeout(timeout))
	scrapers := []scrape.Scraper{
		scrape.NewLocalScraper(timeout),
		scrape.NewJinaScraper(jinaClient, breakers.Get(jinaBreaker)),
	}
	if c.Firecrawl.Key != "" {
		fc := firecrawl.NewClient(c.Firecrawl.Key, firecrawl.WithBaseURL(c.Firecrawl.BaseURL), firecrawl.WithTimeout(timeout))
		scrapers = append(scrapers, scrape.NewFirecrawlScraper(fc, breakers.Get(firecrawlBreaker)))
	}

	var closer io.Closer
	if c.Scrape.Browser {
		b := scrape.NewBrowserScraper(scrape.BrowserConfig{Bin: c.Scrape.BrowserBin, Timeout: timeout})
		scrapers = append(scrapers, b)
		closer = b
	}

	var matcher *scrape.PathMatcher
	if len(c.Scrape.ExcludePaths) > 0 {
		matcher = scrape.NewPathMatcher(c.Scrape.ExcludePaths)
	}
	return scrape.NewChain(matcher, scrapers...), closer
}
