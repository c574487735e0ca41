package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/resilience"
	"github.com/sells-group/lead-cli/pkg/firecrawl"
)

// firecrawlWaitMs gives link-in-bio pages time to render their buttons.
const firecrawlWaitMs = 1500

// FirecrawlScraper wraps a Firecrawl client as a Scraper for single-page
// scrapes.
type FirecrawlScraper struct {
	client  firecrawl.Client
	breaker *resilience.Breaker
}

// NewFirecrawlScraper creates a FirecrawlScraper. breaker may be nil.
func NewFirecrawlScraper(client firecrawl.Client, breaker *resilience.Breaker) *FirecrawlScraper {
	return &FirecrawlScraper{client: client, breaker: breaker}
}

func (f *FirecrawlScraper) Name() string { return "firecrawl" }

// Supports accepts http(s) URLs unless the breaker is open.
func (f *FirecrawlScraper) Supports(u string) bool {
	if !isHTTP(u) {
		return false
	}
	return f.breaker == nil || f.breaker.State() != resilience.Open
}

// Scrape fetches a single URL via Firecrawl's scrape API.
func (f *FirecrawlScraper) Scrape(ctx context.Context, targetURL string) (*model.WebPage, error) {
	scrape := func(ctx context.Context) (*firecrawl.ScrapeResponse, error) {
		resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
			URL:     targetURL,
			Formats: []string{"markdown"},
			WaitFor: firecrawlWaitMs,
		})
		if err != nil {
			return nil, err
		}
		if !resp.Success {
			return nil, eris.New("firecrawl: scrape not successful")
		}
		if len(strings.TrimSpace(resp.Data.Markdown)) < localMinBody {
			return nil, eris.New("firecrawl: empty page")
		}
		return resp, nil
	}

	var (
		resp *firecrawl.ScrapeResponse
		err  error
	)
	if f.breaker != nil {
		resp, err = resilience.Call(ctx, f.breaker, scrape)
	} else {
		resp, err = scrape(ctx)
	}
	if err != nil {
		return nil, err
	}

	meta := resp.Data.Metadata
	pageURL := meta.URL
	if pageURL == "" {
		pageURL = targetURL
	}
	status := meta.StatusCode
	if status == 0 {
		status = 200
	}
	return &model.WebPage{
		URL:        pageURL,
		Title:      meta.Title,
		Text:       resp.Data.Markdown,
		StatusCode: status,
		Fetcher:    f.Name(),
	}, nil
}
