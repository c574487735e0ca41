package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/resilience"
	"github.com/sells-group/lead-cli/pkg/jina"
)

// JinaScraper wraps a Jina Reader client as a Scraper. A breaker, when
// set, makes the scraper step aside while the reader keeps failing.
type JinaScraper struct {
	client  jina.Client
	breaker *resilience.Breaker
}

// NewJinaScraper creates a JinaScraper. breaker may be nil.
func NewJinaScraper(client jina.Client, breaker *resilience.Breaker) *JinaScraper {
	return &JinaScraper{client: client, breaker: breaker}
}

func (j *JinaScraper) Name() string { return "jina" }

// Supports accepts http(s) URLs unless the breaker is open.
func (j *JinaScraper) Supports(u string) bool {
	if !isHTTP(u) {
		return false
	}
	return j.breaker == nil || j.breaker.State() != resilience.Open
}

// Scrape fetches a URL via Jina Reader. Challenge pages and near-empty
// content count as failures.
func (j *JinaScraper) Scrape(ctx context.Context, targetURL string) (*model.WebPage, error) {
	read := func(ctx context.Context) (*jina.ReadResponse, error) {
		resp, err := j.client.Read(ctx, targetURL)
		if err != nil {
			return nil, err
		}
		if needsFallback(resp) {
			return nil, eris.New("jina: response needs fallback")
		}
		return resp, nil
	}

	var (
		resp *jina.ReadResponse
		err  error
	)
	if j.breaker != nil {
		resp, err = resilience.Call(ctx, j.breaker, read)
	} else {
		resp, err = read(ctx)
	}
	if err != nil {
		return nil, err
	}

	pageURL := resp.Data.URL
	if pageURL == "" {
		pageURL = targetURL
	}
	status := resp.Code
	if status == 0 {
		status = 200
	}
	return &model.WebPage{
		URL:        pageURL,
		Title:      resp.Data.Title,
		Text:       resp.Data.Content,
		StatusCode: status,
		Tokens:     resp.Data.Usage.Tokens,
		Fetcher:    j.Name(),
	}, nil
}

// challengeSignatures mark bot-check interstitials returned as content.
var challengeSignatures = []string{
	"checking your browser",
	"enable javascript",
	"please enable cookies",
	"access denied",
	"403 forbidden",
	"just a moment",
	"attention required",
}

// needsFallback reports whether a Jina response lacks usable content.
func needsFallback(resp *jina.ReadResponse) bool {
	if resp == nil {
		return true
	}
	if resp.Code != 0 && resp.Code != 200 {
		return true
	}

	content := strings.TrimSpace(resp.Data.Content)
	if len(content) < localMinBody {
		return true
	}
	if len(content) >= 1000 {
		return false
	}
	lower := strings.ToLower(content)
	return containsAny(lower, challengeSignatures)
}
