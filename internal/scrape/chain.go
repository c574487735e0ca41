package scrape

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/model"
)

// Chain tries scrapers in order until one returns a page.
type Chain struct {
	scrapers []Scraper
	matcher  *PathMatcher
}

// NewChain creates a scraper chain. A nil matcher uses the default file
// patterns.
func NewChain(matcher *PathMatcher, scrapers ...Scraper) *Chain {
	if matcher == nil {
		matcher = NewPathMatcher(nil)
	}
	return &Chain{scrapers: scrapers, matcher: matcher}
}

// Fetch returns the first page any scraper produces. Excluded URLs and a
// chain where every scraper fails return an error.
func (c *Chain) Fetch(ctx context.Context, url string) (*model.WebPage, error) {
	if c.matcher.IsExcluded(url) {
		return nil, eris.Errorf("scrape: url excluded: %s", url)
	}

	var lastErr error
	for _, s := range c.scrapers {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "scrape: context done")
		}
		if !s.Supports(url) {
			continue
		}

		page, err := s.Scrape(ctx, url)
		if err != nil {
			zap.L().Debug("scrape: scraper failed, trying next",
				zap.String("scraper", s.Name()),
				zap.String("url", url),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		if page.Fetcher == "" {
			page.Fetcher = s.Name()
		}
		zap.L().Debug("scrape: page fetched",
			zap.String("scraper", s.Name()),
			zap.String("url", url),
			zap.Int("text_len", len(page.Text)),
		)
		return page, nil
	}

	if lastErr != nil {
		return nil, eris.Wrapf(lastErr, "scrape: all scrapers failed for %s", url)
	}
	return nil, eris.Errorf("scrape: no scraper supports %s", url)
}
