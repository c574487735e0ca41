// Package scrape fetches the website a lead links to so its content can be
// scanned for contact details. Scrapers are chained: plain HTTP first, then
// the hosted readers (Jina, Firecrawl), then a headless browser for
// script-rendered link pages.
package scrape

import (
	"context"

	"github.com/sells-group/lead-cli/internal/model"
)

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*model.WebPage, error)
	Name() string
	Supports(url string) bool
}
