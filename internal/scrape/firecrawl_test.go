package scrape

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-cli/internal/resilience"
	"github.com/sells-group/lead-cli/pkg/firecrawl"
)

type fakeFirecrawl struct {
	resp  *firecrawl.ScrapeResponse
	err   error
	calls int
	last  firecrawl.ScrapeRequest
}

func (f *fakeFirecrawl) Scrape(_ context.Context, req firecrawl.ScrapeRequest) (*firecrawl.ScrapeResponse, error) {
	f.calls++
	f.last = req
	return f.resp, f.err
}

func TestFirecrawlScraper_Success(t *testing.T) {
	t.Parallel()

	body := "[WhatsApp](https://wa.me/5521988887777) " + strings.Repeat("agenda ", 30)
	client := &fakeFirecrawl{resp: &firecrawl.ScrapeResponse{
		Success: true,
		Data: firecrawl.PageData{
			Markdown: body,
			Metadata: firecrawl.Metadata{Title: "Studio", URL: "https://linktr.ee/studio"},
		},
	}}
	s := NewFirecrawlScraper(client, nil)

	page, err := s.Scrape(context.Background(), "https://linktr.ee/studio")
	require.NoError(t, err)
	assert.Equal(t, "https://linktr.ee/studio", client.last.URL)
	assert.Equal(t, []string{"markdown"}, client.last.Formats)
	assert.Equal(t, "Studio", page.Title)
	assert.Equal(t, body, page.Text)
	assert.Equal(t, 200, page.StatusCode)
	assert.Equal(t, "firecrawl", page.Fetcher)
}

func TestFirecrawlScraper_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		client *fakeFirecrawl
	}{
		{"client error", &fakeFirecrawl{err: errors.New("boom")}},
		{"not successful", &fakeFirecrawl{resp: &firecrawl.ScrapeResponse{Success: false}}},
		{"empty page", &fakeFirecrawl{resp: &firecrawl.ScrapeResponse{Success: true, Data: firecrawl.PageData{Markdown: "  "}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewFirecrawlScraper(tt.client, nil).Scrape(context.Background(), "https://a.com")
			assert.Error(t, err)
		})
	}
}

func TestFirecrawlScraper_BreakerStepsAside(t *testing.T) {
	t.Parallel()

	client := &fakeFirecrawl{err: errors.New("402")}
	b := resilience.NewBreaker("firecrawl", resilience.Config{FailureThreshold: 1, Cooldown: time.Hour})
	s := NewFirecrawlScraper(client, b)

	assert.True(t, s.Supports("https://a.com"))
	_, err := s.Scrape(context.Background(), "https://a.com")
	require.Error(t, err)
	assert.False(t, s.Supports("https://a.com"))
	assert.False(t, NewFirecrawlScraper(client, nil).Supports("mailto:a@b.com"))
	assert.Equal(t, 1, client.calls)
}
