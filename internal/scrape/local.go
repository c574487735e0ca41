package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-cli/internal/model"
)

const (
	localMaxBody   = 512 * 1024
	localMinBody   = 100
	localUserAgent = "Mozilla/5.0 (compatible; LeadBot/1.0)"
)

// LocalScraper fetches HTML via net/http and converts it to plaintext.
// The raw markup is kept on the page so mailto:, tel: and messaging links
// inside attributes stay visible to the scanners.
type LocalScraper struct {
	client *http.Client
}

// NewLocalScraper creates a LocalScraper. A non-positive timeout uses 15s.
func NewLocalScraper(timeout time.Duration) *LocalScraper {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &LocalScraper{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

func (l *LocalScraper) Name() string { return "local_http" }

// Supports accepts http and https URLs.
func (l *LocalScraper) Supports(u string) bool { return isHTTP(u) }

// Scrape fetches a URL, rejects blocked or empty pages, and strips the
// markup to plaintext.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*model.WebPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", localUserAgent)
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, localMaxBody))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: read body")
	}

	if blocked, kind := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("local_http: blocked (%s)", kind)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("local_http: status %d", resp.StatusCode)
	}
	if len(body) < localMinBody {
		return nil, eris.New("local_http: empty page")
	}

	return &model.WebPage{
		URL:        targetURL,
		Title:      extractTitle(body),
		Text:       stripHTML(string(body)),
		HTML:       string(body),
		StatusCode: resp.StatusCode,
		Fetcher:    l.Name(),
	}, nil
}

var (
	titleRe      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	dropBlockRe  = regexp.MustCompile(`(?is)<(script|style|noscript|svg)[^>]*>.*?</(script|style|noscript|svg)>`)
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	blankRunRe   = regexp.MustCompile(`[ \t\r]+`)
	newlineRunRe = regexp.MustCompile(`\n\s*\n+`)
)

var entityReplace = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&#64;", "@",
	"&nbsp;", " ",
)

func extractTitle(body []byte) string {
	m := titleRe.FindSubmatch(body)
	if len(m) > 1 {
		return strings.TrimSpace(entityReplace.Replace(string(m[1])))
	}
	return ""
}

// stripHTML drops script and style blocks, removes tags, decodes common
// entities and collapses whitespace. Footers are kept: contact details
// usually live there.
func stripHTML(html string) string {
	html = dropBlockRe.ReplaceAllString(html, "")
	html = tagRe.ReplaceAllString(html, "\n")
	html = entityReplace.Replace(html)
	html = blankRunRe.ReplaceAllString(html, " ")
	html = newlineRunRe.ReplaceAllString(html, "\n")

	lines := strings.Split(html, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func isHTTP(u string) bool {
	lower := strings.ToLower(u)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
