package scrape

import (
	"context"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/model"
)

// BrowserConfig configures the headless browser scraper.
type BrowserConfig struct {
	// Bin is the Chrome binary. Empty lets the launcher find or download one.
	Bin string
	// ControlURL connects to an already running browser instead of launching.
	ControlURL string
	// Timeout bounds page load. Default: 20s.
	Timeout time.Duration
}

// BrowserScraper renders pages in headless Chrome. Link-in-bio builders
// often ship an empty shell that only fills in after scripts run.
type BrowserScraper struct {
	cfg BrowserConfig

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewBrowserScraper creates a BrowserScraper. The browser is started on
// the first Scrape.
func NewBrowserScraper(cfg BrowserConfig) *BrowserScraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &BrowserScraper{cfg: cfg}
}

func (b *BrowserScraper) Name() string { return "browser" }

// Supports accepts http and https URLs.
func (b *BrowserScraper) Supports(u string) bool { return isHTTP(u) }

// Scrape opens the URL in a new tab, waits for load, and returns the
// rendered markup and its text.
func (b *BrowserScraper) Scrape(ctx context.Context, targetURL string) (*model.WebPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "browser: context done")
	}
	browser, err := b.ensureStarted(ctx)
	if err != nil {
		return nil, err
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: targetURL})
	if err != nil {
		return nil, eris.Wrap(err, "browser: create page")
	}
	defer func() { _ = page.Close() }()

	if err := page.Timeout(b.cfg.Timeout).WaitLoad(); err != nil {
		return nil, eris.Wrap(err, "browser: wait load")
	}
	html, err := page.HTML()
	if err != nil {
		return nil, eris.Wrap(err, "browser: read html")
	}
	if len(html) < localMinBody {
		return nil, eris.New("browser: empty page")
	}

	title := ""
	if info, err := page.Info(); err == nil && info != nil {
		title = info.Title
	}
	return &model.WebPage{
		URL:        targetURL,
		Title:      title,
		Text:       stripHTML(html),
		HTML:       html,
		StatusCode: 200,
		Fetcher:    b.Name(),
	}, nil
}

func (b *BrowserScraper) ensureStarted(ctx context.Context) (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}

	controlURL := b.cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(true)
		if b.cfg.Bin != "" {
			l = l.Bin(b.cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, eris.Wrap(err, "browser: launch chrome")
		}
		b.launcher = l
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(context.WithoutCancel(ctx))
	if err := browser.Connect(); err != nil {
		b.cleanupLauncher()
		return nil, eris.Wrap(err, "browser: connect")
	}
	zap.L().Info("browser: connected", zap.String("control_url", controlURL))
	b.browser = browser
	return browser, nil
}

// Close shuts the browser down. It is safe to call when nothing started.
func (b *BrowserScraper) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	b.cleanupLauncher()
	if err != nil {
		return eris.Wrap(err, "browser: close")
	}
	return nil
}

func (b *BrowserScraper) cleanupLauncher() {
	if b.launcher != nil {
		b.launcher.Cleanup()
		b.launcher = nil
	}
}
