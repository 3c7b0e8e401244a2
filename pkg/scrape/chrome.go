package scrape

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// ChromeConfig holds settings for ChromeSession.
type ChromeConfig struct {
	ExecPath  string
	UserAgent string
	Timeout   time.Duration
	// ScrollWait, when positive, scrolls to the bottom of the page and waits
	// this long before reading the DOM so lazily loaded rows are present.
	ScrollWait time.Duration
}

// ChromeSession drives a headless Chrome through the DevTools protocol.
// One browser is started per session and reused for every page.
type ChromeSession struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	timeout       time.Duration
	scrollWait    time.Duration
}

// NewChromeSession starts a headless browser bound to ctx.
func NewChromeSession(ctx context.Context, cfg ChromeConfig) (*ChromeSession, error) {
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.UserAgent(ua),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser so launch errors surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &ChromeSession{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		timeout:       timeout,
		scrollWait:    cfg.ScrollWait,
	}, nil
}

// Open navigates the browser tab to pageURL and returns the rendered DOM.
func (s *ChromeSession) Open(ctx context.Context, pageURL string) (*goquery.Document, error) {
	runCtx, cancel := context.WithTimeout(s.browserCtx, s.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var (
		html     string
		location string
	)
	actions := []chromedp.Action{
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if s.scrollWait > 0 {
		actions = append(actions,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(s.scrollWait),
		)
	}
	actions = append(actions,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return nil, fmt.Errorf("failed to load page in browser: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendered page: %w", err)
	}
	if u, err := url.Parse(location); err == nil {
		doc.Url = u
	}
	return doc, nil
}

// Close shuts the browser down.
func (s *ChromeSession) Close() error {
	s.browserCancel()
	s.allocCancel()
	return nil
}
