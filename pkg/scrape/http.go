package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultUserAgent mimics a desktop Chrome so listing sites serve the full page.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const maxBodySize = 10 * 1024 * 1024

// HTTPConfig holds settings for HTTPSession.
type HTTPConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// HTTPSession fetches pages with a plain HTTP client and parses them with goquery.
// It does not run scripts, so it only sees server-rendered content.
type HTTPSession struct {
	client    *http.Client
	userAgent string
}

// NewHTTPSession creates a new HTTPSession instance
func NewHTTPSession(cfg HTTPConfig) *HTTPSession {
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSession{
		client:    &http.Client{Timeout: timeout},
		userAgent: ua,
	}
}

// Open fetches url and parses the response body.
func (s *HTTPSession) Open(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	doc.Url = resp.Request.URL
	return doc, nil
}

// Close releases idle connections.
func (s *HTTPSession) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
